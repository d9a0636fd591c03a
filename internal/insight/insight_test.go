package insight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTrackInsightDisabled(t *testing.T) {
	// Без ключа API сервис выключен и сразу возвращает заглушку
	client := NewClient("", "", "")

	if client.Enabled() {
		t.Error("Ожидался выключенный сервис без ключа API")
	}
	if result := client.TrackInsight(context.Background(), "ترنيمة"); result != Fallback {
		t.Errorf("Ожидалась заглушка, получено: %s", result)
	}
}

func TestTrackInsightSuccess(t *testing.T) {
	// Поднимаем тестовый сервер, возвращающий корректный ответ
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Ожидался метод POST, получено: %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "gemini-2.0-flash") {
			t.Errorf("Ожидалась модель по умолчанию в пути, получено: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("Ожидался ключ test-key, получено: %s", r.URL.Query().Get("key"))
		}

		// Проверяем, что название трека попало в запрос
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Ошибка разбора тела запроса: %v", err)
		}
		if len(req.Contents) == 0 || !strings.Contains(req.Contents[0].Parts[0].Text, "يا طير") {
			t.Error("Название трека отсутствует в запросе")
		}

		response := generateResponse{}
		response.Candidates = []struct {
			Content content `json:"content"`
		}{
			{Content: content{Parts: []part{{Text: "لحن ساحر يعيد ذكريات الطفولة."}}}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "")

	result := client.TrackInsight(context.Background(), "يا طير")
	if result != "لحن ساحر يعيد ذكريات الطفولة." {
		t.Errorf("Ожидался текст от сервиса, получено: %s", result)
	}
}

func TestTrackInsightServerError(t *testing.T) {
	// Любой не-200 ответ дает заглушку
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "")

	if result := client.TrackInsight(context.Background(), "ترنيمة"); result != Fallback {
		t.Errorf("Ожидалась заглушка при ошибке сервера, получено: %s", result)
	}
}

func TestTrackInsightEmptyCandidates(t *testing.T) {
	// Пустой список кандидатов тоже дает заглушку
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "")

	if result := client.TrackInsight(context.Background(), "ترنيمة"); result != Fallback {
		t.Errorf("Ожидалась заглушка при пустом ответе, получено: %s", result)
	}
}

func TestTrackInsightUnreachableServer(t *testing.T) {
	// Недоступный сервер не ломает воспроизведение
	client := NewClient("http://127.0.0.1:1", "test-key", "")

	if result := client.TrackInsight(context.Background(), "ترنيمة"); result != Fallback {
		t.Errorf("Ожидалась заглушка при недоступном сервере, получено: %s", result)
	}
}
