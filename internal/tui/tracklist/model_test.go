package tracklist

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hazadus/taraneem/internal/library"
	"github.com/hazadus/taraneem/internal/store"
)

// newTestModel создает модель списка поверх библиотеки с двумя треками,
// один из которых избранный
func newTestModel(t *testing.T) *Model {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Ошибка создания хранилища: %v", err)
	}

	records := []*store.TrackRecord{
		{ID: "aaa", Name: "Первый трек", Artist: "Исполнитель 1", AudioRef: "audio/aaa.mp3", Order: 0},
		{ID: "bbb", Name: "Второй трек", Artist: "Исполнитель 2", AudioRef: "audio/bbb.mp3", IsFavorite: true, Order: 1},
	}
	for _, rec := range records {
		if err := st.Put(ctx, rec); err != nil {
			t.Fatalf("Ошибка сохранения записи: %v", err)
		}
	}

	lib := library.New(st, zap.NewNop(), filepath.Join(st.Dir(), "placeholder.png"))
	if err := lib.Hydrate(ctx); err != nil {
		t.Fatalf("Ошибка гидратации: %v", err)
	}

	return NewModel(lib)
}

func TestNewModel(t *testing.T) {
	model := newTestModel(t)

	// Проверяем, что модель создалась корректно
	if model == nil {
		t.Fatal("NewModel вернул nil")
	}
	if len(model.list.Items()) != 2 {
		t.Fatalf("Ожидалось 2 элемента списка, получено %d", len(model.list.Items()))
	}
}

func TestRefreshDataFavoritesView(t *testing.T) {
	model := newTestModel(t)

	// Включаем фильтр избранного: остается только отмеченный трек
	model.favoritesOnly = true
	model.RefreshData()

	if len(model.list.Items()) != 1 {
		t.Fatalf("Ожидался 1 элемент в избранном, получено %d", len(model.list.Items()))
	}
	item, ok := model.list.Items()[0].(trackItem)
	if !ok {
		t.Fatal("Элемент списка имеет неверный тип")
	}
	if item.track.ID != "bbb" {
		t.Errorf("Ожидался трек bbb в избранном, получено %s", item.track.ID)
	}

	// Выключаем фильтр: список снова полный
	model.favoritesOnly = false
	model.RefreshData()
	if len(model.list.Items()) != 2 {
		t.Fatalf("Ожидалось 2 элемента списка, получено %d", len(model.list.Items()))
	}
}

func TestRefreshDataClampsCursor(t *testing.T) {
	model := newTestModel(t)

	// Курсор за пределами уменьшившегося списка усекается
	model.list.Select(1)
	model.favoritesOnly = true
	model.RefreshData()

	if model.list.Index() != 0 {
		t.Errorf("Ожидался курсор на позиции 0, получено %d", model.list.Index())
	}
}
