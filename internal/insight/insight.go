// Package insight получает короткое описание трека от внешнего текстового
// сервиса. Сервис необязателен: любая ошибка дает фиксированную заглушку
// и никогда не влияет на воспроизведение.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Fallback строка, возвращаемая при любой ошибке сервиса
const Fallback = "استمتع بألحانك المفضلة مع ترانيم."

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client клиент текстового сервиса
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient создает клиента. Пустой apiKey означает, что сервис выключен.
func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled возвращает true, если сервис настроен
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
	Config   genConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type genConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// TrackInsight возвращает короткое описание трека по его названию.
// При выключенном сервисе или любой ошибке возвращается заглушка.
func (c *Client) TrackInsight(ctx context.Context, trackName string) string {
	if !c.Enabled() {
		return Fallback
	}

	prompt := fmt.Sprintf(
		"بصفتك خبير موسيقي، أعطني وصفاً قصيراً وملهماً باللغة العربية لهذا المقطع الصوتي: \"%s\". اجعله مختصراً جداً (أقل من 20 كلمة).",
		trackName)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		Config:   genConfig{Temperature: 0.7},
	})
	if err != nil {
		return Fallback
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Fallback
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Fallback
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Fallback
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return Fallback
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return Fallback
	}
	return text
}
