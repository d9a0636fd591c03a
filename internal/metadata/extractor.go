// Package metadata предоставляет извлечение метаданных из аудиофайлов
package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/mp3"
)

// Meta метаданные трека, извлеченные из файла
type Meta struct {
	Title  string
	Artist string
}

// Extractor извлекает метаданные из аудиофайлов
type Extractor struct{}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFromFile извлекает метаданные из файла. Если теги отсутствуют или
// не читаются, название выводится из имени файла, а исполнитель остается пустым.
func (e *Extractor) ExtractFromFile(filePath string) Meta {
	file, err := os.Open(filePath)
	if err != nil {
		return e.fromFileName(filePath)
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil || strings.TrimSpace(meta.Title()) == "" {
		return e.fromFileName(filePath)
	}

	return Meta{
		Title:  strings.TrimSpace(meta.Title()),
		Artist: strings.TrimSpace(meta.Artist()),
	}
}

// Duration возвращает длительность MP3-файла в секундах.
// Для форматов, которые не удается декодировать, возвращается ошибка:
// длительность в этом случае станет известна после первой загрузки плеером.
func (e *Extractor) Duration(filePath string) (float64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	streamer, format, err := mp3.Decode(file)
	if err != nil {
		return 0, fmt.Errorf("ошибка декодирования: %w", err)
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()).Seconds(), nil
}

// fromFileName строит метаданные из имени файла: расширение отбрасывается,
// формат "Исполнитель - Название" распознается
func (e *Extractor) fromFileName(filePath string) Meta {
	fileName := filepath.Base(filePath)
	name := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	parts := strings.Split(name, " - ")
	if len(parts) >= 2 {
		return Meta{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
		}
	}
	return Meta{Title: name}
}
