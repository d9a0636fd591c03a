package library

import (
	_ "embed"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

//go:embed placeholder.png
var placeholderCoverData []byte

// ensurePlaceholderCover создает файл-заглушку обложки, если его еще нет.
// Путь заглушки выдается трекам без собственной обложки, поэтому файл
// должен существовать к моменту первой выдачи.
func (l *Library) ensurePlaceholderCover() {
	if l.placeholderCover == "" {
		return
	}
	if _, err := os.Stat(l.placeholderCover); err == nil {
		return
	}

	if err := os.MkdirAll(filepath.Dir(l.placeholderCover), 0755); err != nil {
		l.logger.Warn("не удалось создать каталог заглушки обложки", zap.Error(err))
		return
	}
	if err := os.WriteFile(l.placeholderCover, placeholderCoverData, 0644); err != nil {
		l.logger.Warn("не удалось создать заглушку обложки", zap.Error(err))
	}
}
