// Package backup выгружает содержимое библиотеки в S3-совместимое хранилище.
// Это односторонний экспорт на случай потери локальных данных, не синхронизация.
package backup

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hazadus/taraneem/internal/s3"
)

// Service управляет выгрузкой библиотеки
type Service struct {
	uploader *s3.Uploader
	prefix   string
}

// NewService создает сервис выгрузки. Все ключи получают указанный префикс.
func NewService(uploader *s3.Uploader, prefix string) *Service {
	if prefix == "" {
		prefix = "taraneem"
	}
	return &Service{
		uploader: uploader,
		prefix:   prefix,
	}
}

// Result итог выгрузки библиотеки
type Result struct {
	Files int
	Bytes int64
}

// Run выгружает все файлы каталога библиотеки: записи треков,
// аудиоданные и обложки. Прогресс сообщается по каждому файлу.
func (s *Service) Run(ctx context.Context, libraryDir string, progress func(path string)) (*Result, error) {
	result := &Result{}

	err := filepath.WalkDir(libraryDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(libraryDir, path)
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("ошибка открытия %s: %w", rel, err)
		}
		defer file.Close()

		info, err := file.Stat()
		if err != nil {
			return fmt.Errorf("ошибка чтения %s: %w", rel, err)
		}

		key := s.prefix + "/" + filepath.ToSlash(rel)
		if _, err := s.uploader.UploadFile(ctx, file, key); err != nil {
			return fmt.Errorf("ошибка выгрузки %s: %w", rel, err)
		}

		result.Files++
		result.Bytes += info.Size()
		if progress != nil {
			progress(rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
