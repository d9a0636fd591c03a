// Package store содержит файловое хранилище записей треков и их бинарных данных
package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Имена подкаталогов хранилища
const (
	recordsDirName = "tracks"
	audioDirName   = "audio"
	coversDirName  = "covers"
)

// TimestampRecord сохраняемая форма закладки внутри трека
type TimestampRecord struct {
	ID    string  `yaml:"id"`
	Time  float64 `yaml:"time"`
	Label string  `yaml:"label"`
}

// TrackRecord сохраняемая форма трека.
// Содержит только durable-поля: производные ссылки (пути воспроизведения)
// в запись не входят и восстанавливаются при гидратации.
type TrackRecord struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	Artist       string            `yaml:"artist"`
	AudioRef     string            `yaml:"audio_ref"`
	CoverRef     string            `yaml:"cover_ref,omitempty"`
	IsFavorite   bool              `yaml:"is_favorite"`
	Timestamps   []TimestampRecord `yaml:"timestamps"`
	Duration     float64           `yaml:"duration"`
	PlaybackRate float64           `yaml:"playback_rate"`
	Order        int               `yaml:"order"`
}

// FileStore хранит записи треков в каталоге на диске: по одному YAML-файлу
// на трек плюс каталоги с аудиоданными и обложками
type FileStore struct {
	dir      string
	initOnce sync.Once
	initErr  error
}

// NewFileStore создает хранилище в указанном каталоге (поддерживается "~")
func NewFileStore(dir string) (*FileStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir = strings.Replace(dir, "~", home, 1)
	return &FileStore{dir: dir}, nil
}

// Dir возвращает корневой каталог хранилища
func (s *FileStore) Dir() string {
	return s.dir
}

// ensureInit лениво создает структуру каталогов. Повторные вызовы ничего не делают.
func (s *FileStore) ensureInit() error {
	s.initOnce.Do(func() {
		for _, sub := range []string{recordsDirName, audioDirName, coversDirName} {
			if err := os.MkdirAll(filepath.Join(s.dir, sub), 0755); err != nil {
				s.initErr = fmt.Errorf("ошибка инициализации хранилища: %w", err)
				return
			}
		}
	})
	return s.initErr
}

func (s *FileStore) recordPath(id string) string {
	return filepath.Join(s.dir, recordsDirName, id+".yml")
}

// Put сохраняет запись трека по id (upsert)
func (s *FileStore) Put(ctx context.Context, rec *TrackRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureInit(); err != nil {
		return err
	}
	if rec.ID == "" {
		return fmt.Errorf("запись трека без id")
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи трека: %w", err)
	}
	if err := os.WriteFile(s.recordPath(rec.ID), data, 0644); err != nil {
		return fmt.Errorf("ошибка записи трека %s: %w", rec.ID, err)
	}
	return nil
}

// Delete удаляет запись трека и принадлежащие ей бинарные данные.
// Удаление несуществующего id не является ошибкой.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureInit(); err != nil {
		return err
	}

	if err := os.Remove(s.recordPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления записи трека %s: %w", id, err)
	}

	// Бинарные данные именуются по id трека, поэтому их можно найти по префиксу
	for _, sub := range []string{audioDirName, coversDirName} {
		entries, err := os.ReadDir(filepath.Join(s.dir, sub))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if strings.TrimSuffix(name, filepath.Ext(name)) == id {
				_ = os.Remove(filepath.Join(s.dir, sub, name))
			}
		}
	}
	return nil
}

// ListAll возвращает все записи треков без какой-либо сортировки
func (s *FileStore) ListAll(ctx context.Context) ([]TrackRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensureInit(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.dir, recordsDirName))
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога треков: %w", err)
	}

	records := make([]TrackRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, recordsDirName, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения записи %s: %w", entry.Name(), err)
		}
		var rec TrackRecord
		if err := yaml.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("ошибка разбора записи %s: %w", entry.Name(), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// SaveAudio сохраняет аудиоданные трека и возвращает ссылку на них
func (s *FileStore) SaveAudio(ctx context.Context, id, ext string, r io.Reader) (string, error) {
	return s.saveBlob(ctx, audioDirName, id, ext, r)
}

// SaveCover сохраняет обложку трека и возвращает ссылку на нее
func (s *FileStore) SaveCover(ctx context.Context, id, ext string, r io.Reader) (string, error) {
	return s.saveBlob(ctx, coversDirName, id, ext, r)
}

func (s *FileStore) saveBlob(ctx context.Context, sub, id, ext string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.ensureInit(); err != nil {
		return "", err
	}

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	ref := filepath.Join(sub, id+ext)

	file, err := os.Create(filepath.Join(s.dir, ref))
	if err != nil {
		return "", fmt.Errorf("ошибка создания файла данных: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, r); err != nil {
		_ = os.Remove(filepath.Join(s.dir, ref))
		return "", fmt.Errorf("ошибка записи данных: %w", err)
	}
	return ref, nil
}

// RemoveBlob удаляет бинарные данные по ссылке. Отсутствие файла не ошибка.
func (s *FileStore) RemoveBlob(ref string) error {
	if ref == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, ref)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления данных %s: %w", ref, err)
	}
	return nil
}

// HandlePath возвращает абсолютный путь для воспроизведения по ссылке из записи.
// Путь является производным значением сессии и никогда не сохраняется.
func (s *FileStore) HandlePath(ref string) string {
	if ref == "" {
		return ""
	}
	return filepath.Join(s.dir, ref)
}
