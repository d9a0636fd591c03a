package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"github.com/hazadus/taraneem/internal/metadata"
	"github.com/hazadus/taraneem/internal/store"
)

// Ошибки библиотеки
var (
	// ErrUnsupportedMedia импортируемый файл не является аудиофайлом
	ErrUnsupportedMedia = errors.New("файл не является поддерживаемым аудиофайлом")
	// ErrUnsupportedImage файл обложки не является изображением
	ErrUnsupportedImage = errors.New("файл не является изображением")
	// ErrTrackNotFound трек с указанным id отсутствует в библиотеке
	ErrTrackNotFound = errors.New("трек не найден")
)

// DefaultPlaybackRate скорость воспроизведения нового трека
const DefaultPlaybackRate = 1.0

// Store контракт хранилища записей треков
type Store interface {
	Put(ctx context.Context, rec *store.TrackRecord) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]store.TrackRecord, error)
	SaveAudio(ctx context.Context, id, ext string, r io.Reader) (string, error)
	SaveCover(ctx context.Context, id, ext string, r io.Reader) (string, error)
	RemoveBlob(ref string) error
	HandlePath(ref string) string
}

// Patch частичное обновление трека: nil-поля не изменяются
type Patch struct {
	Name         *string
	Artist       *string
	IsFavorite   *bool
	Duration     *float64
	PlaybackRate *float64
	Timestamps   *[]Timestamp
}

// Library упорядоченная коллекция треков. Все мутации сначала применяются
// в памяти, затем записываются в хранилище; ошибка записи возвращается
// вызывающему, а не проглатывается.
type Library struct {
	store            Store
	logger           *zap.Logger
	extractor        *metadata.Extractor
	placeholderCover string
	tracks           []Track
}

// New создает модель библиотеки поверх хранилища
func New(st Store, logger *zap.Logger, placeholderCover string) *Library {
	return &Library{
		store:            st,
		logger:           logger,
		extractor:        metadata.NewExtractor(),
		placeholderCover: placeholderCover,
		tracks:           make([]Track, 0),
	}
}

// Hydrate загружает все записи из хранилища, сортирует их по полю order
// и восстанавливает пути воспроизведения. Если значения order повреждены
// (пропуски или дубликаты после прерванной перестановки), нумерация
// детерминированно чинится: при равных order побеждает меньший id.
func (l *Library) Hydrate(ctx context.Context) error {
	l.ensurePlaceholderCover()

	records, err := l.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("ошибка загрузки библиотеки: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Order != records[j].Order {
			return records[i].Order < records[j].Order
		}
		return records[i].ID < records[j].ID
	})

	l.tracks = make([]Track, 0, len(records))
	for i := range records {
		track := trackFromRecord(&records[i])
		l.attachHandles(&track)
		l.tracks = append(l.tracks, track)
	}

	// Восстанавливаем плотную нумерацию и дозаписываем только измененные записи
	for i := range l.tracks {
		if l.tracks[i].Order != i {
			l.logger.Warn("исправляем нумерацию трека",
				zap.String("id", l.tracks[i].ID),
				zap.Int("was", l.tracks[i].Order),
				zap.Int("now", i))
			l.tracks[i].Order = i
			if err := l.store.Put(ctx, l.tracks[i].toRecord()); err != nil {
				return fmt.Errorf("ошибка восстановления нумерации: %w", err)
			}
		}
	}

	l.logger.Info("библиотека загружена", zap.Int("tracks", len(l.tracks)))
	return nil
}

// attachHandles строит производные пути воспроизведения для трека
func (l *Library) attachHandles(track *Track) {
	track.AudioPath = l.store.HandlePath(track.AudioRef)
	if track.CoverRef != "" {
		track.CoverPath = l.store.HandlePath(track.CoverRef)
	} else {
		track.CoverPath = l.placeholderCover
	}
}

// Len возвращает количество треков
func (l *Library) Len() int {
	return len(l.tracks)
}

// Tracks возвращает треки в порядке отображения (order по возрастанию)
func (l *Library) Tracks() []Track {
	return l.tracks
}

// TrackAt возвращает трек по индексу
func (l *Library) TrackAt(index int) (*Track, bool) {
	if index < 0 || index >= len(l.tracks) {
		return nil, false
	}
	return &l.tracks[index], true
}

// IndexOf возвращает индекс трека по id или -1
func (l *Library) IndexOf(id string) int {
	for i := range l.tracks {
		if l.tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// Favorites возвращает избранные треки как производную выборку
// поверх того же порядка; отдельно этот список нигде не хранится
func (l *Library) Favorites() []Track {
	favorites := make([]Track, 0)
	for _, track := range l.tracks {
		if track.IsFavorite {
			favorites = append(favorites, track)
		}
	}
	return favorites
}

// Import добавляет аудиофайл в библиотеку. Файлы, не являющиеся аудио,
// отклоняются до каких-либо изменений состояния. Название по умолчанию
// берется из тегов файла, а при их отсутствии — из имени файла.
func (l *Library) Import(ctx context.Context, filePath string) (*Track, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	head := make([]byte, 261)
	n, _ := io.ReadFull(file, head)
	if !filetype.IsAudio(head[:n]) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, filepath.Base(filePath))
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}

	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filePath))

	audioRef, err := l.store.SaveAudio(ctx, id, ext, file)
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения аудиоданных: %w", err)
	}

	meta := l.extractor.ExtractFromFile(filePath)
	duration, err := l.extractor.Duration(filePath)
	if err != nil {
		// Длительность уточнится после первой загрузки трека плеером
		duration = 0
	}

	track := Track{
		ID:           id,
		Name:         meta.Title,
		Artist:       meta.Artist,
		AudioRef:     audioRef,
		IsFavorite:   false,
		Timestamps:   make([]Timestamp, 0),
		Duration:     duration,
		PlaybackRate: DefaultPlaybackRate,
		Order:        len(l.tracks),
	}
	l.attachHandles(&track)

	if err := l.store.Put(ctx, track.toRecord()); err != nil {
		_ = l.store.RemoveBlob(audioRef)
		return nil, fmt.Errorf("ошибка сохранения трека: %w", err)
	}

	l.tracks = append(l.tracks, track)
	l.logger.Info("трек импортирован", zap.String("id", id), zap.String("name", track.Name))
	return &l.tracks[len(l.tracks)-1], nil
}

// Remove удаляет трек из хранилища и из памяти, освобождая его данные,
// и восстанавливает плотную нумерацию оставшихся треков
func (l *Library) Remove(ctx context.Context, id string) error {
	index := l.IndexOf(id)
	if index == -1 {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}

	if err := l.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("ошибка удаления трека: %w", err)
	}

	l.tracks = append(l.tracks[:index], l.tracks[index+1:]...)

	for i := index; i < len(l.tracks); i++ {
		l.tracks[i].Order = i
		if err := l.store.Put(ctx, l.tracks[i].toRecord()); err != nil {
			return fmt.Errorf("ошибка обновления нумерации: %w", err)
		}
	}

	l.logger.Info("трек удален", zap.String("id", id))
	return nil
}

// Update применяет частичное обновление к треку и сохраняет его.
// Пустое новое имя игнорируется: название трека не может быть пустым.
func (l *Library) Update(ctx context.Context, id string, patch Patch) (*Track, error) {
	index := l.IndexOf(id)
	if index == -1 {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	track := &l.tracks[index]

	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name != "" {
			track.Name = name
		}
	}
	if patch.Artist != nil {
		track.Artist = strings.TrimSpace(*patch.Artist)
	}
	if patch.IsFavorite != nil {
		track.IsFavorite = *patch.IsFavorite
	}
	if patch.Duration != nil {
		track.Duration = *patch.Duration
	}
	if patch.PlaybackRate != nil {
		track.PlaybackRate = *patch.PlaybackRate
	}
	if patch.Timestamps != nil {
		track.Timestamps = *patch.Timestamps
	}

	if err := l.store.Put(ctx, track.toRecord()); err != nil {
		return track, fmt.Errorf("ошибка сохранения трека: %w", err)
	}
	return track, nil
}

// ToggleFavorite переключает флаг избранного у трека
func (l *Library) ToggleFavorite(ctx context.Context, id string) (*Track, error) {
	index := l.IndexOf(id)
	if index == -1 {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	value := !l.tracks[index].IsFavorite
	return l.Update(ctx, id, Patch{IsFavorite: &value})
}

// SetCover заменяет обложку трека. Файлы, не являющиеся изображениями,
// отклоняются; прежняя обложка освобождается сразу после замены.
func (l *Library) SetCover(ctx context.Context, id, filePath string) (*Track, error) {
	index := l.IndexOf(id)
	if index == -1 {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	track := &l.tracks[index]

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла обложки: %w", err)
	}
	defer file.Close()

	head := make([]byte, 261)
	n, _ := io.ReadFull(file, head)
	if !filetype.IsImage(head[:n]) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, filepath.Base(filePath))
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("ошибка чтения файла обложки: %w", err)
	}

	oldRef := track.CoverRef
	ref, err := l.store.SaveCover(ctx, id, strings.ToLower(filepath.Ext(filePath)), file)
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения обложки: %w", err)
	}

	track.CoverRef = ref
	l.attachHandles(track)
	if err := l.store.Put(ctx, track.toRecord()); err != nil {
		return track, fmt.Errorf("ошибка сохранения трека: %w", err)
	}
	if oldRef != "" && oldRef != ref {
		_ = l.store.RemoveBlob(oldRef)
	}
	return track, nil
}

// AddTimestamp добавляет закладку на указанной позиции с меткой по умолчанию.
// Нумерация меток не пересчитывается при удалении закладок.
func (l *Library) AddTimestamp(ctx context.Context, id string, time float64) (*Timestamp, error) {
	index := l.IndexOf(id)
	if index == -1 {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	track := &l.tracks[index]

	timestamp := Timestamp{
		ID:    uuid.NewString(),
		Time:  time,
		Label: fmt.Sprintf("علامة %d", len(track.Timestamps)+1),
	}
	timestamps := append(append([]Timestamp(nil), track.Timestamps...), timestamp)

	if _, err := l.Update(ctx, id, Patch{Timestamps: &timestamps}); err != nil {
		return nil, err
	}
	return &timestamp, nil
}

// RemoveTimestamp удаляет закладку трека по ее id
func (l *Library) RemoveTimestamp(ctx context.Context, id, timestampID string) error {
	index := l.IndexOf(id)
	if index == -1 {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	track := &l.tracks[index]

	timestamps := make([]Timestamp, 0, len(track.Timestamps))
	for _, ts := range track.Timestamps {
		if ts.ID != timestampID {
			timestamps = append(timestamps, ts)
		}
	}
	_, err := l.Update(ctx, id, Patch{Timestamps: &timestamps})
	return err
}

// Move переставляет трек с позиции from на позицию to и пересчитывает
// поле order у всех треков, чтобы нумерация осталась плотной
func (l *Library) Move(ctx context.Context, from, to int) error {
	if from < 0 || from >= len(l.tracks) || to < 0 || to >= len(l.tracks) {
		return fmt.Errorf("недопустимая перестановка: %d -> %d", from, to)
	}
	if from == to {
		return nil
	}

	moved := l.tracks[from]
	rest := append(append([]Track(nil), l.tracks[:from]...), l.tracks[from+1:]...)
	l.tracks = append(append(append([]Track(nil), rest[:to]...), moved), rest[to:]...)

	for i := range l.tracks {
		if l.tracks[i].Order != i {
			l.tracks[i].Order = i
			if err := l.store.Put(ctx, l.tracks[i].toRecord()); err != nil {
				return fmt.Errorf("ошибка сохранения нумерации: %w", err)
			}
		}
	}
	return nil
}
