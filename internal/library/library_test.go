package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hazadus/taraneem/internal/store"
)

// newTestLibrary создает библиотеку поверх настоящего файлового хранилища
// во временном каталоге
func newTestLibrary(t *testing.T) (*Library, *store.FileStore) {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Ошибка создания хранилища: %v", err)
	}
	return New(st, zap.NewNop(), filepath.Join(st.Dir(), "placeholder.png")), st
}

// writeFakeMP3 создает файл с сигнатурой MP3 (заголовок ID3), достаточной
// для проверки типа, но без декодируемого содержимого
func writeFakeMP3(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	data := append([]byte("ID3"), make([]byte, 300)...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Ошибка создания тестового файла: %v", err)
	}
	return path
}

// writeFakePNG создает файл с сигнатурой PNG
func writeFakePNG(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	data := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Ошибка создания тестового файла: %v", err)
	}
	return path
}

func TestImportAssignsSequentialOrder(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	srcDir := t.TempDir()

	// Импортируем три файла
	for _, name := range []string{"first.mp3", "second.mp3", "third.mp3"} {
		if _, err := lib.Import(ctx, writeFakeMP3(t, srcDir, name)); err != nil {
			t.Fatalf("Ошибка импорта %s: %v", name, err)
		}
	}

	if lib.Len() != 3 {
		t.Fatalf("Ожидалось 3 трека, получено %d", lib.Len())
	}

	// Порядок присваивается последовательно
	for i, track := range lib.Tracks() {
		if track.Order != i {
			t.Errorf("Трек %d: ожидался Order %d, получено %d", i, i, track.Order)
		}
	}

	// Название берется из имени файла, скорость по умолчанию
	first := lib.Tracks()[0]
	if first.Name != "first" {
		t.Errorf("Ожидалось Name: first, получено: %s", first.Name)
	}
	if first.PlaybackRate != DefaultPlaybackRate {
		t.Errorf("Ожидалась PlaybackRate по умолчанию, получено: %v", first.PlaybackRate)
	}
	if first.AudioPath == "" {
		t.Error("Ожидался непустой путь воспроизведения после импорта")
	}
}

func TestImportParsesArtistFromFileName(t *testing.T) {
	lib, _ := newTestLibrary(t)
	srcDir := t.TempDir()

	track, err := lib.Import(context.Background(), writeFakeMP3(t, srcDir, "Fairuz - Nassam Alayna.mp3"))
	if err != nil {
		t.Fatalf("Ошибка импорта: %v", err)
	}

	if track.Artist != "Fairuz" {
		t.Errorf("Ожидался Artist: Fairuz, получено: %s", track.Artist)
	}
	if track.Name != "Nassam Alayna" {
		t.Errorf("Ожидалось Name: Nassam Alayna, получено: %s", track.Name)
	}
}

func TestImportRejectsNonAudio(t *testing.T) {
	lib, st := newTestLibrary(t)
	ctx := context.Background()

	// Текстовый файл отклоняется до каких-либо изменений состояния
	srcDir := t.TempDir()
	path := filepath.Join(srcDir, "notes.txt")
	if err := os.WriteFile(path, []byte("просто текст, не аудио"), 0644); err != nil {
		t.Fatalf("Ошибка создания тестового файла: %v", err)
	}

	_, err := lib.Import(ctx, path)
	if !errors.Is(err, ErrUnsupportedMedia) {
		t.Errorf("Ожидалась ошибка ErrUnsupportedMedia, получено: %v", err)
	}

	if lib.Len() != 0 {
		t.Errorf("Ожидалась пустая библиотека после отклоненного импорта, получено %d треков", lib.Len())
	}
	records, err := st.ListAll(ctx)
	if err != nil {
		t.Fatalf("Ошибка чтения записей: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Ожидалось пустое хранилище после отклоненного импорта, получено %d записей", len(records))
	}
}

func TestRemoveRenumbersRemaining(t *testing.T) {
	lib, st := newTestLibrary(t)
	ctx := context.Background()
	srcDir := t.TempDir()

	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		if _, err := lib.Import(ctx, writeFakeMP3(t, srcDir, name)); err != nil {
			t.Fatalf("Ошибка импорта %s: %v", name, err)
		}
	}

	// Удаляем средний трек
	middle := lib.Tracks()[1]
	if err := lib.Remove(ctx, middle.ID); err != nil {
		t.Fatalf("Ошибка удаления трека: %v", err)
	}

	if lib.Len() != 2 {
		t.Fatalf("Ожидалось 2 трека после удаления, получено %d", lib.Len())
	}

	// Нумерация остается плотной и в памяти, и в хранилище
	for i, track := range lib.Tracks() {
		if track.Order != i {
			t.Errorf("Трек %d: ожидался Order %d, получено %d", i, i, track.Order)
		}
	}
	records, err := st.ListAll(ctx)
	if err != nil {
		t.Fatalf("Ошибка чтения записей: %v", err)
	}
	orders := map[int]bool{}
	for _, rec := range records {
		orders[rec.Order] = true
	}
	if !orders[0] || !orders[1] || len(orders) != 2 {
		t.Errorf("Нумерация в хранилище не плотная: %v", orders)
	}
}

func TestRemoveNotFound(t *testing.T) {
	lib, _ := newTestLibrary(t)

	err := lib.Remove(context.Background(), "no-such-id")
	if !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Ожидалась ошибка ErrTrackNotFound, получено: %v", err)
	}
}

func TestMoveReordersTracks(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	srcDir := t.TempDir()

	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		if _, err := lib.Import(ctx, writeFakeMP3(t, srcDir, name)); err != nil {
			t.Fatalf("Ошибка импорта %s: %v", name, err)
		}
	}

	// Переставляем первый трек в конец
	if err := lib.Move(ctx, 0, 2); err != nil {
		t.Fatalf("Ошибка перестановки: %v", err)
	}

	names := []string{lib.Tracks()[0].Name, lib.Tracks()[1].Name, lib.Tracks()[2].Name}
	expected := []string{"b", "c", "a"}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Позиция %d: ожидалось %s, получено %s", i, expected[i], names[i])
		}
	}

	// Нумерация пересчитана
	for i, track := range lib.Tracks() {
		if track.Order != i {
			t.Errorf("Трек %d: ожидался Order %d, получено %d", i, i, track.Order)
		}
	}
}

func TestMoveInvalidPositions(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	if _, err := lib.Import(ctx, writeFakeMP3(t, t.TempDir(), "a.mp3")); err != nil {
		t.Fatalf("Ошибка импорта: %v", err)
	}

	if err := lib.Move(ctx, 0, 5); err == nil {
		t.Error("Ожидалась ошибка при перестановке за пределы библиотеки")
	}
	if err := lib.Move(ctx, -1, 0); err == nil {
		t.Error("Ожидалась ошибка при отрицательной позиции")
	}
}

func TestHydrateRepairsCorruptedOrder(t *testing.T) {
	lib, st := newTestLibrary(t)
	ctx := context.Background()

	// Записываем в хранилище треки с поврежденной нумерацией:
	// дубликат order и пропуск
	records := []*store.TrackRecord{
		{ID: "bbb", Name: "Второй дубликат", AudioRef: "audio/bbb.mp3", Order: 5},
		{ID: "aaa", Name: "Первый дубликат", AudioRef: "audio/aaa.mp3", Order: 5},
		{ID: "ccc", Name: "Младший порядок", AudioRef: "audio/ccc.mp3", Order: 2},
	}
	for _, rec := range records {
		if err := st.Put(ctx, rec); err != nil {
			t.Fatalf("Ошибка сохранения записи: %v", err)
		}
	}

	if err := lib.Hydrate(ctx); err != nil {
		t.Fatalf("Ошибка гидратации: %v", err)
	}

	// Ожидаемый порядок: сначала меньший order, при равных побеждает меньший id
	expected := []string{"ccc", "aaa", "bbb"}
	for i, id := range expected {
		track := lib.Tracks()[i]
		if track.ID != id {
			t.Errorf("Позиция %d: ожидался трек %s, получено %s", i, id, track.ID)
		}
		if track.Order != i {
			t.Errorf("Трек %s: ожидался Order %d, получено %d", track.ID, i, track.Order)
		}
	}

	// Исправленная нумерация дозаписана в хранилище
	loaded, err := st.ListAll(ctx)
	if err != nil {
		t.Fatalf("Ошибка чтения записей: %v", err)
	}
	for _, rec := range loaded {
		index := lib.IndexOf(rec.ID)
		if rec.Order != index {
			t.Errorf("Трек %s: в хранилище Order %d, в библиотеке индекс %d", rec.ID, rec.Order, index)
		}
	}
}

func TestHydrateIsIdempotent(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	srcDir := t.TempDir()

	if _, err := lib.Import(ctx, writeFakeMP3(t, srcDir, "a.mp3")); err != nil {
		t.Fatalf("Ошибка импорта: %v", err)
	}

	// Повторная гидратация дает то же состояние
	if err := lib.Hydrate(ctx); err != nil {
		t.Fatalf("Ошибка гидратации: %v", err)
	}
	if lib.Len() != 1 {
		t.Errorf("Ожидался 1 трек после гидратации, получено %d", lib.Len())
	}
	if lib.Tracks()[0].AudioPath == "" {
		t.Error("Путь воспроизведения не восстановлен при гидратации")
	}
}

func TestHydrateProvisionsPlaceholderCover(t *testing.T) {
	lib, st := newTestLibrary(t)
	ctx := context.Background()

	placeholder := filepath.Join(st.Dir(), "placeholder.png")
	if _, err := os.Stat(placeholder); err == nil {
		t.Fatal("Заглушка обложки не должна существовать до гидратации")
	}

	if err := lib.Hydrate(ctx); err != nil {
		t.Fatalf("Ошибка гидратации: %v", err)
	}

	// Файл заглушки создан, путь выдается треку без обложки
	info, err := os.Stat(placeholder)
	if err != nil {
		t.Fatalf("Заглушка обложки не создана: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Файл заглушки обложки пуст")
	}

	track, err := lib.Import(ctx, writeFakeMP3(t, t.TempDir(), "a.mp3"))
	if err != nil {
		t.Fatalf("Ошибка импорта: %v", err)
	}
	if track.CoverPath != placeholder {
		t.Errorf("Ожидался путь заглушки %s, получено: %s", placeholder, track.CoverPath)
	}
}

func TestFavoritesIsDerivedView(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	srcDir := t.TempDir()

	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		if _, err := lib.Import(ctx, writeFakeMP3(t, srcDir, name)); err != nil {
			t.Fatalf("Ошибка импорта %s: %v", name, err)
		}
	}

	// Отмечаем первый и третий треки
	if _, err := lib.ToggleFavorite(ctx, lib.Tracks()[0].ID); err != nil {
		t.Fatalf("Ошибка отметки избранного: %v", err)
	}
	if _, err := lib.ToggleFavorite(ctx, lib.Tracks()[2].ID); err != nil {
		t.Fatalf("Ошибка отметки избранного: %v", err)
	}

	favorites := lib.Favorites()
	if len(favorites) != 2 {
		t.Fatalf("Ожидалось 2 избранных трека, получено %d", len(favorites))
	}

	// Выборка сохраняет порядок библиотеки
	if favorites[0].Name != "a" || favorites[1].Name != "c" {
		t.Errorf("Избранное в неверном порядке: %s, %s", favorites[0].Name, favorites[1].Name)
	}

	// Повторное переключение убирает трек из выборки
	if _, err := lib.ToggleFavorite(ctx, lib.Tracks()[0].ID); err != nil {
		t.Fatalf("Ошибка снятия избранного: %v", err)
	}
	if len(lib.Favorites()) != 1 {
		t.Errorf("Ожидался 1 избранный трек, получено %d", len(lib.Favorites()))
	}
}

func TestAddTimestampLabels(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	track, err := lib.Import(ctx, writeFakeMP3(t, t.TempDir(), "a.mp3"))
	if err != nil {
		t.Fatalf("Ошибка импорта: %v", err)
	}

	// Метки нумеруются по текущему количеству закладок
	first, err := lib.AddTimestamp(ctx, track.ID, 10)
	if err != nil {
		t.Fatalf("Ошибка добавления закладки: %v", err)
	}
	if first.Label != "علامة 1" {
		t.Errorf("Ожидалась метка: علامة 1, получено: %s", first.Label)
	}

	second, err := lib.AddTimestamp(ctx, track.ID, 20)
	if err != nil {
		t.Fatalf("Ошибка добавления закладки: %v", err)
	}
	if second.Label != "علامة 2" {
		t.Errorf("Ожидалась метка: علامة 2, получено: %s", second.Label)
	}

	// После удаления закладки существующие метки не перенумеровываются
	if err := lib.RemoveTimestamp(ctx, track.ID, first.ID); err != nil {
		t.Fatalf("Ошибка удаления закладки: %v", err)
	}
	remaining := lib.Tracks()[0].Timestamps
	if len(remaining) != 1 || remaining[0].Label != "علامة 2" {
		t.Errorf("Ожидалась одна закладка علامة 2, получено: %+v", remaining)
	}
}

func TestUpdateIgnoresEmptyName(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	track, err := lib.Import(ctx, writeFakeMP3(t, t.TempDir(), "original.mp3"))
	if err != nil {
		t.Fatalf("Ошибка импорта: %v", err)
	}

	// Пустое имя (включая пробелы) игнорируется
	empty := "   "
	updated, err := lib.Update(ctx, track.ID, Patch{Name: &empty})
	if err != nil {
		t.Fatalf("Ошибка обновления: %v", err)
	}
	if updated.Name != "original" {
		t.Errorf("Ожидалось неизменное Name: original, получено: %s", updated.Name)
	}

	// Непустое имя применяется с обрезкой пробелов
	name := "  ترنيمة جديدة  "
	updated, err = lib.Update(ctx, track.ID, Patch{Name: &name})
	if err != nil {
		t.Fatalf("Ошибка обновления: %v", err)
	}
	if updated.Name != "ترنيمة جديدة" {
		t.Errorf("Ожидалось Name: ترنيمة جديدة, получено: %s", updated.Name)
	}
}

func TestUpdatePersistsPlaybackRate(t *testing.T) {
	lib, st := newTestLibrary(t)
	ctx := context.Background()

	track, err := lib.Import(ctx, writeFakeMP3(t, t.TempDir(), "a.mp3"))
	if err != nil {
		t.Fatalf("Ошибка импорта: %v", err)
	}

	rate := 1.5
	if _, err := lib.Update(ctx, track.ID, Patch{PlaybackRate: &rate}); err != nil {
		t.Fatalf("Ошибка обновления: %v", err)
	}

	records, err := st.ListAll(ctx)
	if err != nil {
		t.Fatalf("Ошибка чтения записей: %v", err)
	}
	if len(records) != 1 || records[0].PlaybackRate != 1.5 {
		t.Errorf("Скорость не сохранилась в хранилище: %+v", records)
	}
}

func TestUpdateNotFound(t *testing.T) {
	lib, _ := newTestLibrary(t)

	name := "имя"
	_, err := lib.Update(context.Background(), "no-such-id", Patch{Name: &name})
	if !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Ожидалась ошибка ErrTrackNotFound, получено: %v", err)
	}
}

func TestSetCover(t *testing.T) {
	lib, st := newTestLibrary(t)
	ctx := context.Background()
	srcDir := t.TempDir()
	placeholder := filepath.Join(st.Dir(), "placeholder.png")

	track, err := lib.Import(ctx, writeFakeMP3(t, srcDir, "a.mp3"))
	if err != nil {
		t.Fatalf("Ошибка импорта: %v", err)
	}

	// До установки обложки путь указывает на заглушку
	if track.CoverPath != placeholder {
		t.Errorf("Ожидалась заглушка обложки, получено: %s", track.CoverPath)
	}

	updated, err := lib.SetCover(ctx, track.ID, writeFakePNG(t, srcDir, "cover.png"))
	if err != nil {
		t.Fatalf("Ошибка установки обложки: %v", err)
	}
	if updated.CoverRef == "" {
		t.Error("Ожидалась непустая ссылка на обложку")
	}
	if updated.CoverPath == placeholder {
		t.Error("Путь обложки не обновился после установки")
	}
}

func TestSetCoverRejectsNonImage(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()
	srcDir := t.TempDir()

	track, err := lib.Import(ctx, writeFakeMP3(t, srcDir, "a.mp3"))
	if err != nil {
		t.Fatalf("Ошибка импорта: %v", err)
	}

	path := filepath.Join(srcDir, "not-image.txt")
	if err := os.WriteFile(path, []byte("текст вместо изображения"), 0644); err != nil {
		t.Fatalf("Ошибка создания тестового файла: %v", err)
	}

	_, err = lib.SetCover(ctx, track.ID, path)
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("Ожидалась ошибка ErrUnsupportedImage, получено: %v", err)
	}

	// Обложка трека не изменилась
	if lib.Tracks()[0].CoverRef != "" {
		t.Error("Ссылка на обложку не должна была измениться")
	}
}

func TestIndexOf(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	track, err := lib.Import(ctx, writeFakeMP3(t, t.TempDir(), "a.mp3"))
	if err != nil {
		t.Fatalf("Ошибка импорта: %v", err)
	}

	if index := lib.IndexOf(track.ID); index != 0 {
		t.Errorf("Ожидался индекс 0, получено %d", index)
	}
	if index := lib.IndexOf("no-such-id"); index != -1 {
		t.Errorf("Ожидался индекс -1 для несуществующего id, получено %d", index)
	}
}
