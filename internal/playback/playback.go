// Package playback содержит примитив воспроизведения: привязку одного
// аудиофайла с транспортными операциями и событиями жизненного цикла
package playback

// EventKind вид события жизненного цикла примитива
type EventKind int

// Полный набор событий, на которые реагирует контроллер сессии
const (
	// EventTimeAdvanced позиция воспроизведения продвинулась
	EventTimeAdvanced EventKind = iota
	// EventCanPlay трек загружен и готов к воспроизведению
	EventCanPlay
	// EventMetadataLoaded известна длительность трека
	EventMetadataLoaded
	// EventBufferingStarted воспроизведение застряло
	EventBufferingStarted
	// EventBufferingEnded воспроизведение возобновилось
	EventBufferingEnded
	// EventEnded трек доигран до конца
	EventEnded
	// EventError загрузка или декодирование завершились ошибкой
	EventError
)

// Event событие жизненного цикла. Gen — поколение загрузки, к которому
// относится событие: события от уже отмененных загрузок игнорируются.
type Event struct {
	Kind     EventKind
	Gen      int
	Position float64
	Duration float64
	Err      error
}

// Primitive контракт примитива воспроизведения. Load начинает асинхронную
// загрузку и возвращает поколение; все дальнейшие события несут его же.
// Stop освобождает текущую привязку, не закрывая примитив; события
// освобожденной привязки к этому моменту считаются недействительными.
type Primitive interface {
	Load(path string) int
	Play() error
	Pause()
	Stop()
	Seek(seconds float64) error
	SetRate(rate float64)
	Position() float64
	Duration() float64
	Events() <-chan Event
	Close() error
}
