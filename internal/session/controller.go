// Package session содержит контроллер сессии воспроизведения: текущий трек,
// транспортное состояние и машину состояний по событиям примитива
package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hazadus/taraneem/internal/library"
	"github.com/hazadus/taraneem/internal/playback"
)

// State состояние сессии воспроизведения
type State int

// Состояния машины
const (
	// StateIdle нет текущего трека
	StateIdle State = iota
	// StateLoading трек привязан, но еще не готов к воспроизведению
	StateLoading
	// StateReadyPaused трек готов, воспроизведение остановлено
	StateReadyPaused
	// StateReadyPlaying трек воспроизводится
	StateReadyPlaying
	// StateBuffering воспроизведение шло и застряло
	StateBuffering
	// StateErrored загрузка трека завершилась ошибкой
	StateErrored
)

// Ошибки контроллера
var (
	// ErrIndexOutOfRange выбран несуществующий индекс трека
	ErrIndexOutOfRange = errors.New("индекс трека вне диапазона")
	// ErrUnsupportedRate запрошена скорость вне допустимого набора
	ErrUnsupportedRate = errors.New("недопустимая скорость воспроизведения")
)

// ValidRates допустимые скорости воспроизведения
var ValidRates = []float64{0.5, 1.0, 1.5, 2.0}

// noGen поколение, которому не соответствует ни одно событие примитива
const noGen = -1

// Controller контроллер сессии воспроизведения. Владеет текущим индексом
// и транспортным состоянием; коллекцию треков изменяет только через
// операции библиотеки. Не потокобезопасен: все вызовы, включая
// HandleEvent, должны приходить из одного цикла событий.
type Controller struct {
	lib    *library.Library
	prim   playback.Primitive
	logger *zap.Logger

	state        State
	currentIndex int
	gen          int
	wantPlay     bool
	isLooping    bool
	rate         float64
	currentTime  float64
	loadErr      error
}

// New создает контроллер сессии
func New(lib *library.Library, prim playback.Primitive, logger *zap.Logger) *Controller {
	return &Controller{
		lib:          lib,
		prim:         prim,
		logger:       logger,
		state:        StateIdle,
		currentIndex: -1,
		gen:          noGen,
		rate:         library.DefaultPlaybackRate,
	}
}

// State возвращает текущее состояние машины
func (c *Controller) State() State {
	return c.state
}

// CurrentIndex возвращает индекс текущего трека или -1
func (c *Controller) CurrentIndex() int {
	return c.currentIndex
}

// CurrentTrack возвращает текущий трек
func (c *Controller) CurrentTrack() (*library.Track, bool) {
	return c.lib.TrackAt(c.currentIndex)
}

// CurrentTime возвращает текущую позицию воспроизведения в секундах
func (c *Controller) CurrentTime() float64 {
	return c.currentTime
}

// Rate возвращает текущую скорость воспроизведения
func (c *Controller) Rate() float64 {
	return c.rate
}

// IsLooping возвращает признак повтора текущего трека
func (c *Controller) IsLooping() bool {
	return c.isLooping
}

// IsPlaying возвращает признак активного воспроизведения
func (c *Controller) IsPlaying() bool {
	return c.state == StateReadyPlaying || c.state == StateBuffering
}

// LoadError возвращает ошибку загрузки текущего трека
func (c *Controller) LoadError() error {
	return c.loadErr
}

// SelectInitial привязывает первый трек библиотеки без автозапуска.
// Вызывается один раз после гидратации.
func (c *Controller) SelectInitial() {
	if c.lib.Len() == 0 {
		return
	}
	c.bind(0, false)
}

// SelectTrack делает трек с указанным индексом текущим и запускает
// воспроизведение. Несуществующий индекс — ошибка логики вызывающего.
func (c *Controller) SelectTrack(index int) error {
	if index < 0 || index >= c.lib.Len() {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	c.bind(index, true)
	return nil
}

// bind привязывает трек по индексу к примитиву. Поколение загрузки
// запоминается: события прежних привязок с этого момента игнорируются.
func (c *Controller) bind(index int, autoplay bool) {
	track, _ := c.lib.TrackAt(index)

	c.currentIndex = index
	c.wantPlay = autoplay
	c.currentTime = 0
	c.loadErr = nil
	c.rate = track.PlaybackRate
	if c.rate == 0 {
		c.rate = library.DefaultPlaybackRate
	}
	c.state = StateLoading
	c.gen = c.prim.Load(track.AudioPath)

	c.logger.Debug("трек привязан",
		zap.String("id", track.ID),
		zap.Int("index", index),
		zap.Bool("autoplay", autoplay))
}

// unbind освобождает привязку и переводит сессию в Idle
func (c *Controller) unbind() {
	c.prim.Stop()
	c.currentIndex = -1
	c.gen = noGen
	c.wantPlay = false
	c.currentTime = 0
	c.loadErr = nil
	c.state = StateIdle
}

// TogglePlayPause переключает воспроизведение и паузу.
// В Idle и Errored ничего не делает.
func (c *Controller) TogglePlayPause() {
	switch c.state {
	case StateIdle, StateErrored:
		return
	case StateLoading:
		// Готовность еще не наступила, меняем только желаемое состояние
		c.wantPlay = !c.wantPlay
	case StateReadyPlaying, StateBuffering:
		c.prim.Pause()
		c.wantPlay = false
		c.state = StateReadyPaused
	case StateReadyPaused:
		// Отказ платформы запустить воспроизведение оставляет паузу
		if err := c.prim.Play(); err != nil {
			c.logger.Warn("воспроизведение не запустилось", zap.Error(err))
			return
		}
		c.wantPlay = true
		c.state = StateReadyPlaying
	}
}

// Seek перематывает текущий трек на позицию в секундах с усечением границ.
// До готовности трека и в состоянии ошибки перемотка игнорируется.
func (c *Controller) Seek(seconds float64) {
	switch c.state {
	case StateReadyPaused, StateReadyPlaying, StateBuffering:
	default:
		return
	}

	if seconds < 0 {
		seconds = 0
	}
	duration := c.duration()
	if duration > 0 && seconds > duration {
		seconds = duration
	}

	if err := c.prim.Seek(seconds); err != nil {
		c.logger.Warn("ошибка перемотки", zap.Error(err))
		return
	}
	c.currentTime = seconds
}

// Skip сдвигает позицию на delta секунд. Выход за конец трека усекается
// до длительности и не вызывает автопереход.
func (c *Controller) Skip(delta float64) {
	if c.currentIndex == -1 {
		return
	}
	c.Seek(c.currentTime + delta)
}

// duration длительность текущего трека: из библиотеки, а до первой
// загрузки метаданных — от примитива
func (c *Controller) duration() float64 {
	if track, ok := c.lib.TrackAt(c.currentIndex); ok && track.Duration > 0 {
		return track.Duration
	}
	return c.prim.Duration()
}

// SetRate применяет скорость воспроизведения к примитиву и сохраняет
// ее как предпочтительную скорость текущего трека
func (c *Controller) SetRate(ctx context.Context, rate float64) error {
	valid := false
	for _, r := range ValidRates {
		if r == rate {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: %g", ErrUnsupportedRate, rate)
	}

	c.prim.SetRate(rate)
	c.rate = rate

	track, ok := c.CurrentTrack()
	if !ok {
		return nil
	}
	if _, err := c.lib.Update(ctx, track.ID, library.Patch{PlaybackRate: &rate}); err != nil {
		return fmt.Errorf("ошибка сохранения скорости: %w", err)
	}
	return nil
}

// ToggleLoop переключает повтор текущего трека. Вступает в силу на
// следующем событии окончания, текущее воспроизведение не прерывается.
func (c *Controller) ToggleLoop() {
	c.isLooping = !c.isLooping
}

// Retry повторяет загрузку трека после ошибки
func (c *Controller) Retry() {
	if c.state != StateErrored || c.currentIndex == -1 {
		return
	}
	c.bind(c.currentIndex, true)
}

// Import добавляет файл в библиотеку; новый трек становится текущим
// и сразу начинает воспроизводиться
func (c *Controller) Import(ctx context.Context, filePath string) (*library.Track, error) {
	track, err := c.lib.Import(ctx, filePath)
	if err != nil {
		return nil, err
	}
	c.bind(c.lib.Len()-1, true)
	return track, nil
}

// RemoveTrack удаляет трек из библиотеки и приводит текущий индекс
// в корректное состояние: он либо указывает на существующий трек,
// либо сбрасывается при опустевшей библиотеке
func (c *Controller) RemoveTrack(ctx context.Context, id string) error {
	removedIndex := c.lib.IndexOf(id)
	wasCurrent := removedIndex == c.currentIndex

	if err := c.lib.Remove(ctx, id); err != nil {
		return err
	}

	switch {
	case c.currentIndex == -1:
		// Нечего поправлять
	case c.lib.Len() == 0:
		c.unbind()
	case wasCurrent:
		index := c.currentIndex
		if index >= c.lib.Len() {
			index = c.lib.Len() - 1
		}
		c.bind(index, c.wantPlay)
	case removedIndex < c.currentIndex:
		// Текущий трек сдвинулся на позицию влево, привязка не меняется
		c.currentIndex--
	}
	return nil
}

// Reorder переставляет трек в библиотеке. Текущим остается тот же трек:
// индекс пересчитывается по id после перестановки.
func (c *Controller) Reorder(ctx context.Context, from, to int) error {
	var currentID string
	if track, ok := c.CurrentTrack(); ok {
		currentID = track.ID
	}

	if err := c.lib.Move(ctx, from, to); err != nil {
		return err
	}

	if currentID != "" {
		c.currentIndex = c.lib.IndexOf(currentID)
	}
	return nil
}

// HandleEvent применяет событие примитива к машине состояний.
// События от отмененных загрузок (несовпадающее поколение) игнорируются.
func (c *Controller) HandleEvent(ctx context.Context, ev playback.Event) {
	if ev.Gen != c.gen {
		return
	}

	switch ev.Kind {
	case playback.EventTimeAdvanced:
		c.currentTime = ev.Position

	case playback.EventMetadataLoaded:
		c.applyMetadata(ctx, ev.Duration)

	case playback.EventCanPlay:
		c.loadErr = nil
		if !c.wantPlay {
			c.state = StateReadyPaused
			return
		}
		if err := c.prim.Play(); err != nil {
			c.logger.Warn("воспроизведение не запустилось", zap.Error(err))
			c.wantPlay = false
			c.state = StateReadyPaused
			return
		}
		c.state = StateReadyPlaying

	case playback.EventBufferingStarted:
		if c.state == StateReadyPlaying {
			c.state = StateBuffering
		}

	case playback.EventBufferingEnded:
		if c.state == StateBuffering {
			c.state = StateReadyPlaying
		}

	case playback.EventEnded:
		c.handleEnded()

	case playback.EventError:
		c.logger.Error("ошибка загрузки трека", zap.Error(ev.Err))
		c.wantPlay = false
		c.loadErr = ev.Err
		c.state = StateErrored
	}
}

// applyMetadata записывает увиденную длительность обратно в библиотеку.
// Единственная мутация состояния библиотеки со стороны сессии, и она
// обязана идти через операцию обновления, а не мимо хранилища.
func (c *Controller) applyMetadata(ctx context.Context, duration float64) {
	track, ok := c.CurrentTrack()
	if !ok {
		return
	}
	if duration > 0 && duration != track.Duration {
		if _, err := c.lib.Update(ctx, track.ID, library.Patch{Duration: &duration}); err != nil {
			c.logger.Warn("ошибка сохранения длительности", zap.Error(err))
		}
	}
	// Предпочтительная скорость трека применяется при каждой привязке
	c.prim.SetRate(c.rate)
}

// handleEnded реализует поведение окончания трека: повтор того же трека
// либо автопереход на следующий по кругу
func (c *Controller) handleEnded() {
	if c.currentIndex == -1 {
		return
	}

	if c.isLooping {
		c.currentTime = 0
		if err := c.prim.Seek(0); err != nil {
			c.logger.Warn("ошибка перемотки при повторе", zap.Error(err))
		}
		if err := c.prim.Play(); err != nil {
			c.logger.Warn("повтор не запустился", zap.Error(err))
			c.wantPlay = false
			c.state = StateReadyPaused
			return
		}
		c.state = StateReadyPlaying
		return
	}

	// Автопереход по кругу: за последним треком следует первый,
	// единственный трек перезагружается и играет заново
	next := (c.currentIndex + 1) % c.lib.Len()
	c.bind(next, true)
}
