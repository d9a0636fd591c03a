package playback

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// outputRate единая частота динамиков; треки с другой частотой
// приводятся к ней ресемплером
const outputRate = beep.SampleRate(44100)

// resampleQuality качество ресемплера beep
const resampleQuality = 4

// BeepPlayer реализация примитива воспроизведения поверх beep
type BeepPlayer struct {
	mu     sync.Mutex
	events chan Event
	closed chan struct{}

	// speakerReady выставляется только после успешного speaker.Init:
	// неудачная инициализация повторяется при следующей загрузке
	speakerReady bool

	gen           int
	rate          float64
	file          *os.File
	streamer      beep.StreamSeekCloser
	format        beep.Format
	resampler     *beep.Resampler
	ctrl          *beep.Ctrl
	drained       bool
	monitorCancel context.CancelFunc
}

// NewBeepPlayer создает примитив воспроизведения
func NewBeepPlayer() *BeepPlayer {
	return &BeepPlayer{
		events: make(chan Event, 64),
		closed: make(chan struct{}),
		rate:   1.0,
		gen:    0,
	}
}

// Events возвращает канал событий жизненного цикла
func (p *BeepPlayer) Events() <-chan Event {
	return p.events
}

// Load начинает асинхронную загрузку файла. Предыдущая привязка
// освобождается, ее еще не доставленные события теряют силу.
func (p *BeepPlayer) Load(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unbind()
	p.gen++
	gen := p.gen

	go p.load(gen, path)
	return gen
}

// load декодирует файл и привязывает его к динамикам
func (p *BeepPlayer) load(gen int, path string) {
	file, err := os.Open(path)
	if err != nil {
		p.emit(Event{Kind: EventError, Gen: gen, Err: fmt.Errorf("ошибка открытия файла: %w", err)})
		return
	}

	streamer, format, err := decode(file, path)
	if err != nil {
		file.Close()
		p.emit(Event{Kind: EventError, Gen: gen, Err: err})
		return
	}

	p.mu.Lock()
	if gen != p.gen {
		// Пока шла загрузка, выбрали другой трек
		p.mu.Unlock()
		streamer.Close()
		file.Close()
		return
	}

	if !p.speakerReady {
		if err := speaker.Init(outputRate, outputRate.N(time.Second/5)); err != nil {
			p.mu.Unlock()
			streamer.Close()
			file.Close()
			p.emit(Event{Kind: EventError, Gen: gen, Err: fmt.Errorf("ошибка инициализации динамиков: %w", err)})
			return
		}
		p.speakerReady = true
	}

	p.file = file
	p.streamer = streamer
	p.format = format
	p.resampler = beep.ResampleRatio(resampleQuality, p.ratio(), streamer)
	p.ctrl = &beep.Ctrl{Streamer: p.resampler, Paused: true}
	p.drained = false
	p.playSequence(gen)

	ctx, cancel := context.WithCancel(context.Background())
	p.monitorCancel = cancel
	go p.monitor(ctx, gen)

	duration := format.SampleRate.D(streamer.Len()).Seconds()
	p.mu.Unlock()

	p.emit(Event{Kind: EventMetadataLoaded, Gen: gen, Duration: duration})
	p.emit(Event{Kind: EventCanPlay, Gen: gen, Duration: duration})
}

// playSequence ставит текущую привязку в очередь динамиков.
// Callback исполняется под внутренней блокировкой динамиков, поэтому
// работа с состоянием плеера выносится в отдельную горутину.
func (p *BeepPlayer) playSequence(gen int) {
	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		go func() {
			p.mu.Lock()
			ended := gen == p.gen
			if ended {
				p.drained = true
			}
			p.mu.Unlock()
			if ended {
				p.emit(Event{Kind: EventEnded, Gen: gen})
			}
		}()
	})))
}

// ratio пересчет частоты трека в частоту динамиков с учетом скорости
func (p *BeepPlayer) ratio() float64 {
	return float64(p.format.SampleRate) / float64(outputRate) * p.rate
}

// Play запускает воспроизведение текущей привязки
func (p *BeepPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl == nil {
		return fmt.Errorf("нет загруженного трека")
	}

	if p.drained {
		// Доигранная последовательность уже снята с динамиков, ставим заново
		p.drained = false
		p.ctrl = &beep.Ctrl{Streamer: p.resampler, Paused: false}
		p.playSequence(p.gen)
		return nil
	}

	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause приостанавливает воспроизведение
func (p *BeepPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
}

// Stop освобождает текущую привязку без закрытия примитива
func (p *BeepPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unbind()
	p.gen++
}

// Seek перематывает на указанную позицию в секундах с усечением границ
func (p *BeepPlayer) Seek(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return nil
	}

	if seconds < 0 {
		seconds = 0
	}
	total := p.format.SampleRate.D(p.streamer.Len()).Seconds()
	if seconds > total {
		seconds = total
	}

	speaker.Lock()
	err := p.streamer.Seek(p.format.SampleRate.N(time.Duration(seconds * float64(time.Second))))
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("ошибка перемотки: %w", err)
	}
	return nil
}

// SetRate изменяет скорость воспроизведения
func (p *BeepPlayer) SetRate(rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.rate = rate
	if p.resampler != nil {
		speaker.Lock()
		p.resampler.SetRatio(p.ratio())
		speaker.Unlock()
	}
}

// Position возвращает текущую позицию трека в секундах
func (p *BeepPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	position := p.format.SampleRate.D(p.streamer.Position()).Seconds()
	speaker.Unlock()
	return position
}

// Duration возвращает длительность трека в секундах
func (p *BeepPlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Len()).Seconds()
}

// Close освобождает привязку и останавливает примитив
func (p *BeepPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unbind()
	p.gen++
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
	return nil
}

// unbind освобождает текущую привязку (вызывается под мьютексом)
func (p *BeepPlayer) unbind() {
	if p.monitorCancel != nil {
		p.monitorCancel()
		p.monitorCancel = nil
	}
	if p.ctrl != nil {
		speaker.Clear()
		p.ctrl = nil
		p.resampler = nil
	}
	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
	p.drained = false
}

// monitor следит за позицией воспроизведения: рассылает продвижение
// времени и распознает зависший поток как буферизацию
func (p *BeepPlayer) monitor(ctx context.Context, gen int) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastPosition := -1
	stuckCount := 0
	buffering := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			if gen != p.gen || p.streamer == nil {
				p.mu.Unlock()
				return
			}
			speaker.Lock()
			position := p.streamer.Position()
			paused := p.ctrl != nil && p.ctrl.Paused
			speaker.Unlock()
			seconds := p.format.SampleRate.D(position).Seconds()
			drained := p.drained
			p.mu.Unlock()

			if drained {
				continue
			}

			p.emitProgress(Event{Kind: EventTimeAdvanced, Gen: gen, Position: seconds})

			// Детектор зависшего потока: позиция не двигается при
			// активном воспроизведении несколько тиков подряд
			if !paused {
				if position == lastPosition {
					stuckCount++
				} else {
					stuckCount = 0
				}
			} else {
				stuckCount = 0
			}
			lastPosition = position

			if !buffering && stuckCount >= 3 {
				buffering = true
				p.emit(Event{Kind: EventBufferingStarted, Gen: gen, Position: seconds})
			} else if buffering && stuckCount == 0 {
				buffering = false
				p.emit(Event{Kind: EventBufferingEnded, Gen: gen, Position: seconds})
			}
		}
	}
}

// emit отправляет событие жизненного цикла
func (p *BeepPlayer) emit(ev Event) {
	select {
	case p.events <- ev:
	case <-p.closed:
	}
}

// emitProgress отправляет продвижение времени; при заполненном канале
// обновление пропускается
func (p *BeepPlayer) emitProgress(ev Event) {
	select {
	case p.events <- ev:
	default:
	}
}

// decode выбирает декодер по расширению файла
func decode(file *os.File, path string) (beep.StreamSeekCloser, beep.Format, error) {
	var streamer beep.StreamSeekCloser
	var format beep.Format
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		streamer, format, err = wav.Decode(file)
	case ".flac":
		streamer, format, err = flac.Decode(file)
	case ".ogg":
		streamer, format, err = vorbis.Decode(file)
	default:
		streamer, format, err = mp3.Decode(file)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("ошибка декодирования %s: %w", filepath.Base(path), err)
	}
	return streamer, format, nil
}
