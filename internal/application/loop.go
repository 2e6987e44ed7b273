package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/domain/port"
)

const (
	DefaultInterval = time.Second
	DefaultTimeout  = 5 * time.Second
)

// ErrLoopNotRunning команда пришла, когда цикл не запущен или уже остановлен
var ErrLoopNotRunning = errors.New("analysis loop is not running")

// LoopConfig параметры цикла анализа
type LoopConfig struct {
	Interval time.Duration // период тиков
	Timeout  time.Duration // окно ожидания ответа сервиса
	Explain  bool          // режим объяснения при старте
}

// cycleEvent сообщение от рабочей горутины цикла.
// stage равен StateDetecting после поиска лиц и StateAwaitingInference после ответа сервиса.
type cycleEvent struct {
	cycleID string
	stage   entity.CycleState
	frame   *entity.Frame
	faces   []entity.FaceRegion
	result  *entity.InferenceResult
	err     error
}

// snapshot последний успешно завершённый цикл
type snapshot struct {
	frame  *entity.Frame
	faces  []entity.FaceRegion
	result *entity.InferenceResult
}

// LoopController ведёт цикл кадр → лица → сервис → отрисовка.
// Одновременно выполняется не больше одного цикла.
type LoopController struct {
	clock    clock.Clock
	cfg      LoopConfig
	source   port.FrameSource
	model    port.FaceModel
	channel  port.InferenceChannel
	renderer port.Renderer
	logger   *zap.SugaredLogger
	newID    func() string

	events   chan cycleEvent
	commands chan func(ctx context.Context)
	ready    chan struct{}
	done     chan struct{}

	// Поля ниже меняет только горутина Run.
	locator port.FaceLocator
	current string
	last    *snapshot

	state   atomic.Value // entity.CycleState
	explain atomic.Bool

	statsMu sync.Mutex
	stats   entity.CycleStats
}

// NewLoopController создаёт контроллер цикла
func NewLoopController(
	clk clock.Clock,
	cfg LoopConfig,
	source port.FrameSource,
	model port.FaceModel,
	channel port.InferenceChannel,
	renderer port.Renderer,
	logger *zap.SugaredLogger,
) *LoopController {
	if clk == nil {
		clk = clock.New()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &LoopController{
		clock:    clk,
		cfg:      cfg,
		source:   source,
		model:    model,
		channel:  channel,
		renderer: renderer,
		logger:   logger,
		newID:    uuid.NewString,
		events:   make(chan cycleEvent),
		commands: make(chan func(ctx context.Context), 8),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
		stats:    entity.CycleStats{Failures: make(map[string]uint64)},
	}
	c.state.Store(entity.StateIdle)
	c.explain.Store(cfg.Explain)
	return c
}

// Run загружает модель поиска лиц и крутит цикл до отмены ctx.
// Ошибка загрузки модели возвращается сразу, ни один цикл не запускается.
func (c *LoopController) Run(ctx context.Context) error {
	defer close(c.done)

	locator, err := c.model.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrDetectionModelLoad, err)
	}
	c.locator = locator
	if cl, ok := locator.(io.Closer); ok {
		defer func() {
			if err := cl.Close(); err != nil {
				c.logger.Warnw("face locator close failed", "error", err)
			}
		}()
	}
	c.logger.Infow("face detection model loaded", "interval", c.cfg.Interval, "timeout", c.cfg.Timeout)

	ticker := c.clock.Ticker(c.cfg.Interval)
	defer ticker.Stop()
	close(c.ready)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.tick(ctx)
		case ev := <-c.events:
			c.handle(ctx, ev)
		case cmd := <-c.commands:
			cmd(ctx)
		}
	}
}

// Ready закрывается, когда модель загружена и таймер запущен
func (c *LoopController) Ready() <-chan struct{} {
	return c.ready
}

// State возвращает текущее состояние цикла
func (c *LoopController) State() entity.CycleState {
	return c.state.Load().(entity.CycleState)
}

// Explain сообщает, включён ли режим объяснения
func (c *LoopController) Explain() bool {
	return c.explain.Load()
}

// Stats возвращает копию счётчиков
func (c *LoopController) Stats() entity.CycleStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	out := c.stats
	out.Failures = make(map[string]uint64, len(c.stats.Failures))
	for k, v := range c.stats.Failures {
		out.Failures[k] = v
	}
	return out
}

// SetExplain переключает режим объяснения и перерисовывает последний результат.
// Сохранённое объяснение при выключении не теряется.
func (c *LoopController) SetExplain(ctx context.Context, on bool) error {
	return c.submit(ctx, func(ctx context.Context) {
		c.applyExplain(ctx, on)
	})
}

// ToggleExplain инвертирует режим объяснения в горутине Run и возвращает новое значение
func (c *LoopController) ToggleExplain(ctx context.Context) (bool, error) {
	reply := make(chan bool, 1)
	err := c.submit(ctx, func(ctx context.Context) {
		on := !c.explain.Load()
		c.applyExplain(ctx, on)
		reply <- on
	})
	if err != nil {
		return false, err
	}

	select {
	case on := <-reply:
		return on, nil
	case <-c.done:
		return false, ErrLoopNotRunning
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// submit передаёт команду в горутину Run. До запуска и после остановки цикла команды отклоняются.
func (c *LoopController) submit(ctx context.Context, cmd func(ctx context.Context)) error {
	select {
	case <-c.ready:
	default:
		return ErrLoopNotRunning
	}
	select {
	case <-c.done:
		return ErrLoopNotRunning
	default:
	}

	select {
	case c.commands <- cmd:
		return nil
	case <-c.done:
		return ErrLoopNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *LoopController) applyExplain(ctx context.Context, on bool) {
	if c.explain.Swap(on) == on {
		return
	}
	c.logger.Infow("explanation view switched", "on", on)
	if c.last != nil {
		c.render(ctx, port.RenderInput{
			Frame:  c.last.frame,
			Faces:  c.last.faces,
			Result: c.last.result,
		})
	}
}

// tick запускает новый цикл, если предыдущий завершён
func (c *LoopController) tick(ctx context.Context) {
	c.count(func(s *entity.CycleStats) { s.Ticks++ })

	if c.State().Busy() {
		c.count(func(s *entity.CycleStats) { s.SkippedTicks++ })
		c.logger.Debugw("tick skipped, cycle in flight", "cycle", c.current, "state", c.State())
		return
	}

	frame, err := c.source.CurrentFrame(ctx)
	if err != nil {
		c.count(func(s *entity.CycleStats) { s.Unavailable++ })
		if !errors.Is(err, entity.ErrSourceUnavailable) {
			c.logger.Warnw("frame source failed", "error", err)
		}
		return
	}

	c.current = c.newID()
	c.setState(entity.StateDetecting)
	c.count(func(s *entity.CycleStats) { s.Cycles++ })

	go c.detect(ctx, c.current, frame)
}

// detect ищет лица в рабочей горутине и возвращает результат в Run
func (c *LoopController) detect(ctx context.Context, id string, frame *entity.Frame) {
	faces, err := c.locator.Locate(ctx, frame)
	if err != nil && !errors.Is(err, entity.ErrDetection) {
		err = fmt.Errorf("%w: %v", entity.ErrDetection, err)
	}
	c.send(ctx, cycleEvent{cycleID: id, stage: entity.StateDetecting, frame: frame, faces: faces, err: err})
}

// infer обращается к сервису в рабочей горутине.
// Окно ожидания ограничено здесь же, даже если канал его не соблюдает.
func (c *LoopController) infer(ctx context.Context, id string, frame *entity.Frame, faces []entity.FaceRegion) {
	ictx, cancel := c.clock.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	type outcome struct {
		result *entity.InferenceResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := c.channel.Infer(ictx, entity.InferenceRequest{CycleID: id, Image: frame.DataURI()})
		done <- outcome{result: result, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ictx.Done():
		if ctx.Err() != nil {
			return
		}
		out.err = fmt.Errorf("%w: no response within %s", entity.ErrChannelTimeout, c.cfg.Timeout)
	}

	if out.err == nil && out.result == nil {
		out.err = fmt.Errorf("%w: empty result", entity.ErrProtocol)
	}
	c.send(ctx, cycleEvent{
		cycleID: id,
		stage:   entity.StateAwaitingInference,
		frame:   frame,
		faces:   faces,
		result:  out.result,
		err:     out.err,
	})
}

func (c *LoopController) send(ctx context.Context, ev cycleEvent) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

// handle применяет сообщение рабочей горутины в горутине Run
func (c *LoopController) handle(ctx context.Context, ev cycleEvent) {
	if ev.cycleID != c.current {
		c.count(func(s *entity.CycleStats) { s.Stale++ })
		c.logger.Debugw("stale cycle event dropped", "cycle", ev.cycleID, "current", c.current)
		return
	}

	switch ev.stage {
	case entity.StateDetecting:
		if ev.err != nil {
			c.fail(ev.cycleID, ev.err)
			// Кадр без найденных лиц всё равно показываем, но в сервис не отправляем.
			c.render(ctx, port.RenderInput{Frame: ev.frame})
			c.finish()
			return
		}
		c.logger.Debugw("faces located", "cycle", ev.cycleID, "faces", len(ev.faces))
		c.setState(entity.StateAwaitingInference)
		go c.infer(ctx, ev.cycleID, ev.frame, ev.faces)

	case entity.StateAwaitingInference:
		if ev.err != nil {
			c.fail(ev.cycleID, ev.err)
			c.render(ctx, port.RenderInput{Frame: ev.frame, Faces: ev.faces})
			c.finish()
			return
		}
		c.last = &snapshot{frame: ev.frame, faces: ev.faces, result: ev.result}
		c.count(func(s *entity.CycleStats) { s.Successes++ })
		c.logger.Debugw("inference applied", "cycle", ev.cycleID, "emotion", ev.result.Dominant)
		c.render(ctx, port.RenderInput{Frame: ev.frame, Faces: ev.faces, Result: ev.result, Fresh: true})
		c.finish()
	}
}

func (c *LoopController) fail(id string, err error) {
	kind := entity.FailureKind(err)
	c.count(func(s *entity.CycleStats) { s.Failures[kind]++ })
	c.logger.Warnw("cycle failed", "cycle", id, "kind", kind, "error", err)
}

func (c *LoopController) finish() {
	c.current = ""
	c.setState(entity.StateIdle)
}

func (c *LoopController) render(ctx context.Context, in port.RenderInput) {
	in.Explain = c.explain.Load()
	if err := c.renderer.Render(ctx, in); err != nil {
		c.logger.Warnw("render failed", "error", err)
	}
}

func (c *LoopController) setState(s entity.CycleState) {
	c.state.Store(s)
}

func (c *LoopController) count(fn func(s *entity.CycleStats)) {
	c.statsMu.Lock()
	fn(&c.stats)
	c.statsMu.Unlock()
}
