package container

import (
	"context"
	"errors"
	"io"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"emotiscan/config"
	"emotiscan/internal/api/rest"
	"emotiscan/internal/api/telegram"
	app "emotiscan/internal/application"
	"emotiscan/internal/domain/port"
	"emotiscan/internal/infrastructure/console"
	"emotiscan/internal/infrastructure/display"
	"emotiscan/internal/infrastructure/render"
	"emotiscan/internal/infrastructure/source"
	"emotiscan/internal/infrastructure/storage"
)

// Deps внешние зависимости, которые создаются в main
type Deps struct {
	Clock   clock.Clock
	Camera  port.Camera // может быть nil
	Model   port.FaceModel
	Channel port.InferenceChannel
	Console io.Writer // шкалы в консоли, nil выключает
	Logger  *zap.SugaredLogger
}

type Container struct {
	Sources     *app.SourceSelector
	Subscribers *app.SubscriberService
	Scoreboard  *storage.MemoryScoreboard
	Canvas      *display.Canvas
	Renderer    *render.OverlayRenderer
	Loop        *app.LoopController
	Watcher     *source.FileWatcher
	HTTP        *rest.Server
	Bot         *telegram.Bot

	camera port.Camera
	logger *zap.SugaredLogger
}

func New(cfg *config.Config, d Deps) (*Container, error) {
	clk := d.Clock
	if clk == nil {
		clk = clock.New()
	}

	sources := app.NewSourceSelector(d.Camera)
	scoreboard := storage.NewMemoryScoreboard()
	canvas := display.NewCanvas(clk, cfg.RepaintInterval, cfg.OutputPath, d.Logger.Named("display"))

	presenters := []port.Presenter{scoreboard}
	if d.Console != nil {
		presenters = append(presenters, console.NewBarPresenter(d.Console))
	}
	renderer, err := render.NewOverlayRenderer(canvas, d.Logger.Named("render"), presenters...)
	if err != nil {
		return nil, err
	}

	loop := app.NewLoopController(clk, app.LoopConfig{
		Interval: cfg.TickInterval,
		Timeout:  cfg.InferenceTimeout,
		Explain:  cfg.Explain,
	}, sources, d.Model, d.Channel, renderer, d.Logger.Named("loop"))

	c := &Container{
		Sources:     sources,
		Subscribers: app.NewSubscriberService(storage.NewMemorySubscriberRepository()),
		Scoreboard:  scoreboard,
		Canvas:      canvas,
		Renderer:    renderer,
		Loop:        loop,
		camera:      d.Camera,
		logger:      d.Logger,
	}

	if cfg.StillImagePath != "" {
		c.Watcher = source.NewFileWatcher(cfg.StillImagePath, sources, d.Logger.Named("watcher"))
	}
	if cfg.HTTPAddr != "" {
		c.HTTP = rest.NewServer(cfg.HTTPAddr, loop, sources, scoreboard, canvas, d.Logger.Named("http"))
	}

	return c, nil
}

// AttachBot подключает Telegram-бота как получателя оценок
func (c *Container) AttachBot(bot *telegram.Bot) {
	c.Bot = bot
	c.Renderer.AddPresenter(bot)
}

// Run запускает все компоненты и ждёт их завершения.
// Ошибка любого компонента останавливает остальные.
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return quiet(c.Loop.Run(ctx)) })
	g.Go(func() error { return quiet(c.Canvas.Run(ctx)) })
	if c.Watcher != nil {
		g.Go(func() error { return quiet(c.Watcher.Run(ctx)) })
	}
	if c.HTTP != nil {
		g.Go(func() error { return quiet(c.HTTP.Run(ctx)) })
	}
	if c.Bot != nil {
		g.Go(func() error { return quiet(c.Bot.Run(ctx)) })
	}

	return g.Wait()
}

// Close освобождает камеру
func (c *Container) Close() error {
	var errs error
	if c.camera != nil {
		errs = multierr.Append(errs, c.camera.Close())
	}
	return errs
}

// quiet не считает отмену контекста ошибкой
func quiet(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
