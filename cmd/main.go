package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"emotiscan/config"
	"emotiscan/internal/api/telegram"
	"emotiscan/internal/container"
	"emotiscan/internal/domain/entity"
	"emotiscan/internal/domain/port"
	"emotiscan/internal/infrastructure/camera"
	"emotiscan/internal/infrastructure/inference"
	"emotiscan/internal/infrastructure/source"
	"emotiscan/internal/infrastructure/vision"
)

const version = "0.1.0"

// exitModelLoad код выхода, когда модель поиска лиц не загрузилась
const exitModelLoad = 3

var (
	imagePath  string
	explain    bool
	outputPath string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:           "emotiscan",
	Short:         "Real-time facial emotion client for a remote inference service",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&imagePath, "image", "", "analyse this still image instead of the camera")
	rootCmd.Flags().BoolVar(&explain, "explain", false, "start with the explanation view on")
	rootCmd.Flags().StringVar(&outputPath, "output", "", "save every painted composite to this PNG file")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "do not print score bars to stdout")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, entity.ErrDetectionModelLoad) {
			os.Exit(exitModelLoad)
		}
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("explain") {
		cfg.Explain = explain
	}
	if outputPath != "" {
		if err := config.ValidateOutputPath(outputPath); err != nil {
			return fmt.Errorf("--output: %w", err)
		}
		cfg.OutputPath = outputPath
	}

	base, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer base.Sync()
	logger := base.Sugar()

	var cam port.Camera
	if webcam, err := camera.OpenWebcam(cfg.CameraDevice); err != nil {
		logger.Warnw("camera unavailable, only still images will be analysed", "device", cfg.CameraDevice, "error", err)
	} else {
		cam = webcam
	}

	var console io.Writer = os.Stdout
	if quiet {
		console = nil
	}

	c, err := container.New(cfg, container.Deps{
		Camera:  cam,
		Model:   vision.NewCascadeModel(cfg.CascadePath),
		Channel: inference.NewWebsocketChannel(cfg.InferenceURL, cfg.InferenceTimeout, logger.Named("inference")),
		Console: console,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, c.Close())
	}()

	if imagePath != "" {
		if err := source.LoadStill(imagePath, c.Sources); err != nil {
			return fmt.Errorf("load image: %w", err)
		}
		logger.Infow("still image loaded", "path", imagePath)
	}

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, c.Subscribers, c.Sources, c.Loop, c.Scoreboard, logger.Named("telegram"))
		if err != nil {
			return err
		}
		c.AttachBot(bot)
	}

	logger.Infow("emotiscan is running",
		"inference", cfg.InferenceURL,
		"interval", cfg.TickInterval,
		"camera", cam != nil,
		"http", cfg.HTTPAddr,
		"telegram", cfg.TelegramToken != "",
	)
	if err := c.Run(cmd.Context()); err != nil {
		logger.Errorw("stopped with error", "error", err)
		return err
	}
	logger.Infow("stopped")
	return nil
}

// newLogger пишет в stderr, stdout занят шкалами
func newLogger(level zapcore.Level) (*zap.Logger, error) {
	cfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	return cfg.Build()
}
