package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

const (
	DefaultInferenceURL     = "ws://localhost:8000"
	DefaultTickInterval     = time.Second
	DefaultInferenceTimeout = 5 * time.Second
	DefaultCascadePath      = "haarcascade_frontalface_default.xml"
	DefaultCameraDevice     = "0"
	DefaultRepaintInterval  = 33 * time.Millisecond
)

type Config struct {
	InferenceURL     string        // адрес сервиса распознавания (ws/wss)
	TickInterval     time.Duration // период цикла анализа
	InferenceTimeout time.Duration // окно ожидания ответа
	CascadePath      string        // файл каскада Хаара
	CameraDevice     string        // номер или путь камеры
	StillImagePath   string        // файл, за которым следим, если задан
	OutputPath       string        // куда сохранять композицию, если задан
	RepaintInterval  time.Duration // период перерисовки
	HTTPAddr         string        // адрес HTTP API, если задан
	TelegramToken    string        // токен бота, если задан
	Explain          bool          // режим объяснения при старте
	LogLevel         zapcore.Level
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	var errs error
	cfg := &Config{
		InferenceURL:     getenv("INFERENCE_URL", DefaultInferenceURL),
		CascadePath:      getenv("CASCADE_PATH", DefaultCascadePath),
		CameraDevice:     getenv("CAMERA_DEVICE", DefaultCameraDevice),
		StillImagePath:   os.Getenv("STILL_IMAGE_PATH"),
		OutputPath:       os.Getenv("OUTPUT_PATH"),
		HTTPAddr:         os.Getenv("HTTP_ADDR"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		TickInterval:     duration("TICK_INTERVAL", DefaultTickInterval, &errs),
		InferenceTimeout: duration("INFERENCE_TIMEOUT", DefaultInferenceTimeout, &errs),
		RepaintInterval:  duration("REPAINT_INTERVAL", DefaultRepaintInterval, &errs),
		Explain:          boolean("EXPLAIN", false, &errs),
	}

	level, err := zapcore.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	cfg.LogLevel = level

	if err := validateURL(cfg.InferenceURL); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("INFERENCE_URL: %w", err))
	}
	if err := ValidateOutputPath(cfg.OutputPath); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("OUTPUT_PATH: %w", err))
	}

	if errs != nil {
		return nil, errs
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration, errs *error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = multierr.Append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	if d <= 0 {
		*errs = multierr.Append(*errs, fmt.Errorf("%s: must be positive, got %s", key, d))
		return def
	}
	return d
}

func boolean(key string, def bool, errs *error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = multierr.Append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

// ValidateOutputPath проверяет, что по расширению файла понятен формат сохранения.
// Пустой путь допустим, композиция тогда не сохраняется.
func ValidateOutputPath(path string) error {
	if path == "" {
		return nil
	}
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("%q: %w", path, err)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("scheme must be ws or wss, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
