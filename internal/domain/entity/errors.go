package entity

import "errors"

var (
	// ErrSourceUnavailable нет кадра для анализа, тик пропускается
	ErrSourceUnavailable = errors.New("frame source unavailable")
	// ErrDetectionModelLoad модель поиска лиц не загрузилась, цикл не запускается
	ErrDetectionModelLoad = errors.New("face detection model load failed")
	// ErrDetection ошибка поиска лиц на конкретном кадре
	ErrDetection = errors.New("face detection failed")

	ErrChannelConnect     = errors.New("inference channel connect failed")
	ErrChannelTimeout     = errors.New("inference channel timeout")
	ErrChannelClosedEarly = errors.New("inference channel closed before result")
	ErrServerReported     = errors.New("inference server reported error")
	ErrProtocol           = errors.New("inference protocol error")
)

// ServerError ошибка, которую вернул сервис распознавания
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "inference server: " + e.Message
}

// Is позволяет сравнивать с ErrServerReported через errors.Is
func (e *ServerError) Is(target error) bool {
	return target == ErrServerReported
}

// FailureKind возвращает короткое имя вида ошибки для счётчиков и логов
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDetection):
		return "detection"
	case errors.Is(err, ErrChannelConnect):
		return "connect"
	case errors.Is(err, ErrChannelTimeout):
		return "timeout"
	case errors.Is(err, ErrChannelClosedEarly):
		return "closed_early"
	case errors.Is(err, ErrServerReported):
		return "server"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	default:
		return "other"
	}
}
