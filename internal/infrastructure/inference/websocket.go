// Package inference реализует канал к сервису распознавания эмоций.
package inference

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/domain/port"
)

// DefaultTimeout окно ожидания ответа сервиса
const DefaultTimeout = 5 * time.Second

const closeGrace = time.Second

// WebsocketChannel открывает отдельное websocket-соединение на каждый цикл
type WebsocketChannel struct {
	url     string
	timeout time.Duration
	dialer  *websocket.Dialer
	logger  *zap.SugaredLogger
}

// NewWebsocketChannel создаёт канал к сервису по адресу url
func NewWebsocketChannel(url string, timeout time.Duration, logger *zap.SugaredLogger) *WebsocketChannel {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &WebsocketChannel{
		url:     url,
		timeout: timeout,
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
		},
		logger: logger,
	}
}

// Infer отправляет один кадр и ждёт один ответ.
// Любой выход из функции закрывает соединение.
func (c *WebsocketChannel) Infer(ctx context.Context, req entity.InferenceRequest) (*entity.InferenceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrChannelConnect, err)
	}
	defer conn.Close()

	// По истечении окна соединение закрывается принудительно, чтобы разблокировать чтение.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.SetReadDeadline(deadline)
	}

	if err := conn.WriteJSON(newSubscribeMessage(req)); err != nil {
		return nil, classify(ctx, err)
	}

	_, payload, err := conn.ReadMessage()
	if err != nil {
		return nil, classify(ctx, err)
	}

	result, err := decodeResponse(req.CycleID, payload)
	if err != nil {
		return nil, err
	}

	err = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeGrace))
	if err != nil {
		c.logger.Debugw("close handshake failed", "cycle", req.CycleID, "error", err)
	}

	return result, nil
}

// classify относит ошибку ввода-вывода к таймауту или к преждевременному закрытию
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", entity.ErrChannelTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", entity.ErrChannelTimeout, err)
	}
	return fmt.Errorf("%w: %v", entity.ErrChannelClosedEarly, err)
}

// Проверка реализации интерфейса
var _ port.InferenceChannel = (*WebsocketChannel)(nil)
