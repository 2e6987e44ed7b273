// Package rest отдаёт состояние цикла и принимает команды по HTTP.
package rest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/infrastructure/codec"
)

const maxUploadSize = 10 << 20

// Loop управление циклом анализа
type Loop interface {
	State() entity.CycleState
	Stats() entity.CycleStats
	Explain() bool
	SetExplain(ctx context.Context, on bool) error
}

// Source переключение источника кадров
type Source interface {
	SetStill(frame *entity.Frame)
	ClearStill() bool
	Mode() entity.FrameOrigin
	CameraReady() bool
}

// Scores последнее опубликованное табло
type Scores interface {
	Latest() (entity.Scoreboard, uint64)
}

// Frames последний нарисованный кадр
type Frames interface {
	Latest() (image.Image, uint64)
}

type ScoresResponse struct {
	CycleID  string         `json:"cycle_id"`
	Dominant string         `json:"dominant"`
	Percent  map[string]int `json:"percent"`
	Explain  bool           `json:"explain"`
	Caption  string         `json:"caption,omitempty"`
	Updates  uint64         `json:"updates"`
}

type StatusResponse struct {
	State       entity.CycleState  `json:"state"`
	Mode        entity.FrameOrigin `json:"mode"`
	CameraReady bool               `json:"camera_ready"`
	Explain     bool               `json:"explain"`
	Ticks       uint64             `json:"ticks"`
	Skipped     uint64             `json:"skipped_ticks"`
	Unavailable uint64             `json:"unavailable_ticks"`
	Cycles      uint64             `json:"cycles"`
	Successes   uint64             `json:"successes"`
	Stale       uint64             `json:"stale"`
	Failures    map[string]uint64  `json:"failures"`
}

type ImageResponse struct {
	Mode    entity.FrameOrigin `json:"mode"`
	Width   int                `json:"width,omitempty"`
	Height  int                `json:"height,omitempty"`
	Cleared bool               `json:"cleared,omitempty"`
}

type ExplainRequest struct {
	On bool `json:"on"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server HTTP API клиента
type Server struct {
	loop   Loop
	source Source
	scores Scores
	frames Frames
	logger *zap.SugaredLogger
	srv    *http.Server
}

func NewServer(addr string, loop Loop, source Source, scores Scores, frames Frames, logger *zap.SugaredLogger) *Server {
	s := &Server{
		loop:   loop,
		source: source,
		scores: scores,
		frames: frames,
		logger: logger,
	}
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// Handler собирает маршруты
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/scores", s.handleScores).Methods(http.MethodGet)
	r.HandleFunc("/frame.png", s.handleFrame).Methods(http.MethodGet)
	r.HandleFunc("/image", s.handlePutImage).Methods(http.MethodPut)
	r.HandleFunc("/image", s.handleDeleteImage).Methods(http.MethodDelete)
	r.HandleFunc("/explain", s.handleExplain).Methods(http.MethodPut)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	return r
}

// Run слушает адрес до отмены ctx
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("http api listening", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleScores(w http.ResponseWriter, _ *http.Request) {
	board, updates := s.scores.Latest()
	if board.Empty() {
		sendError(w, "no_results", "no inference result yet", http.StatusNotFound)
		return
	}

	percent := make(map[string]int, len(board.Percent))
	for e, p := range board.Percent {
		percent[string(e)] = p
	}
	sendJSON(w, http.StatusOK, ScoresResponse{
		CycleID:  board.CycleID,
		Dominant: board.Dominant,
		Percent:  percent,
		Explain:  s.loop.Explain(),
		Caption:  board.Caption,
		Updates:  updates,
	})
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	img, _ := s.frames.Latest()
	if img == nil {
		sendError(w, "no_frame", "nothing painted yet", http.StatusNotFound)
		return
	}
	data, err := codec.EncodePNG(img)
	if err != nil {
		sendError(w, "encode_error", err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

func (s *Server) handlePutImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	data, err := readImage(r)
	if err != nil {
		sendError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}
	frame, err := codec.FrameFromBytes(data, entity.OriginStill)
	if err != nil {
		sendError(w, "invalid_image", err.Error(), http.StatusBadRequest)
		return
	}

	s.source.SetStill(frame)
	s.logger.Infow("still image set over http", "width", frame.Width, "height", frame.Height)
	sendJSON(w, http.StatusOK, ImageResponse{Mode: entity.OriginStill, Width: frame.Width, Height: frame.Height})
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, _ *http.Request) {
	cleared := s.source.ClearStill()
	if cleared {
		s.logger.Infow("still image cleared over http")
	}
	sendJSON(w, http.StatusOK, ImageResponse{Mode: s.source.Mode(), Cleared: cleared})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.loop.SetExplain(r.Context(), req.On); err != nil {
		sendError(w, "unavailable", err.Error(), http.StatusServiceUnavailable)
		return
	}
	sendJSON(w, http.StatusOK, ExplainRequest{On: req.On})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	stats := s.loop.Stats()
	sendJSON(w, http.StatusOK, StatusResponse{
		State:       s.loop.State(),
		Mode:        s.source.Mode(),
		CameraReady: s.source.CameraReady(),
		Explain:     s.loop.Explain(),
		Ticks:       stats.Ticks,
		Skipped:     stats.SkippedTicks,
		Unavailable: stats.Unavailable,
		Cycles:      stats.Cycles,
		Successes:   stats.Successes,
		Stale:       stats.Stale,
		Failures:    stats.Failures,
	})
}

// readImage достаёт байты изображения из JSON, multipart или сырого тела
func readImage(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		var req struct {
			Image string `json:"image"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		if strings.HasPrefix(req.Image, "data:") {
			data, _, err := codec.ParseDataURI(req.Image)
			return data, err
		}
		return base64.StdEncoding.DecodeString(req.Image)

	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)

	default:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("empty body")
		}
		return data, nil
	}
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, code, message string, status int) {
	sendJSON(w, status, ErrorResponse{Code: code, Message: message})
}
