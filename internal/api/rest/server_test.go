package rest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	app "emotiscan/internal/application"
	"emotiscan/internal/domain/entity"
	"emotiscan/internal/infrastructure/storage"
)

type fakeLoop struct {
	mu      sync.Mutex
	explain bool
	calls   []bool
	err     error
}

func (l *fakeLoop) State() entity.CycleState { return entity.StateAwaitingInference }

func (l *fakeLoop) Stats() entity.CycleStats {
	return entity.CycleStats{Ticks: 5, SkippedTicks: 2, Cycles: 3, Successes: 2, Failures: map[string]uint64{"timeout": 1}}
}

func (l *fakeLoop) Explain() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.explain
}

func (l *fakeLoop) SetExplain(ctx context.Context, on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.explain = on
	l.calls = append(l.calls, on)
	return nil
}

type fakeFrames struct {
	img image.Image
}

func (f *fakeFrames) Latest() (image.Image, uint64) {
	if f.img == nil {
		return nil, 0
	}
	return f.img, 1
}

type fixture struct {
	handler  http.Handler
	loop     *fakeLoop
	selector *app.SourceSelector
	board    *storage.MemoryScoreboard
	frames   *fakeFrames
}

func newFixture() *fixture {
	f := &fixture{
		loop:     &fakeLoop{},
		selector: app.NewSourceSelector(nil),
		board:    storage.NewMemoryScoreboard(),
		frames:   &fakeFrames{},
	}
	f.handler = NewServer(":0", f.loop, f.selector, f.board, f.frames, zap.NewNop().Sugar()).Handler()
	return f
}

func (f *fixture) do(method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 12, 9))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestScores(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/scores", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	result := &entity.InferenceResult{
		CycleID:  "c1",
		Dominant: entity.Neutral,
		Scores: entity.Scores{
			entity.Angry: 0.1, entity.Neutral: 0.7, entity.Happy: 0.05, entity.Fear: 0.05,
			entity.Surprise: 0.03, entity.Sad: 0.04, entity.Disgust: 0.03,
		},
	}
	require.NoError(t, f.board.Publish(context.Background(), entity.NewScoreboard(result)))

	rec = f.do(http.MethodGet, "/scores", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScoresResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "c1", resp.CycleID)
	require.Equal(t, "Neutral", resp.Dominant)
	require.Equal(t, uint64(1), resp.Updates)
	require.False(t, resp.Explain)
	require.Equal(t, map[string]int{
		"angry": 10, "neutral": 70, "happy": 5, "fear": 5, "surprise": 3, "sad": 4, "disgust": 3,
	}, resp.Percent)
}

func TestScores_ReportsCurrentExplainMode(t *testing.T) {
	f := newFixture()
	result := &entity.InferenceResult{
		CycleID:  "c1",
		Dominant: entity.Happy,
		Scores: entity.Scores{
			entity.Angry: 0, entity.Neutral: 0.1, entity.Happy: 0.9, entity.Fear: 0,
			entity.Surprise: 0, entity.Sad: 0, entity.Disgust: 0,
		},
	}
	require.NoError(t, f.board.Publish(context.Background(), entity.NewScoreboard(result)))

	rec := f.do(http.MethodPut, "/explain", "application/json", []byte(`{"on":true}`))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/scores", "", nil)
	var resp ScoresResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.Explain)
	require.Equal(t, "c1", resp.CycleID)
}

func TestScores_MethodNotAllowed(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/scores", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestImage_RawUploadAndClear(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPut, "/image", "image/png", pngBytes(t))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ImageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, entity.OriginStill, resp.Mode)
	require.Equal(t, 12, resp.Width)
	require.Equal(t, 9, resp.Height)
	require.Equal(t, entity.OriginStill, f.selector.Mode())

	frame, err := f.selector.CurrentFrame(context.Background())
	require.NoError(t, err)
	require.Equal(t, entity.OriginStill, frame.Origin)

	rec = f.do(http.MethodDelete, "/image", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = ImageResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.Cleared)
	require.Equal(t, entity.OriginLive, resp.Mode)

	_, err = f.selector.CurrentFrame(context.Background())
	require.ErrorIs(t, err, entity.ErrSourceUnavailable)

	rec = f.do(http.MethodDelete, "/image", "", nil)
	resp = ImageResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.False(t, resp.Cleared)
}

func TestImage_JSONUpload(t *testing.T) {
	data := pngBytes(t)
	cases := map[string]string{
		"data uri": "data:image/png;base64," + base64.StdEncoding.EncodeToString(data),
		"base64":   base64.StdEncoding.EncodeToString(data),
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			body, err := json.Marshal(map[string]string{"image": payload})
			require.NoError(t, err)

			rec := f.do(http.MethodPut, "/image", "application/json", body)
			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, entity.OriginStill, f.selector.Mode())
		})
	}
}

func TestImage_Invalid(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPut, "/image", "application/octet-stream", []byte("not an image"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid_image")

	rec = f.do(http.MethodPut, "/image", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid_request")

	require.Equal(t, entity.OriginLive, f.selector.Mode())
}

func TestExplain(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPut, "/explain", "application/json", []byte(`{"on":true}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"on":true}`, rec.Body.String())

	rec = f.do(http.MethodPut, "/explain", "application/json", []byte(`{"on":false}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []bool{true, false}, f.loop.calls)

	rec = f.do(http.MethodPut, "/explain", "application/json", []byte(`nope`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExplain_LoopNotRunning(t *testing.T) {
	f := newFixture()
	f.loop.err = app.ErrLoopNotRunning

	rec := f.do(http.MethodPut, "/explain", "application/json", []byte(`{"on":true}`))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "unavailable")
	require.False(t, f.loop.Explain())
}

func TestStatus(t *testing.T) {
	f := newFixture()
	f.selector.SetStill(entity.NewFrame(image.NewRGBA(image.Rect(0, 0, 2, 2)), []byte{1}, "image/png", entity.OriginStill))

	rec := f.do(http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, entity.StateAwaitingInference, resp.State)
	require.Equal(t, entity.OriginStill, resp.Mode)
	require.False(t, resp.CameraReady)
	require.Equal(t, uint64(2), resp.Skipped)
	require.Equal(t, uint64(1), resp.Failures["timeout"])
}

func TestFrame(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/frame.png", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	f.frames.img = image.NewRGBA(image.Rect(0, 0, 7, 5))
	rec = f.do(http.MethodGet, "/frame.png", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 7, 5), img.Bounds())
}
