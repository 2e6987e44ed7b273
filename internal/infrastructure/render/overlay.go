// Package render рисует результат цикла поверх кадра.
package render

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/domain/port"
)

const (
	labelSize   = 18
	captionSize = 16
	lineWidth   = 2
	captionPad  = 8
)

var (
	faceColor    = color.RGBA{G: 255, A: 255}
	bannerColor  = color.RGBA{A: 170}
	captionColor = color.White
)

// emotionColors цвета меток как на шкалах
var emotionColors = map[entity.Emotion]color.RGBA{
	entity.Angry:    {R: 255, A: 255},
	entity.Neutral:  {R: 144, G: 238, B: 144, A: 255},
	entity.Happy:    {R: 255, G: 165, A: 255},
	entity.Fear:     {R: 173, G: 216, B: 230, A: 255},
	entity.Surprise: {R: 255, G: 255, A: 255},
	entity.Sad:      {R: 128, G: 128, B: 128, A: 255},
	entity.Disgust:  {R: 255, G: 192, B: 203, A: 255},
}

// OverlayRenderer собирает композицию и раздаёт числовые результаты
type OverlayRenderer struct {
	surface port.Surface
	logger  *zap.SugaredLogger

	mu         sync.RWMutex
	presenters []port.Presenter

	labelFace font.Face
	textFace  font.Face
}

// NewOverlayRenderer создаёт рендерер поверх поверхности surface
func NewOverlayRenderer(surface port.Surface, logger *zap.SugaredLogger, presenters ...port.Presenter) (*OverlayRenderer, error) {
	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return &OverlayRenderer{
		surface:    surface,
		presenters: presenters,
		logger:     logger,
		labelFace:  truetype.NewFace(ttf, &truetype.Options{Size: labelSize}),
		textFace:   truetype.NewFace(ttf, &truetype.Options{Size: captionSize}),
	}, nil
}

// AddPresenter подключает ещё одного получателя оценок
func (r *OverlayRenderer) AddPresenter(p port.Presenter) {
	r.mu.Lock()
	r.presenters = append(r.presenters, p)
	r.mu.Unlock()
}

// Render публикует оценки нового результата и ставит композицию на перерисовку.
// Оценки публикуются при каждом новом результате независимо от режима объяснения.
func (r *OverlayRenderer) Render(ctx context.Context, in port.RenderInput) error {
	var errs error
	if in.Fresh && in.Result != nil {
		board := entity.NewScoreboard(in.Result)
		r.mu.RLock()
		presenters := r.presenters
		r.mu.RUnlock()
		for _, p := range presenters {
			errs = multierr.Append(errs, p.Publish(ctx, board))
		}
	}

	if in.Frame == nil || in.Frame.Image == nil {
		return errs
	}
	r.surface.Schedule(r.Compose(in))
	return errs
}

// Compose рисует кадр или изображение объяснения, рамки лиц и подпись
func (r *OverlayRenderer) Compose(in port.RenderInput) image.Image {
	w, h := in.Frame.Width, in.Frame.Height
	dc := gg.NewContext(w, h)

	explain := in.Explain && in.Result != nil && in.Result.Explanation.HasImage()
	if explain {
		dc.DrawImage(fitTo(in.Result.Explanation.Image, w, h), 0, 0)
	} else {
		dc.DrawImage(in.Frame.Image, 0, 0)
	}

	for _, face := range in.Faces {
		r.drawFace(dc, face, in.Result)
	}

	if explain && in.Result.Explanation.Caption != "" {
		r.drawCaption(dc, in.Result.Explanation.Caption)
	}

	return dc.Image()
}

func (r *OverlayRenderer) drawFace(dc *gg.Context, face entity.FaceRegion, result *entity.InferenceResult) {
	dc.SetColor(faceColor)
	dc.SetLineWidth(lineWidth)
	dc.DrawRectangle(float64(face.X), float64(face.Y), float64(face.Width), float64(face.Height))
	dc.Stroke()

	for _, p := range face.Landmarks {
		dc.DrawCircle(float64(p.X), float64(p.Y), lineWidth)
		dc.Fill()
	}

	if result == nil {
		return
	}
	dc.SetFontFace(r.labelFace)
	dc.SetColor(emotionColors[result.Dominant])
	dc.DrawStringAnchored(result.Dominant.DisplayName(), float64(face.X), float64(face.Y)-captionPad/2, 0, 0)
}

// drawCaption рисует подпись на полупрозрачной плашке внизу кадра
func (r *OverlayRenderer) drawCaption(dc *gg.Context, caption string) {
	w := float64(dc.Width())
	h := float64(dc.Height())
	textWidth := w - 2*captionPad

	dc.SetFontFace(r.textFace)
	lines := dc.WordWrap(caption, textWidth)
	bannerHeight := float64(len(lines))*dc.FontHeight()*1.4 + 2*captionPad

	dc.SetColor(bannerColor)
	dc.DrawRectangle(0, h-bannerHeight, w, bannerHeight)
	dc.Fill()

	dc.SetColor(captionColor)
	dc.DrawStringWrapped(caption, captionPad, h-bannerHeight+captionPad, 0, 0, textWidth, 1.4, gg.AlignLeft)
}

// fitTo приводит изображение к размеру кадра
func fitTo(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Linear)
}

// Проверка реализации интерфейса
var _ port.Renderer = (*OverlayRenderer)(nil)
