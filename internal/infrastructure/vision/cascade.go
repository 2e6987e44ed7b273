//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/domain/port"
)

// CascadeModel модель поиска лиц на каскадах Хаара
type CascadeModel struct {
	Path         string  // путь к xml с каскадом
	ScaleFactor  float64 // шаг масштаба между проходами
	MinNeighbors int     // сколько соседних срабатываний нужно для лица
	MinFaceSide  int     // минимальная сторона лица в пикселях
}

// NewCascadeModel создаёт модель с параметрами по умолчанию.
func NewCascadeModel(path string) *CascadeModel {
	return &CascadeModel{
		Path:         path,
		ScaleFactor:  DefaultScaleFactor,
		MinNeighbors: DefaultMinNeighbors,
		MinFaceSide:  DefaultMinFaceSide,
	}
}

// Load загружает каскад. Ошибка загрузки фатальна для цикла анализа.
func (m *CascadeModel) Load(ctx context.Context) (port.FaceLocator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(m.Path) {
		classifier.Close()
		return nil, fmt.Errorf("load cascade %q", m.Path)
	}

	return &CascadeLocator{
		classifier:   classifier,
		scaleFactor:  m.ScaleFactor,
		minNeighbors: m.MinNeighbors,
		minSize:      image.Pt(m.MinFaceSide, m.MinFaceSide),
	}, nil
}

// CascadeLocator ищет лица загруженным каскадом
type CascadeLocator struct {
	mu           sync.Mutex
	closed       bool
	classifier   gocv.CascadeClassifier
	scaleFactor  float64
	minNeighbors int
	minSize      image.Point
}

// Locate ищет лица на кадре.
func (l *CascadeLocator) Locate(ctx context.Context, frame *entity.Frame) ([]entity.FaceRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := decodeToMat(frame.Data)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	// Каскад не потокобезопасен.
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, errors.New("cascade closed")
	}
	rects := l.classifier.DetectMultiScaleWithParams(gray, l.scaleFactor, l.minNeighbors, 0, l.minSize, image.Point{})
	l.mu.Unlock()

	return toRegions(rects, 1), nil
}

// Close освобождает каскад
func (l *CascadeLocator) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.classifier.Close()
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}
