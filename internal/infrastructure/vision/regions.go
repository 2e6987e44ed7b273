// Package vision ищет лица на кадрах.
package vision

import (
	"image"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/domain/port"
)

// Параметры каскада как у детектора detectMultiScale(gray, 1.3, 5).
const (
	DefaultCascadePath  = "haarcascade_frontalface_default.xml"
	DefaultScaleFactor  = 1.3
	DefaultMinNeighbors = 5
	DefaultMinFaceSide  = 30
)

// toRegions переводит прямоугольники детектора в области лиц
func toRegions(rects []image.Rectangle, confidence float64) []entity.FaceRegion {
	regions := make([]entity.FaceRegion, 0, len(rects))
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		regions = append(regions, entity.FaceRegion{
			X:          r.Min.X,
			Y:          r.Min.Y,
			Width:      r.Dx(),
			Height:     r.Dy(),
			Confidence: confidence,
		})
	}
	return regions
}

// Проверка реализации интерфейса
var _ port.FaceModel = (*CascadeModel)(nil)
