//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"emotiscan/internal/domain/port"
)

// CascadeModel модель-заглушка (без OpenCV).
type CascadeModel struct {
	Path         string
	ScaleFactor  float64
	MinNeighbors int
	MinFaceSide  int
}

// NewCascadeModel создаёт модель-заглушку.
func NewCascadeModel(path string) *CascadeModel {
	return &CascadeModel{
		Path:         path,
		ScaleFactor:  DefaultScaleFactor,
		MinNeighbors: DefaultMinNeighbors,
		MinFaceSide:  DefaultMinFaceSide,
	}
}

// Load возвращает ошибку, если сборка без тега gocv.
func (m *CascadeModel) Load(ctx context.Context) (port.FaceLocator, error) {
	_ = ctx
	return nil, errors.New("gocv build tag is not enabled")
}
