package port

import (
	"context"

	"emotiscan/internal/domain/entity"
)

// FaceModel модель поиска лиц, которую нужно загрузить до первого цикла
type FaceModel interface {
	// Load загружает модель и возвращает готовый детектор
	Load(ctx context.Context) (FaceLocator, error)
}

// FaceLocator интерфейс детектора лиц
type FaceLocator interface {
	// Locate возвращает найденные на кадре лица, возможно ни одного
	Locate(ctx context.Context, frame *entity.Frame) ([]entity.FaceRegion, error)
}
