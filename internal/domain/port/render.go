package port

import (
	"context"
	"image"

	"emotiscan/internal/domain/entity"
)

// RenderInput всё, что нужно для отрисовки одного цикла
type RenderInput struct {
	Frame   *entity.Frame
	Faces   []entity.FaceRegion
	Result  *entity.InferenceResult // nil, если результата нет
	Explain bool                    // включён ли режим объяснения
	Fresh   bool                    // результат получен в этом цикле
}

// Renderer рисует результат цикла
type Renderer interface {
	Render(ctx context.Context, in RenderInput) error
}

// Surface поверхность, на которую выводится композиция
type Surface interface {
	// Schedule ставит изображение на ближайшую перерисовку
	Schedule(img image.Image)
}

// Presenter получает числовые результаты
type Presenter interface {
	Publish(ctx context.Context, board entity.Scoreboard) error
}
