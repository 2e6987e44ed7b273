package port

import (
	"context"

	"emotiscan/internal/domain/entity"
)

// InferenceChannel канал к сервису распознавания эмоций
type InferenceChannel interface {
	// Infer отправляет ровно один запрос и возвращает ровно один результат или ошибку
	Infer(ctx context.Context, req entity.InferenceRequest) (*entity.InferenceResult, error)
}
