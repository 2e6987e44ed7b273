package entity

import (
	"errors"
	"fmt"
	"image"
)

// InferenceRequest запрос к сервису распознавания для одного цикла
type InferenceRequest struct {
	CycleID string // идентификатор цикла
	Image   string // кадр в виде data-URI
}

// Explanation визуальное объяснение классификации
type Explanation struct {
	Image   image.Image // кадр с наложенной тепловой картой, может отсутствовать
	Heatmap image.Image // тепловая карта без кадра, может отсутствовать
	Caption string      // текстовое пояснение
}

// HasImage сообщает, есть ли изображение для режима объяснения
func (e *Explanation) HasImage() bool {
	return e != nil && e.Image != nil
}

// InferenceResult ответ сервиса распознавания. После создания не изменяется.
type InferenceResult struct {
	CycleID     string
	Dominant    Emotion
	Scores      Scores
	Explanation *Explanation
}

// Validate проверяет, что результат можно применить целиком
func (r *InferenceResult) Validate() error {
	if r == nil {
		return errors.New("empty result")
	}
	if _, ok := ParseEmotion(string(r.Dominant)); !ok {
		return fmt.Errorf("unknown dominant emotion %q", r.Dominant)
	}
	return r.Scores.Validate()
}
