package inference

import (
	"encoding/json"
	"fmt"

	"emotiscan/internal/domain/entity"
	"emotiscan/internal/infrastructure/codec"
)

// subscribeEvent имя события, которое ожидает сервис
const subscribeEvent = "localhost:subscribe"

type subscribeMessage struct {
	Event string        `json:"event"`
	Data  subscribeData `json:"data"`
}

type subscribeData struct {
	Image string `json:"image"`
}

type responseMessage struct {
	Emotion     string              `json:"emotion"`
	Predictions map[string]*float64 `json:"predictions"`
	Gradcam     *gradcamMessage     `json:"gradcam"`
	Error       *string             `json:"error"`
}

type gradcamMessage struct {
	Heatmap        string `json:"heatmap"`
	Superimposed   string `json:"superimposed"`
	Explainability string `json:"explainability"`
}

func newSubscribeMessage(req entity.InferenceRequest) subscribeMessage {
	return subscribeMessage{
		Event: subscribeEvent,
		Data:  subscribeData{Image: req.Image},
	}
}

// decodeResponse разбирает ответ сервиса. Результат либо полностью корректен, либо отвергается.
func decodeResponse(cycleID string, payload []byte) (*entity.InferenceResult, error) {
	var msg responseMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrProtocol, err)
	}
	if msg.Error != nil {
		// Сервис отвечает {"error": str(e)}, текст исключения бывает пустым.
		text := *msg.Error
		if text == "" {
			text = "unspecified error"
		}
		return nil, &entity.ServerError{Message: text}
	}
	if msg.Predictions == nil {
		return nil, fmt.Errorf("%w: predictions are missing", entity.ErrProtocol)
	}

	scores := make(entity.Scores, len(msg.Predictions))
	for label, v := range msg.Predictions {
		e, ok := entity.ParseEmotion(label)
		if !ok {
			return nil, fmt.Errorf("%w: unknown label %q", entity.ErrProtocol, label)
		}
		if v == nil {
			return nil, fmt.Errorf("%w: score for %q is null", entity.ErrProtocol, label)
		}
		scores[e] = *v
	}

	result := &entity.InferenceResult{
		CycleID:  cycleID,
		Dominant: entity.Emotion(msg.Emotion),
		Scores:   scores,
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrProtocol, err)
	}

	if msg.Gradcam != nil {
		explanation, err := decodeExplanation(msg.Gradcam)
		if err != nil {
			return nil, fmt.Errorf("%w: gradcam: %v", entity.ErrProtocol, err)
		}
		result.Explanation = explanation
	}

	return result, nil
}

func decodeExplanation(g *gradcamMessage) (*entity.Explanation, error) {
	superimposed, err := codec.DecodeDataURIImage(g.Superimposed)
	if err != nil {
		return nil, fmt.Errorf("superimposed: %w", err)
	}
	heatmap, err := codec.DecodeDataURIImage(g.Heatmap)
	if err != nil {
		return nil, fmt.Errorf("heatmap: %w", err)
	}
	return &entity.Explanation{
		Image:   superimposed,
		Heatmap: heatmap,
		Caption: g.Explainability,
	}, nil
}
