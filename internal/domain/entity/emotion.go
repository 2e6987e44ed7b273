package entity

import (
	"fmt"
	"math"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Emotion метка эмоции из закрытого набора
type Emotion string

const (
	Angry    Emotion = "angry"
	Disgust  Emotion = "disgust"
	Fear     Emotion = "fear"
	Happy    Emotion = "happy"
	Neutral  Emotion = "neutral"
	Sad      Emotion = "sad"
	Surprise Emotion = "surprise"
)

// Emotions все метки в порядке отображения
var Emotions = []Emotion{Angry, Neutral, Happy, Fear, Surprise, Sad, Disgust}

var titleCaser = cases.Title(language.English)

// ParseEmotion проверяет, что строка является известной меткой
func ParseEmotion(s string) (Emotion, bool) {
	for _, e := range Emotions {
		if string(e) == s {
			return e, true
		}
	}
	return "", false
}

// DisplayName возвращает название для показа пользователю, например "Neutral"
func (e Emotion) DisplayName() string {
	return titleCaser.String(string(e))
}

// Scores оценки по каждой метке, 0..1. Сумма не обязана быть равна 1.
type Scores map[Emotion]float64

// Percent возвращает оценку метки в процентах, округлённую независимо от остальных
func (s Scores) Percent(e Emotion) int {
	return int(math.Round(s[e] * 100))
}

// Validate проверяет, что присутствуют все метки и значения лежат в [0,1]
func (s Scores) Validate() error {
	for _, e := range Emotions {
		v, ok := s[e]
		if !ok {
			return fmt.Errorf("missing score for %q", e)
		}
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("score for %q out of range: %v", e, v)
		}
	}
	if len(s) != len(Emotions) {
		return fmt.Errorf("unexpected labels: got %d scores, want %d", len(s), len(Emotions))
	}
	return nil
}
