package entity

import (
	"fmt"
	"strings"
)

// Scoreboard то, что показывается пользователю после очередного результата
type Scoreboard struct {
	CycleID  string
	Percent  map[Emotion]int // 0..100 по каждой метке
	Dominant string          // название доминирующей эмоции
	Caption  string          // пояснение сервиса, если есть
}

// NewScoreboard строит табло из результата.
// Режим объяснения в табло не входит, он меняется без нового результата.
func NewScoreboard(r *InferenceResult) Scoreboard {
	b := Scoreboard{
		CycleID:  r.CycleID,
		Percent:  make(map[Emotion]int, len(Emotions)),
		Dominant: r.Dominant.DisplayName(),
	}
	for _, e := range Emotions {
		b.Percent[e] = r.Scores.Percent(e)
	}
	if r.Explanation != nil {
		b.Caption = r.Explanation.Caption
	}
	return b
}

// Empty сообщает, что результатов ещё не было
func (b Scoreboard) Empty() bool {
	return b.CycleID == ""
}

// String форматирует табло для текстового вывода
func (b Scoreboard) String() string {
	if b.Empty() {
		return "no results yet"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Emotion: %s\n", b.Dominant)
	for _, e := range Emotions {
		fmt.Fprintf(&sb, "%-9s %3d%%\n", e.DisplayName(), b.Percent[e])
	}
	if b.Caption != "" {
		sb.WriteString(b.Caption)
		sb.WriteString("\n")
	}
	return sb.String()
}
