package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewScoreboard_RoundTrip(t *testing.T) {
	r := &InferenceResult{CycleID: "c1", Dominant: Neutral, Scores: fullScores()}
	b := NewScoreboard(r)

	require.Equal(t, "Neutral", b.Dominant)
	require.Equal(t, map[Emotion]int{
		Angry: 10, Neutral: 70, Happy: 5, Fear: 5, Surprise: 3, Sad: 4, Disgust: 3,
	}, b.Percent)
	require.Empty(t, b.Caption)
}

func TestNewScoreboard_KeepsCaption(t *testing.T) {
	r := &InferenceResult{
		CycleID:     "c2",
		Dominant:    Happy,
		Scores:      fullScores(),
		Explanation: &Explanation{Caption: "smile"},
	}
	b := NewScoreboard(r)
	require.Equal(t, "smile", b.Caption)
	require.Contains(t, b.String(), "smile")
	require.Contains(t, b.String(), "Emotion: Happy")
}

func TestScoreboardEmpty(t *testing.T) {
	require.True(t, Scoreboard{}.Empty())
	require.Equal(t, "no results yet", Scoreboard{}.String())
}
