package inference

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"emotiscan/internal/domain/entity"
)

const predictions = `{"angry": 0.1, "neutral": 0.7, "happy": 0.05, "fear": 0.05, "surprise": 0.03, "sad": 0.04, "disgust": 0.03}`

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeResponse_ExplanationImages(t *testing.T) {
	payload := fmt.Sprintf(`{"emotion":"neutral","predictions":%s,"gradcam":{"heatmap":%q,"superimposed":%q,"explainability":"relaxed"}}`,
		predictions, pngDataURI(t, 4, 3), pngDataURI(t, 6, 5))

	result, err := decodeResponse("c1", []byte(payload))
	require.NoError(t, err)
	require.Equal(t, "c1", result.CycleID)
	require.Equal(t, entity.Neutral, result.Dominant)
	require.True(t, result.Explanation.HasImage())
	require.Equal(t, image.Rect(0, 0, 6, 5), result.Explanation.Image.Bounds())
	require.Equal(t, image.Rect(0, 0, 4, 3), result.Explanation.Heatmap.Bounds())
	require.Equal(t, "relaxed", result.Explanation.Caption)
}

func TestDecodeResponse_GradcamFailureKeepsCaption(t *testing.T) {
	result, err := decodeResponse("c1", []byte(okResponse))
	require.NoError(t, err)
	require.NotNil(t, result.Explanation)
	require.False(t, result.Explanation.HasImage())
	require.Nil(t, result.Explanation.Heatmap)
	require.Equal(t, "relaxed facial muscles", result.Explanation.Caption)
}

func TestDecodeResponse_WithoutGradcam(t *testing.T) {
	result, err := decodeResponse("c1", []byte(fmt.Sprintf(`{"emotion":"happy","predictions":%s}`, predictions)))
	require.NoError(t, err)
	require.Nil(t, result.Explanation)
	require.Equal(t, 70, result.Scores.Percent(entity.Neutral))
}

func TestDecodeResponse_EmptyServerError(t *testing.T) {
	_, err := decodeResponse("c1", []byte(`{"error":""}`))
	require.ErrorIs(t, err, entity.ErrServerReported)
	require.ErrorContains(t, err, "unspecified")
}
