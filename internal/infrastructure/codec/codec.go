// Package codec кодирует и декодирует изображения кадров.
package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"

	"emotiscan/internal/domain/entity"
)

// MaxSide максимальная сторона кадра, отправляемого в сервис
const MaxSide = 1024

const jpegQuality = 90

// FrameFromBytes декодирует загруженное изображение в кадр
func FrameFromBytes(data []byte, origin entity.FrameOrigin) (*entity.Frame, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	// Большие снимки уменьшаем и перекодируем, остальные отправляем как есть.
	b := img.Bounds()
	if b.Dx() > MaxSide || b.Dy() > MaxSide {
		return FrameFromImage(imaging.Fit(img, MaxSide, MaxSide, imaging.Lanczos), origin)
	}
	return entity.NewFrame(img, data, http.DetectContentType(data), origin), nil
}

// FrameFromImage кодирует изображение в JPEG и создаёт кадр
func FrameFromImage(img image.Image, origin entity.FrameOrigin) (*entity.Frame, error) {
	data, err := EncodeJPEG(img)
	if err != nil {
		return nil, err
	}
	return entity.NewFrame(img, data, "image/jpeg", origin), nil
}

// EncodeJPEG кодирует изображение в JPEG
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNG кодирует изображение в PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseDataURI разбирает строку вида data:<mime>;base64,<payload>
func ParseDataURI(s string) (data []byte, mime string, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", errors.New("not a data uri")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", errors.New("data uri without payload separator")
	}
	mime, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, "", errors.New("data uri is not base64")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	return data, mime, nil
}

// DecodeDataURIImage декодирует изображение из data-URI.
// Пустая строка и пустой payload означают отсутствие изображения.
func DecodeDataURIImage(s string) (image.Image, error) {
	if s == "" {
		return nil, nil
	}
	data, _, err := ParseDataURI(s)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
