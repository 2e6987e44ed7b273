package entity

import (
	"encoding/base64"
	"image"
)

// FrameOrigin откуда получен кадр
type FrameOrigin string

const (
	OriginLive  FrameOrigin = "live"  // кадр с камеры
	OriginStill FrameOrigin = "still" // загруженное изображение
)

// Frame один кадр для анализа. После создания не изменяется.
type Frame struct {
	Image  image.Image // декодированное изображение
	Data   []byte      // закодированные байты
	MIME   string      // тип закодированных байтов, например image/jpeg
	Width  int         // ширина в пикселях
	Height int         // высота в пикселях
	Origin FrameOrigin
}

// NewFrame создаёт кадр из изображения и его закодированного представления
func NewFrame(img image.Image, data []byte, mime string, origin FrameOrigin) *Frame {
	b := img.Bounds()
	return &Frame{
		Image:  img,
		Data:   data,
		MIME:   mime,
		Width:  b.Dx(),
		Height: b.Dy(),
		Origin: origin,
	}
}

// DataURI возвращает кадр в виде data-URI для отправки в сервис
func (f *Frame) DataURI() string {
	return "data:" + f.MIME + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}
