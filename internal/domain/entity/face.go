package entity

import "image"

// FaceRegion область с найденным лицом
type FaceRegion struct {
	X          int           // координата X левого верхнего угла
	Y          int           // координата Y левого верхнего угла
	Width      int           // ширина области в пикселях
	Height     int           // высота области в пикселях
	Confidence float64       // уверенность детектора, 0..1
	Landmarks  []image.Point // ключевые точки, если детектор их даёт
}
