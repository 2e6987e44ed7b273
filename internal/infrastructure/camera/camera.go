// Package camera даёт живой источник кадров.
package camera

import "emotiscan/internal/domain/port"

// Проверка реализации интерфейса
var _ port.Camera = (*Webcam)(nil)
