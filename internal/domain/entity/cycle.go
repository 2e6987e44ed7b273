package entity

// CycleState состояние цикла анализа
type CycleState string

const (
	StateIdle              CycleState = "idle"               // Цикл не запущен
	StateDetecting         CycleState = "detecting"          // Поиск лица на кадре
	StateAwaitingInference CycleState = "awaiting_inference" // Ожидание ответа сервиса распознавания
)

// Busy сообщает, что цикл ещё не завершён
func (s CycleState) Busy() bool {
	return s != StateIdle
}

// CycleStats счётчики работы цикла
type CycleStats struct {
	Ticks        uint64 // всего тиков таймера
	SkippedTicks uint64 // тики, пропущенные из-за незавершённого цикла
	Unavailable  uint64 // тики без доступного кадра
	Cycles       uint64 // запущенные циклы
	Successes    uint64 // применённые результаты
	Failures     map[string]uint64
	Stale        uint64 // отброшенные устаревшие ответы
}
