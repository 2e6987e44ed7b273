package entity

// SubscriberState состояние собеседника в чате
type SubscriberState string

const (
	StateMainMenu      SubscriberState = "main_menu"      // В главном меню
	StateAwaitingPhoto SubscriberState = "awaiting_photo" // Ожидание фото для анализа
)

// Subscriber представляет собеседника бота
type Subscriber struct {
	ID       int64           // Telegram User ID
	ChatID   int64           // Telegram Chat ID
	State    SubscriberState // Текущее состояние
	Notify   bool            // присылать ли смену доминирующей эмоции
	LastSeen string          // последняя отправленная доминирующая эмоция
}

// NewSubscriber создаёт собеседника с начальным состоянием
func NewSubscriber(userID, chatID int64) *Subscriber {
	return &Subscriber{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние собеседника
func (s *Subscriber) SetState(state SubscriberState) {
	s.State = state
}
