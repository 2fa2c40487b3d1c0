package entity

// SubscriberState состояние подписки чата на уведомления гидера
type SubscriberState string

const (
	StateSubscribed SubscriberState = "subscribed" // Получает предупреждения
	StateMuted      SubscriberState = "muted"      // Предупреждения не отправляются
)

// Subscriber чат, получающий предупреждения детектора
type Subscriber struct {
	ID     int64           // Telegram User ID
	ChatID int64           // Telegram Chat ID
	State  SubscriberState // Текущее состояние подписки
}

// NewSubscriber создаёт нового подписчика с активной подпиской
func NewSubscriber(userID, chatID int64) *Subscriber {
	return &Subscriber{
		ID:     userID,
		ChatID: chatID,
		State:  StateSubscribed,
	}
}

// SetState обновляет состояние подписки
func (s *Subscriber) SetState(state SubscriberState) {
	s.State = state
}

// Active сообщает, что подписчику нужно отправлять предупреждения
func (s *Subscriber) Active() bool {
	return s.State == StateSubscribed
}
