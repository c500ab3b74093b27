package domain

import "context"

// RequestRepo хранит заявки на дебаты. Заявки никогда не удаляются:
// при создании комнаты они переводятся в статус room_created.
type RequestRepo interface {
	SaveRequest(req DebateRequest) (DebateRequest, error)
	HasRequest(topicKey, requesterID string) (bool, error)
	CountPending(topicKey string) (int, error)
	MarkRoomCreated(topicKey string) (int, error)
	ListRequests(topicKey string) ([]DebateRequest, error)
}

// RoomRepo хранит комнаты дебатов и индекс активной комнаты по теме.
type RoomRepo interface {
	SaveRoom(room DebateRoom) (DebateRoom, error)
	GetRoom(id string) (DebateRoom, bool, error)
	GetActiveRoom(topicKey string) (DebateRoom, bool, error)
	UpdateRoom(room DebateRoom) (DebateRoom, error)
}

// PollRepo хранит голосования. Реализация обязана атомарно проверять
// членство голосующего и инкрементировать счёт (не более одного голоса
// на пару poll/voter).
type PollRepo interface {
	RecordVote(ctx context.Context, pollID string, side Side, voterID string) (Tally, error)
	GetTally(ctx context.Context, pollID string) (Tally, error)
}

// Classifier внешний классификатор контента. Возвращает true, если текст
// нарушает политику. Ошибка трактуется движком модерации как отсутствие
// сигнала, а не как отказ.
type Classifier interface {
	Flagged(ctx context.Context, text string) (bool, error)
}

// RoomEventPublisher публикует события жизненного цикла комнаты.
type RoomEventPublisher interface {
	Publish(ctx context.Context, event RoomEvent) error
}

// AuditRepo пишет append-only журнал заявок и событий комнат.
type AuditRepo interface {
	RecordRequest(ctx context.Context, req DebateRequest) error
	RecordRoomEvent(ctx context.Context, event RoomEvent) error
}
