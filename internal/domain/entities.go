package domain

import (
	"strings"
	"time"
)

// RequestStatus описывает состояние заявки на дебаты.
type RequestStatus string

const (
	// RequestPending заявка записана и ждёт порога.
	RequestPending RequestStatus = "pending"
	// RequestRoomCreated заявка закрыта созданием комнаты.
	RequestRoomCreated RequestStatus = "room_created"
)

// DebateRequest описывает заявку пользователя на дебаты по теме.
type DebateRequest struct {
	ID          string
	Topic       string
	TopicKey    string
	ArticleID   string
	RequesterID string
	Side        string
	Status      RequestStatus
	CreatedAt   time.Time
}

// RoomStatus описывает состояние комнаты дебатов.
type RoomStatus string

const (
	// RoomActive комната открыта для участников.
	RoomActive RoomStatus = "active"
	// RoomEnded комната завершена, изменения запрещены.
	RoomEnded RoomStatus = "ended"
)

// DebateRoom описывает комнату дебатов по теме.
type DebateRoom struct {
	ID           string
	RoomName     string
	Topic        string
	TopicKey     string
	ArticleID    string
	Status       RoomStatus
	SideACount   int
	SideBCount   int
	Participants int
	CreatedAt    time.Time
	EndedAt      *time.Time
}

// Side обозначает сторону дебатов.
type Side string

const (
	// SideA сторона "за".
	SideA Side = "A"
	// SideB сторона "против".
	SideB Side = "B"
)

// ParseSide валидирует сторону из внешнего ввода.
func ParseSide(raw string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "A":
		return SideA, nil
	case "B":
		return SideB, nil
	}
	return "", ErrInvalidSide
}

// Tally содержит текущий счёт голосования по сторонам.
type Tally struct {
	SideA int
	SideB int
}

// RoomEventType тип события жизненного цикла комнаты.
type RoomEventType string

const (
	RoomEventCreated         RoomEventType = "room_created"
	RoomEventEnded           RoomEventType = "room_ended"
	RoomEventParticipantJoin RoomEventType = "participant_joined"
	RoomEventParticipantLeft RoomEventType = "participant_left"
)

// RoomEvent описывает событие жизненного цикла комнаты для внешних потребителей.
type RoomEvent struct {
	Type       RoomEventType `json:"type"`
	RoomID     string        `json:"room_id"`
	RoomName   string        `json:"room_name"`
	Topic      string        `json:"topic"`
	Side       string        `json:"side,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NormalizeTopic приводит тему к ключу раздела: нижний регистр,
// схлопнутые пробелы. Используется везде, где тема служит ключом.
func NormalizeTopic(topic string) string {
	return strings.ToLower(strings.Join(strings.Fields(topic), " "))
}
