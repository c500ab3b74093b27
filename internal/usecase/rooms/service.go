package rooms

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"inclear-debates/internal/adapters/store"
	"inclear-debates/internal/domain"
	"inclear-debates/internal/infra/metrics"
)

const (
	roomNameAlphabet     = "abcdefghjkmnpqrstuvwxyz23456789"
	roomNameSuffixLength = 8
)

// Service ведёт жизненный цикл комнат дебатов и отвечает за инвариант
// "не более одной активной комнаты на тему".
type Service struct {
	repo   domain.RoomRepo
	events domain.RoomEventPublisher
	audit  domain.AuditRepo
	locks  *store.KeyedMutex
	log    zerolog.Logger
}

// NewService создаёт реестр комнат. events и audit могут быть nil.
func NewService(repo domain.RoomRepo, events domain.RoomEventPublisher, audit domain.AuditRepo, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: events,
		audit:  audit,
		locks:  store.NewKeyedMutex(),
		log:    logger,
	}
}

// generateRoomName собирает непересекающееся имя комнаты: временная
// метка плюс случайный суффикс. Имя служит общим ключом с провайдером
// конференц-связи.
func generateRoomName() (string, error) {
	buf := make([]byte, roomNameSuffixLength)
	if _, err := crand.Read(buf); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(roomNameSuffixLength)
	for _, raw := range buf {
		idx := int(raw) % len(roomNameAlphabet)
		b.WriteByte(roomNameAlphabet[idx])
	}
	return fmt.Sprintf("debate-%d-%s", time.Now().UnixMilli(), b.String()), nil
}

// CreateForTopic создаёт комнату по теме. Возвращает
// domain.ErrActiveRoomExists, если активная комната уже есть: реестр,
// а не агрегатор, последняя инстанция этого инварианта.
func (s *Service) CreateForTopic(ctx context.Context, topic, articleID string) (domain.DebateRoom, error) {
	key := domain.NormalizeTopic(topic)
	if key == "" {
		return domain.DebateRoom{}, fmt.Errorf("тема пуста")
	}

	s.locks.Lock("topic:" + key)
	defer s.locks.Unlock("topic:" + key)

	if existing, ok, err := s.repo.GetActiveRoom(key); err != nil {
		return domain.DebateRoom{}, fmt.Errorf("поиск активной комнаты: %w", err)
	} else if ok {
		return existing, domain.ErrActiveRoomExists
	}

	name, err := generateRoomName()
	if err != nil {
		return domain.DebateRoom{}, fmt.Errorf("генерация имени комнаты: %w", err)
	}
	room := domain.DebateRoom{
		ID:        uuid.NewString(),
		RoomName:  name,
		Topic:     topic,
		TopicKey:  key,
		ArticleID: articleID,
		Status:    domain.RoomActive,
		CreatedAt: time.Now().UTC(),
	}
	saved, err := s.repo.SaveRoom(room)
	if err != nil {
		return domain.DebateRoom{}, fmt.Errorf("сохранение комнаты: %w", err)
	}
	metrics.DebateRoomsCreated.Inc()
	s.emit(ctx, domain.RoomEvent{Type: domain.RoomEventCreated, RoomID: saved.ID, RoomName: saved.RoomName, Topic: saved.Topic, OccurredAt: saved.CreatedAt})
	s.log.Info().Str("topic", key).Str("room", saved.RoomName).Msg("rooms: комната создана")
	return saved, nil
}

// ActiveRoom возвращает активную комнату темы, если есть.
func (s *Service) ActiveRoom(topic string) (domain.DebateRoom, bool) {
	room, ok, err := s.repo.GetActiveRoom(domain.NormalizeTopic(topic))
	if err != nil {
		s.log.Error().Err(err).Str("topic", topic).Msg("rooms: поиск активной комнаты")
		return domain.DebateRoom{}, false
	}
	return room, ok
}

// JoinSide добавляет участника на сторону.
func (s *Service) JoinSide(ctx context.Context, roomID string, side domain.Side) (domain.DebateRoom, error) {
	return s.mutate(ctx, roomID, func(room *domain.DebateRoom) (domain.RoomEventType, error) {
		if room.Status == domain.RoomEnded {
			return "", domain.ErrRoomEnded
		}
		switch side {
		case domain.SideA:
			room.SideACount++
		case domain.SideB:
			room.SideBCount++
		default:
			return "", domain.ErrInvalidSide
		}
		room.Participants++
		return domain.RoomEventParticipantJoin, nil
	}, string(side))
}

// LeaveSide убирает участника со стороны. Счётчики не уходят ниже нуля:
// повторные сигналы выхода от ненадёжного транспорта игнорируются.
func (s *Service) LeaveSide(ctx context.Context, roomID string, side domain.Side) (domain.DebateRoom, error) {
	return s.mutate(ctx, roomID, func(room *domain.DebateRoom) (domain.RoomEventType, error) {
		if room.Status == domain.RoomEnded {
			return "", domain.ErrRoomEnded
		}
		switch side {
		case domain.SideA:
			if room.SideACount > 0 {
				room.SideACount--
				room.Participants--
			}
		case domain.SideB:
			if room.SideBCount > 0 {
				room.SideBCount--
				room.Participants--
			}
		default:
			return "", domain.ErrInvalidSide
		}
		if room.Participants < 0 {
			room.Participants = 0
		}
		return domain.RoomEventParticipantLeft, nil
	}, string(side))
}

// EndRoom завершает комнату. Идемпотентна: повторное завершение
// возвращает текущее состояние без ошибки.
func (s *Service) EndRoom(ctx context.Context, roomID string) (domain.DebateRoom, error) {
	s.locks.Lock("room:" + roomID)
	defer s.locks.Unlock("room:" + roomID)

	room, ok, err := s.repo.GetRoom(roomID)
	if err != nil {
		return domain.DebateRoom{}, fmt.Errorf("поиск комнаты: %w", err)
	}
	if !ok {
		return domain.DebateRoom{}, domain.ErrRoomNotFound
	}
	if room.Status == domain.RoomEnded {
		return room, nil
	}
	now := time.Now().UTC()
	room.Status = domain.RoomEnded
	room.EndedAt = &now
	saved, err := s.repo.UpdateRoom(room)
	if err != nil {
		return domain.DebateRoom{}, fmt.Errorf("сохранение комнаты: %w", err)
	}
	metrics.DebateRoomsEnded.Inc()
	s.emit(ctx, domain.RoomEvent{Type: domain.RoomEventEnded, RoomID: saved.ID, RoomName: saved.RoomName, Topic: saved.Topic, OccurredAt: now})
	s.log.Info().Str("room", saved.RoomName).Msg("rooms: комната завершена")
	return saved, nil
}

func (s *Service) mutate(ctx context.Context, roomID string, fn func(*domain.DebateRoom) (domain.RoomEventType, error), side string) (domain.DebateRoom, error) {
	s.locks.Lock("room:" + roomID)
	defer s.locks.Unlock("room:" + roomID)

	room, ok, err := s.repo.GetRoom(roomID)
	if err != nil {
		return domain.DebateRoom{}, fmt.Errorf("поиск комнаты: %w", err)
	}
	if !ok {
		return domain.DebateRoom{}, domain.ErrRoomNotFound
	}
	eventType, err := fn(&room)
	if err != nil {
		return domain.DebateRoom{}, err
	}
	saved, err := s.repo.UpdateRoom(room)
	if err != nil {
		return domain.DebateRoom{}, fmt.Errorf("сохранение комнаты: %w", err)
	}
	s.emit(ctx, domain.RoomEvent{Type: eventType, RoomID: saved.ID, RoomName: saved.RoomName, Topic: saved.Topic, Side: side, OccurredAt: time.Now().UTC()})
	return saved, nil
}

func (s *Service) emit(ctx context.Context, event domain.RoomEvent) {
	if s.events != nil {
		if err := s.events.Publish(ctx, event); err != nil {
			s.log.Warn().Err(err).Str("event", string(event.Type)).Msg("rooms: событие не опубликовано")
		}
	}
	if s.audit != nil {
		if err := s.audit.RecordRoomEvent(ctx, event); err != nil {
			s.log.Warn().Err(err).Str("event", string(event.Type)).Msg("rooms: журнал недоступен")
		}
	}
}
