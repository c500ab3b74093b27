package requests

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"inclear-debates/internal/adapters/store"
	"inclear-debates/internal/domain"
	"inclear-debates/internal/infra/metrics"
)

// SubmitStatus исход подачи заявки.
type SubmitStatus string

const (
	// StatusRecorded заявка записана.
	StatusRecorded SubmitStatus = "recorded"
	// StatusDuplicate у автора уже есть заявка по теме.
	StatusDuplicate SubmitStatus = "duplicate"
	// StatusAlreadyActive по теме уже идут дебаты, заявка не нужна.
	StatusAlreadyActive SubmitStatus = "already_active"
)

// SubmitResult результат подачи заявки.
type SubmitResult struct {
	Status       SubmitStatus
	PendingCount int
	Room         *domain.DebateRoom
}

// TopicStatus сводка по теме для отображения "N из M".
type TopicStatus struct {
	PendingCount int
	Requested    bool
	Room         *domain.DebateRoom
}

type roomRegistry interface {
	CreateForTopic(ctx context.Context, topic, articleID string) (domain.DebateRoom, error)
	ActiveRoom(topic string) (domain.DebateRoom, bool)
}

// Service копит заявки на дебаты по темам и по достижении порога
// создаёт комнату через реестр.
type Service struct {
	repo      domain.RequestRepo
	registry  roomRegistry
	audit     domain.AuditRepo
	locks     *store.KeyedMutex
	threshold int
	log       zerolog.Logger
}

// NewService создаёт агрегатор заявок. audit может быть nil.
func NewService(repo domain.RequestRepo, registry roomRegistry, audit domain.AuditRepo, threshold int, logger zerolog.Logger) *Service {
	if threshold <= 0 {
		threshold = 5
	}
	return &Service{
		repo:      repo,
		registry:  registry,
		audit:     audit,
		locks:     store.NewKeyedMutex(),
		threshold: threshold,
		log:       logger,
	}
}

// Threshold возвращает порог создания комнаты.
func (s *Service) Threshold() int {
	return s.threshold
}

// Submit записывает заявку и, если тема набрала порог, создаёт комнату
// и закрывает все ожидающие заявки темы. При сбое создания комнаты
// заявки остаются в статусе pending, ошибка уходит вызывающему:
// следующая заявка повторит попытку.
func (s *Service) Submit(ctx context.Context, topic, requesterID, articleID string) (SubmitResult, error) {
	key := domain.NormalizeTopic(topic)
	if key == "" {
		return SubmitResult{}, fmt.Errorf("тема пуста")
	}
	if requesterID == "" {
		return SubmitResult{}, fmt.Errorf("не указан автор заявки")
	}

	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	if room, ok := s.registry.ActiveRoom(topic); ok {
		metrics.DebateRequestsRejected.WithLabelValues("already_active").Inc()
		count, err := s.repo.CountPending(key)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("подсчёт заявок: %w", err)
		}
		return SubmitResult{Status: StatusAlreadyActive, PendingCount: count, Room: &room}, nil
	}

	has, err := s.repo.HasRequest(key, requesterID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("проверка дубликата: %w", err)
	}
	if has {
		metrics.DebateRequestsRejected.WithLabelValues("duplicate").Inc()
		count, err := s.repo.CountPending(key)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("подсчёт заявок: %w", err)
		}
		return SubmitResult{Status: StatusDuplicate, PendingCount: count}, nil
	}

	req := domain.DebateRequest{
		ID:          uuid.NewString(),
		Topic:       topic,
		TopicKey:    key,
		ArticleID:   articleID,
		RequesterID: requesterID,
		Side:        "neutral",
		Status:      domain.RequestPending,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.repo.SaveRequest(req); err != nil {
		return SubmitResult{}, fmt.Errorf("сохранение заявки: %w", err)
	}
	metrics.DebateRequestsTotal.Inc()
	s.recordAudit(ctx, req)

	count, err := s.repo.CountPending(key)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("подсчёт заявок: %w", err)
	}
	if count < s.threshold {
		return SubmitResult{Status: StatusRecorded, PendingCount: count}, nil
	}

	room, err := s.registry.CreateForTopic(ctx, topic, articleID)
	if err != nil {
		s.log.Error().Err(err).Str("topic", key).Int("pending", count).Msg("requests: не удалось создать комнату")
		return SubmitResult{Status: StatusRecorded, PendingCount: count}, fmt.Errorf("создание комнаты: %w", err)
	}
	moved, err := s.repo.MarkRoomCreated(key)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("закрытие заявок: %w", err)
	}
	s.log.Info().Str("topic", key).Str("room", room.RoomName).Int("requests", moved).Msg("requests: порог достигнут, комната создана")
	return SubmitResult{Status: StatusRecorded, PendingCount: count, Room: &room}, nil
}

// Status возвращает сводку по теме.
func (s *Service) Status(topic, requesterID string) (TopicStatus, error) {
	key := domain.NormalizeTopic(topic)

	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	count, err := s.repo.CountPending(key)
	if err != nil {
		return TopicStatus{}, fmt.Errorf("подсчёт заявок: %w", err)
	}
	status := TopicStatus{PendingCount: count}
	if requesterID != "" {
		has, err := s.repo.HasRequest(key, requesterID)
		if err != nil {
			return TopicStatus{}, fmt.Errorf("проверка заявки: %w", err)
		}
		status.Requested = has
	}
	if room, ok := s.registry.ActiveRoom(topic); ok {
		status.Room = &room
	}
	return status, nil
}

func (s *Service) recordAudit(ctx context.Context, req domain.DebateRequest) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordRequest(ctx, req); err != nil {
		s.log.Warn().Err(err).Str("request", req.ID).Msg("requests: журнал недоступен")
	}
}
