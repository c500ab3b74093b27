package requests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"inclear-debates/internal/adapters/store"
	"inclear-debates/internal/domain"
)

type stubRegistry struct {
	active      map[string]domain.DebateRoom
	createCalls int
	failCreate  bool
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{active: make(map[string]domain.DebateRoom)}
}

func (s *stubRegistry) CreateForTopic(ctx context.Context, topic, articleID string) (domain.DebateRoom, error) {
	s.createCalls++
	if s.failCreate {
		return domain.DebateRoom{}, errors.New("registry down")
	}
	key := domain.NormalizeTopic(topic)
	room := domain.DebateRoom{
		ID:        fmt.Sprintf("room-%d", s.createCalls),
		RoomName:  fmt.Sprintf("debate-%d-test", s.createCalls),
		Topic:     topic,
		TopicKey:  key,
		Status:    domain.RoomActive,
		CreatedAt: time.Now().UTC(),
	}
	s.active[key] = room
	return room, nil
}

func (s *stubRegistry) ActiveRoom(topic string) (domain.DebateRoom, bool) {
	room, ok := s.active[domain.NormalizeTopic(topic)]
	return room, ok
}

func newService(registry *stubRegistry) *Service {
	return NewService(store.NewMemory(), registry, nil, 5, zerolog.Nop())
}

func TestSubmitRecordsAndCounts(t *testing.T) {
	service := newService(newStubRegistry())
	result, err := service.Submit(context.Background(), "Climate Change", "user-1", "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if result.Status != StatusRecorded {
		t.Fatalf("ожидали recorded, получили %s", result.Status)
	}
	if result.PendingCount != 1 {
		t.Fatalf("ожидали счётчик 1, получили %d", result.PendingCount)
	}
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	service := newService(newStubRegistry())
	ctx := context.Background()
	if _, err := service.Submit(ctx, "climate change", "user-1", ""); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	result, err := service.Submit(ctx, "Climate  Change", "user-1", "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if result.Status != StatusDuplicate {
		t.Fatalf("ожидали duplicate, получили %s", result.Status)
	}
	if result.PendingCount != 1 {
		t.Fatalf("дубликат не должен менять счётчик: %d", result.PendingCount)
	}
}

func TestThresholdCreatesRoomExactlyOnce(t *testing.T) {
	registry := newStubRegistry()
	service := newService(registry)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		result, err := service.Submit(ctx, "climate change", fmt.Sprintf("user-%d", i), "")
		if err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
		if result.Room != nil {
			t.Fatalf("комната не должна создаваться до порога")
		}
	}
	result, err := service.Submit(ctx, "climate change", "user-5", "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if result.Room == nil {
		t.Fatalf("пятая заявка должна создать комнату")
	}
	if registry.createCalls != 1 {
		t.Fatalf("ожидали ровно одну попытку создания, получили %d", registry.createCalls)
	}

	status, err := service.Status("climate change", "user-1")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if status.PendingCount != 0 {
		t.Fatalf("после создания комнаты ожидающих заявок быть не должно: %d", status.PendingCount)
	}
	if !status.Requested {
		t.Fatalf("заявка сохраняется в истории и после перехода в room_created")
	}
}

func TestActiveRoomShortCircuitsNewRequests(t *testing.T) {
	registry := newStubRegistry()
	service := newService(registry)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if _, err := service.Submit(ctx, "climate change", fmt.Sprintf("user-%d", i), ""); err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
	}
	result, err := service.Submit(ctx, "climate change", "late-user", "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if result.Status != StatusAlreadyActive {
		t.Fatalf("ожидали already_active, получили %s", result.Status)
	}
	if result.Room == nil {
		t.Fatalf("ответ должен вести опоздавшего в существующую комнату")
	}
	if registry.createCalls != 1 {
		t.Fatalf("новых комнат создаваться не должно: %d", registry.createCalls)
	}
}

func TestRoomCreationFailureKeepsRequestsPending(t *testing.T) {
	registry := newStubRegistry()
	registry.failCreate = true
	service := newService(registry)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		if _, err := service.Submit(ctx, "climate change", fmt.Sprintf("user-%d", i), ""); err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
	}
	result, err := service.Submit(ctx, "climate change", "user-5", "")
	if err == nil {
		t.Fatalf("ожидали ошибку создания комнаты")
	}
	if result.Status != StatusRecorded {
		t.Fatalf("заявка должна остаться записанной: %s", result.Status)
	}

	status, err := service.Status("climate change", "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if status.PendingCount != 5 {
		t.Fatalf("заявки должны остаться в pending для повтора: %d", status.PendingCount)
	}

	// следующая заявка повторяет попытку
	registry.failCreate = false
	retry, err := service.Submit(ctx, "climate change", "user-6", "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if retry.Room == nil {
		t.Fatalf("повторная попытка должна создать комнату")
	}
	if registry.createCalls != 2 {
		t.Fatalf("ожидали две попытки создания, получили %d", registry.createCalls)
	}
}

func TestConcurrentSubmitsCreateExactlyOneRoom(t *testing.T) {
	registry := newStubRegistry()
	service := newService(registry)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = service.Submit(ctx, "climate change", fmt.Sprintf("user-%d", i), "")
		}(i)
	}
	wg.Wait()

	if registry.createCalls != 1 {
		t.Fatalf("ожидали ровно одну попытку создания комнаты, получили %d", registry.createCalls)
	}
	status, err := service.Status("climate change", "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if status.Room == nil {
		t.Fatalf("после порога должна существовать активная комната")
	}
}

func TestSubmitValidatesInput(t *testing.T) {
	service := newService(newStubRegistry())
	if _, err := service.Submit(context.Background(), "  ", "user-1", ""); err == nil {
		t.Fatalf("пустая тема должна отклоняться")
	}
	if _, err := service.Submit(context.Background(), "topic", "", ""); err == nil {
		t.Fatalf("пустой автор должен отклоняться")
	}
}
