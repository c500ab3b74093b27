package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"inclear-debates/internal/domain"
)

func TestMarkRoomCreatedMovesOnlyPending(t *testing.T) {
	m := NewMemory()
	for i := 0; i < 3; i++ {
		_, _ = m.SaveRequest(domain.DebateRequest{
			ID:          fmt.Sprintf("req-%d", i),
			TopicKey:    "climate change",
			RequesterID: fmt.Sprintf("user-%d", i),
			Status:      domain.RequestPending,
		})
	}
	moved, err := m.MarkRoomCreated("climate change")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if moved != 3 {
		t.Fatalf("ожидали 3 переведённые заявки, получили %d", moved)
	}
	count, _ := m.CountPending("climate change")
	if count != 0 {
		t.Fatalf("ожидающих заявок остаться не должно: %d", count)
	}
	// заявки не удаляются
	list, _ := m.ListRequests("climate change")
	if len(list) != 3 {
		t.Fatalf("история заявок должна сохраняться: %d", len(list))
	}
	moved, _ = m.MarkRoomCreated("climate change")
	if moved != 0 {
		t.Fatalf("повторный перевод не должен ничего менять: %d", moved)
	}
}

func TestActiveRoomIndex(t *testing.T) {
	m := NewMemory()
	room := domain.DebateRoom{ID: "r1", TopicKey: "climate change", Status: domain.RoomActive}
	if _, err := m.SaveRoom(room); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	got, ok, _ := m.GetActiveRoom("climate change")
	if !ok || got.ID != "r1" {
		t.Fatalf("активная комната должна находиться по ключу темы")
	}

	room.Status = domain.RoomEnded
	if _, err := m.UpdateRoom(room); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, ok, _ := m.GetActiveRoom("climate change"); ok {
		t.Fatalf("завершённая комната не должна числиться активной")
	}
}

func TestUpdateUnknownRoom(t *testing.T) {
	m := NewMemory()
	if _, err := m.UpdateRoom(domain.DebateRoom{ID: "ghost"}); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("ожидали ErrRoomNotFound, получили %v", err)
	}
}

func TestConcurrentVotesCountOncePerVoter(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	const voters = 50

	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			voter := fmt.Sprintf("viewer-%d", i)
			// каждый голосующий пытается дважды
			_, _ = m.RecordVote(ctx, "debate-1", domain.SideA, voter)
			_, _ = m.RecordVote(ctx, "debate-1", domain.SideB, voter)
		}(i)
	}
	wg.Wait()

	tally, err := m.GetTally(ctx, "debate-1")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if tally.SideA+tally.SideB != voters {
		t.Fatalf("сумма счёта должна равняться числу голосовавших: %d", tally.SideA+tally.SideB)
	}
}

func TestRecordVoteInvalidSideDoesNotBlockVoter(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if _, err := m.RecordVote(ctx, "debate-1", domain.Side("X"), "viewer-1"); !errors.Is(err, domain.ErrInvalidSide) {
		t.Fatalf("ожидали ErrInvalidSide, получили %v", err)
	}
	if _, err := m.RecordVote(ctx, "debate-1", domain.SideA, "viewer-1"); err != nil {
		t.Fatalf("после отклонённой стороны голос должен приниматься: %v", err)
	}
}
