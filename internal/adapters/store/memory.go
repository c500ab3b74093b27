package store

import (
	"context"
	"sync"

	"inclear-debates/internal/domain"
)

// Memory реализует репозитории заявок, комнат и голосований на
// обычных картах под мьютексом. Состояние живёт столько же, сколько
// процесс: долговременное хранение вне зоны ответственности ядра.
type Memory struct {
	mu sync.Mutex

	requests map[string][]domain.DebateRequest
	rooms    map[string]domain.DebateRoom
	active   map[string]string

	polls map[string]*pollState
}

type pollState struct {
	tally  domain.Tally
	voters map[string]struct{}
}

var (
	_ domain.RequestRepo = (*Memory)(nil)
	_ domain.RoomRepo    = (*Memory)(nil)
	_ domain.PollRepo    = (*Memory)(nil)
)

// NewMemory создаёт пустое хранилище.
func NewMemory() *Memory {
	return &Memory{
		requests: make(map[string][]domain.DebateRequest),
		rooms:    make(map[string]domain.DebateRoom),
		active:   make(map[string]string),
		polls:    make(map[string]*pollState),
	}
}

// SaveRequest реализует domain.RequestRepo.
func (m *Memory) SaveRequest(req domain.DebateRequest) (domain.DebateRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.TopicKey] = append(m.requests[req.TopicKey], req)
	return req, nil
}

// HasRequest проверяет, есть ли у автора заявка по теме в любом статусе.
func (m *Memory) HasRequest(topicKey, requesterID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, req := range m.requests[topicKey] {
		if req.RequesterID == requesterID {
			return true, nil
		}
	}
	return false, nil
}

// CountPending возвращает число ожидающих заявок по теме.
func (m *Memory) CountPending(topicKey string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, req := range m.requests[topicKey] {
		if req.Status == domain.RequestPending {
			count++
		}
	}
	return count, nil
}

// MarkRoomCreated переводит все ожидающие заявки темы в room_created.
func (m *Memory) MarkRoomCreated(topicKey string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	moved := 0
	list := m.requests[topicKey]
	for i := range list {
		if list[i].Status == domain.RequestPending {
			list[i].Status = domain.RequestRoomCreated
			moved++
		}
	}
	return moved, nil
}

// ListRequests возвращает копию заявок темы.
func (m *Memory) ListRequests(topicKey string) ([]domain.DebateRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.requests[topicKey]
	out := make([]domain.DebateRequest, len(list))
	copy(out, list)
	return out, nil
}

// SaveRoom реализует domain.RoomRepo.
func (m *Memory) SaveRoom(room domain.DebateRoom) (domain.DebateRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
	if room.Status == domain.RoomActive {
		m.active[room.TopicKey] = room.ID
	}
	return room, nil
}

// GetRoom возвращает комнату по id.
func (m *Memory) GetRoom(id string) (domain.DebateRoom, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	return room, ok, nil
}

// GetActiveRoom возвращает активную комнату темы, если есть.
func (m *Memory) GetActiveRoom(topicKey string) (domain.DebateRoom, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.active[topicKey]
	if !ok {
		return domain.DebateRoom{}, false, nil
	}
	room, ok := m.rooms[id]
	return room, ok, nil
}

// UpdateRoom перезаписывает комнату и поддерживает индекс активных тем.
func (m *Memory) UpdateRoom(room domain.DebateRoom) (domain.DebateRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.ID]; !ok {
		return domain.DebateRoom{}, domain.ErrRoomNotFound
	}
	m.rooms[room.ID] = room
	if room.Status == domain.RoomEnded && m.active[room.TopicKey] == room.ID {
		delete(m.active, room.TopicKey)
	}
	return room, nil
}

// RecordVote реализует domain.PollRepo: проверка членства и инкремент
// счёта выполняются под одним замком.
func (m *Memory) RecordVote(ctx context.Context, pollID string, side domain.Side, voterID string) (domain.Tally, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	poll, ok := m.polls[pollID]
	if !ok {
		poll = &pollState{voters: make(map[string]struct{})}
		m.polls[pollID] = poll
	}
	if _, voted := poll.voters[voterID]; voted {
		return poll.tally, domain.ErrAlreadyVoted
	}
	switch side {
	case domain.SideA:
		poll.tally.SideA++
	case domain.SideB:
		poll.tally.SideB++
	default:
		return poll.tally, domain.ErrInvalidSide
	}
	poll.voters[voterID] = struct{}{}
	return poll.tally, nil
}

// GetTally возвращает счёт; для неизвестного голосования нули.
func (m *Memory) GetTally(ctx context.Context, pollID string) (domain.Tally, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	poll, ok := m.polls[pollID]
	if !ok {
		return domain.Tally{}, nil
	}
	return poll.tally, nil
}
