package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"inclear-debates/internal/domain"
	openai "inclear-debates/internal/infra/openai"
)

type stubModerationClient struct {
	resp  openai.ModerationResponse
	err   error
	calls int
	last  openai.ModerationRequest
}

func (s *stubModerationClient) CreateModeration(ctx context.Context, req openai.ModerationRequest) (openai.ModerationResponse, error) {
	s.calls++
	s.last = req
	return s.resp, s.err
}

func TestFlagged(t *testing.T) {
	client := &stubModerationClient{resp: openai.ModerationResponse{
		Results: []openai.ModerationResult{{Flagged: true}},
	}}
	c := NewOpenAI(client, "omni-moderation-latest", time.Second)
	flagged, err := c.Flagged(context.Background(), "offensive text")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !flagged {
		t.Fatalf("ожидали флаг нарушения")
	}
	if client.last.Input != "offensive text" {
		t.Fatalf("текст должен уходить классификатору как есть")
	}
}

func TestEmptyTextSkipsCall(t *testing.T) {
	client := &stubModerationClient{}
	c := NewOpenAI(client, "", time.Second)
	flagged, err := c.Flagged(context.Background(), "   ")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if flagged {
		t.Fatalf("пустой текст не может быть нарушением")
	}
	if client.calls != 0 {
		t.Fatalf("для пустого текста запрос не выполняется")
	}
}

func TestErrorWrappedAsUnavailable(t *testing.T) {
	client := &stubModerationClient{err: errors.New("timeout")}
	c := NewOpenAI(client, "", time.Second)
	if _, err := c.Flagged(context.Background(), "text"); !errors.Is(err, domain.ErrClassifierUnavailable) {
		t.Fatalf("ожидали ErrClassifierUnavailable, получили %v", err)
	}
}

func TestEmptyResultsMeansNoSignal(t *testing.T) {
	client := &stubModerationClient{}
	c := NewOpenAI(client, "", time.Second)
	flagged, err := c.Flagged(context.Background(), "text")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if flagged {
		t.Fatalf("пустой ответ трактуется как отсутствие сигнала")
	}
}
