package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inclear-debates/internal/domain"
	openai "inclear-debates/internal/infra/openai"
)

type moderationClient interface {
	CreateModeration(ctx context.Context, req openai.ModerationRequest) (openai.ModerationResponse, error)
}

// OpenAI реализует domain.Classifier через OpenAI Moderations.
type OpenAI struct {
	client  moderationClient
	model   string
	timeout time.Duration
}

var _ domain.Classifier = (*OpenAI)(nil)

// NewOpenAI создаёт классификатор контента.
func NewOpenAI(client moderationClient, model string, timeout time.Duration) *OpenAI {
	if model == "" {
		model = "omni-moderation-latest"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenAI{client: client, model: model, timeout: timeout}
}

// Flagged возвращает true, если текст нарушает политику контента.
// Вызов ограничен собственным таймаутом: движок модерации не должен
// ждать классификатор дольше положенного.
func (c *OpenAI) Flagged(ctx context.Context, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateModeration(ctx, openai.ModerationRequest{
		Model: c.model,
		Input: text,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrClassifierUnavailable, err)
	}
	if len(resp.Results) == 0 {
		return false, nil
	}
	return resp.Results[0].Flagged, nil
}
