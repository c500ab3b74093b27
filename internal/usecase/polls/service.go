package polls

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"inclear-debates/internal/domain"
	"inclear-debates/internal/infra/metrics"
)

// Service ведёт голосования зрителей по комнатам дебатов.
// Голосование создаётся первым голосом; чтение несуществующего
// голосования возвращает нулевой счёт.
type Service struct {
	repo domain.PollRepo
	log  zerolog.Logger
}

// NewService создаёт сервис голосований.
func NewService(repo domain.PollRepo, logger zerolog.Logger) *Service {
	return &Service{repo: repo, log: logger}
}

// Vote учитывает голос. Возвращает domain.ErrAlreadyVoted, если голос
// от этого участника уже есть, вместе с текущим счётом.
func (s *Service) Vote(ctx context.Context, pollID, rawSide, voterID string) (domain.Tally, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return domain.Tally{}, fmt.Errorf("не указан id голосования")
	}
	if strings.TrimSpace(voterID) == "" {
		return domain.Tally{}, fmt.Errorf("не указан голосующий")
	}
	side, err := domain.ParseSide(rawSide)
	if err != nil {
		return domain.Tally{}, err
	}
	tally, err := s.repo.RecordVote(ctx, pollID, side, voterID)
	if err != nil {
		return tally, err
	}
	metrics.PollVotesTotal.WithLabelValues(string(side)).Inc()
	return tally, nil
}

// Results возвращает текущий счёт голосования.
func (s *Service) Results(ctx context.Context, pollID string) (domain.Tally, error) {
	return s.repo.GetTally(ctx, pollID)
}
