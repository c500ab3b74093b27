package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"inclear-debates/internal/domain"
	"inclear-debates/internal/infra/metrics"
)

// RedisPolls реализует domain.PollRepo поверх Redis: множество
// голосовавших служит атомарным барьером дедупликации (SADD),
// счёт хранится в хэше.
type RedisPolls struct {
	client *redis.Client
}

var _ domain.PollRepo = (*RedisPolls)(nil)

// NewRedisPolls создаёт хранилище голосований.
func NewRedisPolls(client *redis.Client) *RedisPolls {
	return &RedisPolls{client: client}
}

func votersKey(pollID string) string { return "poll:" + pollID + ":voters" }
func tallyKey(pollID string) string  { return "poll:" + pollID + ":tally" }

func sideField(side domain.Side) string {
	if side == domain.SideA {
		return "a"
	}
	return "b"
}

// RecordVote учитывает голос не более одного раза на пару poll/voter.
func (r *RedisPolls) RecordVote(ctx context.Context, pollID string, side domain.Side, voterID string) (domain.Tally, error) {
	if side != domain.SideA && side != domain.SideB {
		return domain.Tally{}, domain.ErrInvalidSide
	}
	start := time.Now()
	added, err := r.client.SAdd(ctx, votersKey(pollID), voterID).Result()
	metrics.ObserveNetworkRequest("redis", "poll_vote_sadd", pollID, start, err)
	if err != nil {
		return domain.Tally{}, fmt.Errorf("redis sadd: %w", err)
	}
	if added == 0 {
		tally, err := r.GetTally(ctx, pollID)
		if err != nil {
			return domain.Tally{}, err
		}
		return tally, domain.ErrAlreadyVoted
	}
	start = time.Now()
	err = r.client.HIncrBy(ctx, tallyKey(pollID), sideField(side), 1).Err()
	metrics.ObserveNetworkRequest("redis", "poll_vote_incr", pollID, start, err)
	if err != nil {
		// откатываем барьер, чтобы голос можно было повторить
		_ = r.client.SRem(ctx, votersKey(pollID), voterID).Err()
		return domain.Tally{}, fmt.Errorf("redis hincrby: %w", err)
	}
	return r.GetTally(ctx, pollID)
}

// GetTally возвращает счёт; для неизвестного голосования нули.
func (r *RedisPolls) GetTally(ctx context.Context, pollID string) (domain.Tally, error) {
	start := time.Now()
	raw, err := r.client.HGetAll(ctx, tallyKey(pollID)).Result()
	metrics.ObserveNetworkRequest("redis", "poll_tally_get", pollID, start, err)
	if err != nil {
		return domain.Tally{}, fmt.Errorf("redis hgetall: %w", err)
	}
	var tally domain.Tally
	if v, ok := raw["a"]; ok {
		tally.SideA, _ = strconv.Atoi(v)
	}
	if v, ok := raw["b"]; ok {
		tally.SideB, _ = strconv.Atoi(v)
	}
	return tally, nil
}
