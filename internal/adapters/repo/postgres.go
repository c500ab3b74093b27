package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"inclear-debates/internal/domain"
	"inclear-debates/internal/infra/metrics"
)

// Postgres пишет append-only журнал заявок и событий комнат.
// Журнал не участвует в принятии решений ядра и пишется best-effort.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.AuditRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 5*time.Second)
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// RecordRequest сохраняет заявку в журнал.
func (p *Postgres) RecordRequest(ctx context.Context, req domain.DebateRequest) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var articleID sql.NullString
	if req.ArticleID != "" {
		articleID = sql.NullString{String: req.ArticleID, Valid: true}
	}

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO debate_requests_audit (request_id, topic, topic_key, article_id, requester_id, side, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, req.ID, req.Topic, req.TopicKey, articleID, req.RequesterID, req.Side, string(req.Status), req.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "request_audit_insert", "debate_requests_audit", start, err)
	return err
}

// RecordRoomEvent сохраняет событие комнаты в журнал.
func (p *Postgres) RecordRoomEvent(ctx context.Context, event domain.RoomEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var side sql.NullString
	if event.Side != "" {
		side = sql.NullString{String: event.Side, Valid: true}
	}

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO debate_room_events (event_type, room_id, room_name, topic, side, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, string(event.Type), event.RoomID, event.RoomName, event.Topic, side, event.OccurredAt)
	metrics.ObserveNetworkRequest("postgres", "room_event_insert", "debate_room_events", start, err)
	return err
}
