package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"inclear-debates/internal/adapters/classifier"
	"inclear-debates/internal/adapters/repo"
	"inclear-debates/internal/adapters/store"
	"inclear-debates/internal/domain"
	"inclear-debates/internal/infra/config"
	"inclear-debates/internal/infra/db"
	httpinfra "inclear-debates/internal/infra/http"
	applog "inclear-debates/internal/infra/log"
	"inclear-debates/internal/infra/metrics"
	"inclear-debates/internal/infra/openai"
	"inclear-debates/internal/infra/queue"
	moderationusecase "inclear-debates/internal/usecase/moderation"
	pollsusecase "inclear-debates/internal/usecase/polls"
	requestsusecase "inclear-debates/internal/usecase/requests"
	roomsusecase "inclear-debates/internal/usecase/rooms"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	memory := store.NewMemory()

	var audit domain.AuditRepo
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к БД")
		}
		defer pool.Close()
		audit = repo.NewPostgres(pool)
	}

	var pollRepo domain.PollRepo = memory
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к Redis")
		}
		defer client.Close()
		pollRepo = store.NewRedisPolls(client)
	}

	var events domain.RoomEventPublisher
	if cfg.Rabbit.URL != "" {
		rabbit, err := queue.NewRabbitRoomEvents(cfg.Rabbit.URL, cfg.Rabbit.Queue)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к RabbitMQ")
		}
		defer rabbit.Close()
		events = rabbit
	}

	var contentClassifier domain.Classifier
	if cfg.OpenAI.APIKey != "" {
		openaiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
		contentClassifier = classifier.NewOpenAI(openaiClient, cfg.OpenAI.Model, cfg.OpenAI.Timeout)
	} else {
		logger.Warn().Msg("api: классификатор контента не настроен, действует список ключевых слов")
	}

	roomService := roomsusecase.NewService(memory, events, audit, logger.With().Str("component", "rooms").Logger())
	requestService := requestsusecase.NewService(memory, roomService, audit, cfg.Debate.RequestThreshold, logger.With().Str("component", "requests").Logger())
	moderationService := moderationusecase.NewService(contentClassifier, cfg.Debate.MaxInterruptions, cfg.Debate.SpeakingLimit, logger.With().Str("component", "moderation").Logger())
	pollService := pollsusecase.NewService(pollRepo, logger.With().Str("component", "polls").Logger())

	srv := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	r := srv.Router

	r.Post("/api/v1/debate-requests", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req submitRequestBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if domain.NormalizeTopic(req.Topic) == "" {
			writeError(w, http.StatusBadRequest, "topic is required")
			return
		}
		if req.RequesterID == "" {
			writeError(w, http.StatusBadRequest, "requester_id is required")
			return
		}
		result, err := requestService.Submit(r.Context(), req.Topic, req.RequesterID, req.ArticleID)
		if err != nil {
			logger.Error().Err(err).Str("topic", req.Topic).Msg("api: подача заявки")
			writeError(w, http.StatusBadGateway, "failed to create debate room")
			return
		}
		resp := map[string]any{
			"status":        string(result.Status),
			"request_count": result.PendingCount,
			"needed":        requestService.Threshold(),
		}
		if result.Room != nil {
			resp["room"] = roomPayload(*result.Room)
		}
		writeJSON(w, resp)
	})

	r.Get("/api/v1/debate-requests/{topic}", func(w http.ResponseWriter, r *http.Request) {
		topic := pathParam(r, "topic")
		status, err := requestService.Status(topic, r.URL.Query().Get("requester_id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load topic status")
			return
		}
		resp := map[string]any{
			"pending_count": status.PendingCount,
			"needed":        requestService.Threshold(),
			"requested":     status.Requested,
		}
		if status.Room != nil {
			resp["room"] = roomPayload(*status.Room)
		}
		writeJSON(w, resp)
	})

	r.Get("/api/v1/debate-rooms/{topic}", func(w http.ResponseWriter, r *http.Request) {
		topic := pathParam(r, "topic")
		room, ok := roomService.ActiveRoom(topic)
		if !ok {
			writeError(w, http.StatusNotFound, "no active room for topic")
			return
		}
		writeJSON(w, roomPayload(room))
	})

	r.Post("/api/v1/debate-rooms/{roomID}/join", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		side, ok := decodeSide(w, r)
		if !ok {
			return
		}
		room, err := roomService.JoinSide(r.Context(), chi.URLParam(r, "roomID"), side)
		if err != nil {
			writeRoomError(w, err)
			return
		}
		writeJSON(w, roomPayload(room))
	})

	r.Post("/api/v1/debate-rooms/{roomID}/leave", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		side, ok := decodeSide(w, r)
		if !ok {
			return
		}
		room, err := roomService.LeaveSide(r.Context(), chi.URLParam(r, "roomID"), side)
		if err != nil {
			writeRoomError(w, err)
			return
		}
		writeJSON(w, roomPayload(room))
	})

	r.Post("/api/v1/debate-rooms/{roomID}/end", func(w http.ResponseWriter, r *http.Request) {
		room, err := roomService.EndRoom(r.Context(), chi.URLParam(r, "roomID"))
		if err != nil {
			writeRoomError(w, err)
			return
		}
		writeJSON(w, roomPayload(room))
	})

	r.Post("/api/v1/moderation/evaluate", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req evaluateBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ParticipantID == "" {
			writeError(w, http.StatusBadRequest, "participant_id is required")
			return
		}
		action := moderationService.Evaluate(r.Context(), domain.Turn{
			ParticipantID:     req.ParticipantID,
			Transcript:        req.Transcript,
			SpeakingTime:      time.Duration(req.SpeakingTimeSeconds * float64(time.Second)),
			InterruptionCount: req.InterruptionCount,
			Topic:             req.Topic,
		})
		writeJSON(w, map[string]any{
			"action":  string(action.Verdict),
			"message": action.Message,
		})
	})

	r.Get("/api/v1/polls/{id}", func(w http.ResponseWriter, r *http.Request) {
		tally, err := pollService.Results(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load poll")
			return
		}
		writeJSON(w, tallyPayload(tally))
	})

	r.Post("/api/v1/polls/{id}/vote", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req voteBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tally, err := pollService.Vote(r.Context(), chi.URLParam(r, "id"), req.Side, req.VoterID)
		switch {
		case errors.Is(err, domain.ErrAlreadyVoted):
			writeErrorWithPayload(w, http.StatusConflict, "voter has already voted", tallyPayload(tally))
			return
		case errors.Is(err, domain.ErrInvalidSide):
			writeError(w, http.StatusBadRequest, "side must be A or B")
			return
		case err != nil:
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, tallyPayload(tally))
	})

	go func() {
		if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

type submitRequestBody struct {
	Topic       string `json:"topic"`
	RequesterID string `json:"requester_id"`
	ArticleID   string `json:"article_id"`
}

type sideBody struct {
	Side string `json:"side"`
}

type evaluateBody struct {
	ParticipantID       string  `json:"participant_id"`
	Transcript          string  `json:"transcript"`
	SpeakingTimeSeconds float64 `json:"speaking_time_seconds"`
	InterruptionCount   int     `json:"interruption_count"`
	Topic               string  `json:"topic"`
}

type voteBody struct {
	Side    string `json:"side"`
	VoterID string `json:"voter_id"`
}

// pathParam достаёт параметр пути с учётом URL-кодирования:
// темы — свободный текст с пробелами.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func decodeSide(w http.ResponseWriter, r *http.Request) (domain.Side, bool) {
	var req sideBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	side, err := domain.ParseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, "side must be A or B")
		return "", false
	}
	return side, true
}

func roomPayload(room domain.DebateRoom) map[string]any {
	payload := map[string]any{
		"id":           room.ID,
		"room_name":    room.RoomName,
		"topic":        room.Topic,
		"status":       string(room.Status),
		"side_a":       room.SideACount,
		"side_b":       room.SideBCount,
		"participants": room.Participants,
		"created_at":   room.CreatedAt.Format(time.RFC3339),
	}
	if room.ArticleID != "" {
		payload["article_id"] = room.ArticleID
	}
	if room.EndedAt != nil {
		payload["ended_at"] = room.EndedAt.Format(time.RFC3339)
	}
	return payload
}

func tallyPayload(tally domain.Tally) map[string]any {
	total := tally.SideA + tally.SideB
	payload := map[string]any{
		"a":     tally.SideA,
		"b":     tally.SideB,
		"total": total,
	}
	if total > 0 {
		payload["a_share"] = float64(tally.SideA) / float64(total)
		payload["b_share"] = float64(tally.SideB) / float64(total)
	}
	return payload
}

func writeRoomError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "room not found")
	case errors.Is(err, domain.ErrRoomEnded):
		writeError(w, http.StatusConflict, "room already ended")
	case errors.Is(err, domain.ErrActiveRoomExists):
		writeError(w, http.StatusConflict, "active room already exists")
	case errors.Is(err, domain.ErrInvalidSide):
		writeError(w, http.StatusBadRequest, "side must be A or B")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

func writeErrorWithPayload(w http.ResponseWriter, status int, msg string, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload["error"] = msg
	_ = json.NewEncoder(w).Encode(payload)
}
