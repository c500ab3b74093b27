package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	DebateRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debate_requests_total",
		Help: "Записанные заявки на дебаты",
	})
	DebateRequestsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "debate_requests_rejected_total",
		Help: "Отклонённые заявки по причинам",
	}, []string{"reason"})
	DebateRoomsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debate_rooms_created_total",
		Help: "Созданные комнаты дебатов",
	})
	DebateRoomsEnded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debate_rooms_ended_total",
		Help: "Завершённые комнаты дебатов",
	})
	PollVotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poll_votes_total",
		Help: "Учтённые голоса по сторонам",
	}, []string{"side"})
	ModerationActions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_actions_total",
		Help: "Вердикты движка модерации",
	}, []string{"verdict"})
	ModerationEvaluateSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "moderation_evaluate_seconds",
		Help:    "Время оценки одного отрезка речи",
		Buckets: prometheus.DefBuckets,
	})
	ClassifierErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "classifier_errors_total",
		Help: "Ошибки внешнего классификатора контента",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		DebateRequestsTotal,
		DebateRequestsRejected,
		DebateRoomsCreated,
		DebateRoomsEnded,
		PollVotesTotal,
		ModerationActions,
		ModerationEvaluateSeconds,
		ClassifierErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}
