package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"inclear-debates/internal/domain"
	"inclear-debates/internal/infra/metrics"
)

// disrespectKeywords резервный список, когда внешний классификатор
// не настроен или молчит.
var disrespectKeywords = []string{
	"stupid",
	"idiot",
	"dumb",
	"shut up",
	"moron",
	"pathetic",
}

const offTopicMinLength = 50

// Service оценивает отрезок речи участника по фиксированной цепочке
// правил. Первое сработавшее правило выигрывает, дальше цепочка
// не проверяется. Порядок зафиксирован: нарушения регламента
// (перебивания, перерасход времени, недопустимый контент) важнее
// мягких сигналов (тон, релевантность).
type Service struct {
	classifier       domain.Classifier
	maxInterruptions int
	speakingLimit    time.Duration
	log              zerolog.Logger
}

// NewService создаёт движок модерации. classifier может быть nil:
// тогда правило контента пропускается в пользу списка ключевых слов.
func NewService(classifier domain.Classifier, maxInterruptions int, speakingLimit time.Duration, logger zerolog.Logger) *Service {
	if maxInterruptions <= 0 {
		maxInterruptions = 2
	}
	if speakingLimit <= 0 {
		speakingLimit = 120 * time.Second
	}
	return &Service{
		classifier:       classifier,
		maxInterruptions: maxInterruptions,
		speakingLimit:    speakingLimit,
		log:              logger,
	}
}

// Evaluate возвращает ровно одно действие для отрезка речи.
func (s *Service) Evaluate(ctx context.Context, turn domain.Turn) domain.ModerationAction {
	start := time.Now()
	action := s.evaluate(ctx, turn)
	metrics.ModerationEvaluateSeconds.Observe(time.Since(start).Seconds())
	metrics.ModerationActions.WithLabelValues(string(action.Verdict)).Inc()
	return action
}

func (s *Service) evaluate(ctx context.Context, turn domain.Turn) domain.ModerationAction {
	if turn.InterruptionCount > s.maxInterruptions {
		return domain.ModerationAction{
			Verdict: domain.VerdictWarn,
			Message: fmt.Sprintf("%s, please let the other side finish: repeated interruptions violate debate rules.", turn.ParticipantID),
		}
	}

	if turn.SpeakingTime > s.speakingLimit {
		return domain.ModerationAction{
			Verdict: domain.VerdictMute,
			Message: fmt.Sprintf("%s, your speaking time is up. The floor passes to the other side.", turn.ParticipantID),
		}
	}

	transcript := strings.TrimSpace(turn.Transcript)
	if transcript != "" && s.classifier != nil {
		flagged, err := s.classifier.Flagged(ctx, transcript)
		if err != nil {
			// классификатор недоступен: сигнала нет, цепочка продолжается
			metrics.ClassifierErrors.Inc()
			s.log.Warn().Err(err).Str("participant", turn.ParticipantID).Msg("moderation: классификатор недоступен")
		} else if flagged {
			return domain.ModerationAction{
				Verdict: domain.VerdictMute,
				Message: "Your last statement violates the content policy and has been muted.",
			}
		}
	}

	lower := strings.ToLower(transcript)
	for _, keyword := range disrespectKeywords {
		if strings.Contains(lower, keyword) {
			return domain.ModerationAction{
				Verdict: domain.VerdictWarn,
				Message: "Please keep the discussion respectful.",
			}
		}
	}

	if turn.Topic != "" && len(transcript) > offTopicMinLength && !mentionsTopic(lower, turn.Topic) {
		return domain.ModerationAction{
			Verdict: domain.VerdictWarn,
			Message: fmt.Sprintf("Let's keep the discussion focused on the topic: %s.", turn.Topic),
		}
	}

	return domain.ModerationAction{Verdict: domain.VerdictAllow}
}

// mentionsTopic проверяет, встречается ли хотя бы одно слово темы
// в тексте (без учёта регистра, вхождением подстроки).
func mentionsTopic(lowerTranscript, topic string) bool {
	for _, keyword := range strings.Fields(strings.ToLower(topic)) {
		if strings.Contains(lowerTranscript, keyword) {
			return true
		}
	}
	return false
}
