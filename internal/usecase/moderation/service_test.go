package moderation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"inclear-debates/internal/domain"
)

type stubClassifier struct {
	flagged bool
	err     error
	calls   int
}

func (s *stubClassifier) Flagged(ctx context.Context, text string) (bool, error) {
	s.calls++
	return s.flagged, s.err
}

func newService(classifier domain.Classifier) *Service {
	return NewService(classifier, 2, 120*time.Second, zerolog.Nop())
}

func TestInterruptionRuleWinsOverEverything(t *testing.T) {
	classifier := &stubClassifier{flagged: true}
	service := newService(classifier)
	action := service.Evaluate(context.Background(), domain.Turn{
		ParticipantID:     "alice",
		Transcript:        "clean transcript",
		SpeakingTime:      10 * time.Second,
		InterruptionCount: 3,
	})
	if action.Verdict != domain.VerdictWarn {
		t.Fatalf("ожидали warn, получили %s", action.Verdict)
	}
	if !strings.Contains(action.Message, "alice") {
		t.Fatalf("сообщение должно называть участника: %q", action.Message)
	}
	if classifier.calls != 0 {
		t.Fatalf("классификатор не должен вызываться после сработавшего правила")
	}
}

func TestInterruptionBoundaryPassesThrough(t *testing.T) {
	service := newService(nil)
	action := service.Evaluate(context.Background(), domain.Turn{
		ParticipantID:     "bob",
		Transcript:        "ok",
		InterruptionCount: 2,
	})
	if action.Verdict != domain.VerdictAllow {
		t.Fatalf("interruption_count == лимиту должен пропускать дальше, получили %s", action.Verdict)
	}
}

func TestSpeakingTimeRule(t *testing.T) {
	service := newService(nil)
	action := service.Evaluate(context.Background(), domain.Turn{
		ParticipantID: "bob",
		SpeakingTime:  121 * time.Second,
	})
	if action.Verdict != domain.VerdictMute {
		t.Fatalf("ожидали mute, получили %s", action.Verdict)
	}
	if !strings.Contains(action.Message, "time is up") {
		t.Fatalf("ожидали сообщение про время: %q", action.Message)
	}
}

func TestSpeakingTimeBoundaryPassesThrough(t *testing.T) {
	service := newService(nil)
	action := service.Evaluate(context.Background(), domain.Turn{
		ParticipantID: "bob",
		SpeakingTime:  120 * time.Second,
	})
	if action.Verdict != domain.VerdictAllow {
		t.Fatalf("ровно лимит не превышение, получили %s", action.Verdict)
	}
}

func TestClassifierFlagMutes(t *testing.T) {
	service := newService(&stubClassifier{flagged: true})
	action := service.Evaluate(context.Background(), domain.Turn{
		ParticipantID: "bob",
		Transcript:    "something vile",
	})
	if action.Verdict != domain.VerdictMute {
		t.Fatalf("ожидали mute по сигналу классификатора, получили %s", action.Verdict)
	}
}

func TestClassifierErrorFallsThroughToKeywords(t *testing.T) {
	service := newService(&stubClassifier{err: errors.New("timeout")})
	action := service.Evaluate(context.Background(), domain.Turn{
		ParticipantID: "bob",
		Transcript:    "you are so stupid",
	})
	if action.Verdict != domain.VerdictWarn {
		t.Fatalf("ошибка классификатора не фатальна, ожидали warn по ключевому слову, получили %s", action.Verdict)
	}
}

func TestClassifierErrorWithCleanTranscriptAllows(t *testing.T) {
	service := newService(&stubClassifier{err: errors.New("unavailable")})
	action := service.Evaluate(context.Background(), domain.Turn{
		ParticipantID: "bob",
		Transcript:    "a perfectly polite remark",
	})
	if action.Verdict != domain.VerdictAllow {
		t.Fatalf("ожидали allow, получили %s", action.Verdict)
	}
}

func TestClassifierSkippedWithoutTranscript(t *testing.T) {
	classifier := &stubClassifier{}
	service := newService(classifier)
	_ = service.Evaluate(context.Background(), domain.Turn{ParticipantID: "bob"})
	if classifier.calls != 0 {
		t.Fatalf("без текста классификатор не вызывается")
	}
}

func TestKeywordFallbackWithoutClassifier(t *testing.T) {
	service := newService(nil)
	action := service.Evaluate(context.Background(), domain.Turn{
		ParticipantID: "bob",
		Transcript:    "you are so stupid",
		SpeakingTime:  5 * time.Second,
	})
	if action.Verdict != domain.VerdictWarn {
		t.Fatalf("ожидали warn по ключевому слову, получили %s", action.Verdict)
	}
}

func TestOffTopicWarns(t *testing.T) {
	service := newService(nil)
	transcript := "let me tell you about my favourite football team and its results"
	if len(transcript) <= 50 {
		t.Fatalf("текст должен быть длиннее 50 символов")
	}
	action := service.Evaluate(context.Background(), domain.Turn{
		ParticipantID: "bob",
		Transcript:    transcript,
		Topic:         "climate change",
	})
	if action.Verdict != domain.VerdictWarn {
		t.Fatalf("ожидали warn за уход от темы, получили %s", action.Verdict)
	}
	if !strings.Contains(action.Message, "climate change") {
		t.Fatalf("сообщение должно называть тему: %q", action.Message)
	}
}

func TestOnTopicAllows(t *testing.T) {
	service := newService(nil)
	action := service.Evaluate(context.Background(), domain.Turn{
		ParticipantID: "bob",
		Transcript:    "the climate data from the last decade shows a clear warming trend",
		Topic:         "climate change",
	})
	if action.Verdict != domain.VerdictAllow {
		t.Fatalf("ожидали allow, получили %s", action.Verdict)
	}
}

func TestShortTranscriptSkipsTopicCheck(t *testing.T) {
	service := newService(nil)
	action := service.Evaluate(context.Background(), domain.Turn{
		ParticipantID: "bob",
		Transcript:    "short remark",
		Topic:         "climate change",
	})
	if action.Verdict != domain.VerdictAllow {
		t.Fatalf("короткий текст не проверяется на тему, получили %s", action.Verdict)
	}
}
