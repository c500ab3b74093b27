package domain

import "time"

// Turn описывает один непрерывный отрезок речи участника,
// поданный на оценку модерации.
type Turn struct {
	ParticipantID     string
	Transcript        string
	SpeakingTime      time.Duration
	InterruptionCount int
	Topic             string
}

// Verdict вердикт движка модерации.
type Verdict string

const (
	// VerdictAllow участник продолжает говорить.
	VerdictAllow Verdict = "allow"
	// VerdictWarn участник получает предупреждение.
	VerdictWarn Verdict = "warn"
	// VerdictMute участнику отключают микрофон.
	VerdictMute Verdict = "mute"
)

// ModerationAction результат оценки одного отрезка речи.
type ModerationAction struct {
	Verdict Verdict
	Message string
}
