package model

import (
	"time"
)

// TryOnRequest asks for a rendered preview of an item on a subject.
// It is never persisted.
type TryOnRequest struct {
	Item      string `json:"item"`
	Gender    string `json:"gender,omitempty"`
	UserPhoto string `json:"user_photo,omitempty"`
}

// Outcome is the result of a single provider attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ProviderAttempt records one try against a provider/model pair. Diagnostic only.
type ProviderAttempt struct {
	Provider   string        `json:"provider"`
	Model      string        `json:"model"`
	Outcome    Outcome       `json:"outcome"`
	Timeout    bool          `json:"timeout,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"duration_ms"`
}

// SetDuration records how long the attempt took.
func (a *ProviderAttempt) SetDuration(d time.Duration) {
	a.Duration = d
	a.DurationMs = d.Milliseconds()
}

// TryOnResult carries the encoded image and advisory diagnostics about which
// provider produced it.
type TryOnResult struct {
	Image       string            `json:"image"`
	Provider    string            `json:"provider"`
	Model       string            `json:"model"`
	Strategy    string            `json:"strategy"`
	Description string            `json:"description,omitempty"`
	Attempts    []ProviderAttempt `json:"attempts"`
}
