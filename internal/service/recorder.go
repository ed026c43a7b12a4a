package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opuluxe-ai/fashion-assistant/internal/model"
	"github.com/opuluxe-ai/fashion-assistant/internal/store"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
	"github.com/opuluxe-ai/fashion-assistant/pkg/metrics"
)

const (
	titleRunes = 30

	// ImageTitle is used when the opening turn carries only an image.
	ImageTitle = "Image consultation"
)

// Recorder appends exchanges to an owner's transcript.
type Recorder struct {
	store  store.TranscriptStore
	logger *logger.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder over s.
func NewRecorder(s store.TranscriptStore, log *logger.Logger) *Recorder {
	return &Recorder{store: s, logger: log.Named("recorder"), now: time.Now}
}

// Append stores the user/assistant pair. Without a session ID a new session
// is created and its ID returned. With one, the pair is appended to that
// session of owner; sessions of other owners are reported as not found.
func (r *Recorder) Append(ctx context.Context, owner, sessionID string, user, assistant model.Turn) (string, error) {
	now := r.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if assistant.CreatedAt.IsZero() {
		assistant.CreatedAt = now
	}

	if sessionID != "" {
		if err := r.store.Append(ctx, owner, sessionID, user, assistant); err != nil {
			return "", fmt.Errorf("failed to append to session %s: %w", sessionID, err)
		}
		return sessionID, nil
	}

	session := &model.Session{
		ID:        uuid.NewString(),
		Owner:     owner,
		Title:     Title(user),
		Turns:     []model.Turn{user, assistant},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	metrics.SessionsCreated.Inc()
	r.logger.Debug("session created", zap.String("session_id", session.ID))
	return session.ID, nil
}

// Title derives a session title from its opening turn.
func Title(t model.Turn) string {
	text := strings.TrimSpace(t.Text)
	if text == "" {
		if t.Image != "" {
			return ImageTitle
		}
		return "New conversation"
	}
	runes := []rune(text)
	if len(runes) <= titleRunes {
		return text
	}
	return string(runes[:titleRunes]) + "..."
}
