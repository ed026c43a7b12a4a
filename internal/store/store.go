// Package store defines persistence contracts for chat transcripts and fitting
// profiles, with in-memory and Postgres implementations.
package store

import (
	"context"
	"errors"

	"github.com/opuluxe-ai/fashion-assistant/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist for the owner.
	// Records owned by someone else are reported the same way.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a session ID is already taken.
	ErrConflict = errors.New("already exists")
)

// TranscriptStore persists sessions keyed by (owner, session ID).
//
// Append must be atomic per session: concurrent appends to the same session
// both land, in some order, and neither is lost.
type TranscriptStore interface {
	Create(ctx context.Context, session *model.Session) error
	Append(ctx context.Context, owner, sessionID string, turns ...model.Turn) error
	Get(ctx context.Context, owner, sessionID string) (*model.Session, error)
	// List returns the owner's sessions, most recently updated first.
	List(ctx context.Context, owner string) ([]model.SessionSummary, error)
	Delete(ctx context.Context, owner, sessionID string) error
}

// ProfileStore persists fitting profiles keyed by (owner, profile ID).
type ProfileStore interface {
	// Save inserts the profile or replaces the one with a matching ID.
	SaveProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, owner string, id model.ProfileID) (*model.Profile, error)
	ListProfiles(ctx context.Context, owner string) ([]model.Profile, error)
	DeleteProfile(ctx context.Context, owner string, id model.ProfileID) error
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is a backend holding both transcripts and profiles.
type Store interface {
	TranscriptStore
	ProfileStore
}
