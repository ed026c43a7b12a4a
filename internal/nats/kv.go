package nats

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/opuluxe-ai/fashion-assistant/internal/model"
	"github.com/opuluxe-ai/fashion-assistant/internal/store"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
)

const (
	// SessionsBucket holds one entry per chat session.
	SessionsBucket = "FASHION_SESSIONS"

	// ProfilesBucket holds one entry per fitting profile.
	ProfilesBucket = "FASHION_PROFILES"

	sessionPrefix = "sess"
	profilePrefix = "prof"

	maxAppendRetries = 32
	appendBackoff    = 2 * time.Millisecond
)

// KVStore keeps sessions and profiles in JetStream key-value buckets.
// Appends use optimistic concurrency on the entry revision, so two writers
// racing on one session never lose a turn.
type KVStore struct {
	client   *Client
	sessions jetstream.KeyValue
	profiles jetstream.KeyValue
	logger   *logger.Logger
	now      func() time.Time
}

// NewKVStore opens (or creates) the buckets.
func NewKVStore(ctx context.Context, client *Client, log *logger.Logger) (*KVStore, error) {
	sessions, err := client.KeyValue(ctx, SessionsBucket, "Chat sessions keyed by owner and id")
	if err != nil {
		return nil, err
	}
	profiles, err := client.KeyValue(ctx, ProfilesBucket, "Fitting profiles keyed by owner and id")
	if err != nil {
		return nil, err
	}
	return &KVStore{
		client:   client,
		sessions: sessions,
		profiles: profiles,
		logger:   log.Named("kvstore"),
		now:      time.Now,
	}, nil
}

// Ping checks the underlying connection.
func (s *KVStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func encodeToken(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// SessionKey returns the bucket key for a session. Both parts are encoded so
// that arbitrary owner strings and client-supplied ids stay valid key tokens.
func SessionKey(owner, sessionID string) string {
	return fmt.Sprintf("%s.%s.%s", sessionPrefix, encodeToken(owner), encodeToken(sessionID))
}

// SessionFilter matches every session key of owner.
func SessionFilter(owner string) string {
	return fmt.Sprintf("%s.%s.*", sessionPrefix, encodeToken(owner))
}

// ProfileKey returns the bucket key for a profile.
func ProfileKey(owner string, id model.ProfileID) string {
	return fmt.Sprintf("%s.%s.%s", profilePrefix, encodeToken(owner), encodeToken(id.String()))
}

// ProfileFilter matches every profile key of owner.
func ProfileFilter(owner string) string {
	return fmt.Sprintf("%s.%s.*", profilePrefix, encodeToken(owner))
}

// isRevisionConflict reports whether an Update lost the race for a revision.
func isRevisionConflict(err error) bool {
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
	}
	return false
}

// Create stores a new session.
func (s *KVStore) Create(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if _, err := s.sessions.Create(ctx, SessionKey(session.Owner, session.ID), data); err != nil {
		if isRevisionConflict(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Append adds turns with a compare-and-set loop on the entry revision.
func (s *KVStore) Append(ctx context.Context, owner, sessionID string, turns ...model.Turn) error {
	key := SessionKey(owner, sessionID)

	for attempt := 0; attempt < maxAppendRetries; attempt++ {
		session, rev, err := s.load(ctx, key)
		if err != nil {
			return err
		}

		session.Turns = append(session.Turns, turns...)
		session.UpdatedAt = s.now()

		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		_, err = s.sessions.Update(ctx, key, data, rev)
		if err == nil {
			return nil
		}
		if !isRevisionConflict(err) {
			return fmt.Errorf("failed to append to session: %w", err)
		}
		s.logger.Debug("session revision moved, retrying append",
			zap.String("session_id", sessionID),
			zap.Int("attempt", attempt+1),
		)
		if err := backoff(ctx, attempt); err != nil {
			return err
		}
	}
	return store.ErrConflict
}

// backoff sleeps a jittered, linearly growing interval so that writers racing
// on one session spread out instead of colliding again.
func backoff(ctx context.Context, attempt int) error {
	d := appendBackoff + rand.N(appendBackoff*time.Duration(attempt+1))
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *KVStore) load(ctx context.Context, key string) (*model.Session, uint64, error) {
	entry, err := s.sessions.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, 0, store.ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(entry.Value(), &session); err != nil {
		return nil, 0, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, entry.Revision(), nil
}

// Get returns the session.
func (s *KVStore) Get(ctx context.Context, owner, sessionID string) (*model.Session, error) {
	session, _, err := s.load(ctx, SessionKey(owner, sessionID))
	if err != nil {
		return nil, err
	}
	session.Owner = owner
	return session, nil
}

// List returns the owner's sessions, newest activity first.
func (s *KVStore) List(ctx context.Context, owner string) ([]model.SessionSummary, error) {
	var out []model.SessionSummary
	err := s.scan(ctx, s.sessions, SessionFilter(owner), func(value []byte) {
		var session model.Session
		if err := json.Unmarshal(value, &session); err != nil {
			s.logger.Warn("skipping undecodable session", zap.Error(err))
			return
		}
		out = append(out, session.Summary())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	store.SortSummaries(out)
	return out, nil
}

// scan visits the current value of every key matching filter.
func (s *KVStore) scan(ctx context.Context, kv jetstream.KeyValue, filter string, visit func([]byte)) error {
	w, err := kv.Watch(ctx, filter, jetstream.IgnoreDeletes())
	if err != nil {
		return err
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry, ok := <-w.Updates():
			if !ok || entry == nil {
				// A nil entry marks the end of the initial values.
				return nil
			}
			visit(entry.Value())
		}
	}
}

// Delete removes the session.
func (s *KVStore) Delete(ctx context.Context, owner, sessionID string) error {
	key := SessionKey(owner, sessionID)
	entry, err := s.sessions.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if err := s.sessions.Purge(ctx, key, jetstream.LastRevision(entry.Revision())); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SaveProfile upserts the profile.
func (s *KVStore) SaveProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if _, err := s.profiles.Put(ctx, ProfileKey(profile.Owner, profile.ID), data); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// GetProfile returns the owner's profile with a matching ID.
func (s *KVStore) GetProfile(ctx context.Context, owner string, id model.ProfileID) (*model.Profile, error) {
	entry, err := s.profiles.Get(ctx, ProfileKey(owner, id))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var p model.Profile
	if err := json.Unmarshal(entry.Value(), &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	p.Owner = owner
	return &p, nil
}

// ListProfiles returns the owner's profiles.
func (s *KVStore) ListProfiles(ctx context.Context, owner string) ([]model.Profile, error) {
	out := []model.Profile{}
	err := s.scan(ctx, s.profiles, ProfileFilter(owner), func(value []byte) {
		var p model.Profile
		if err := json.Unmarshal(value, &p); err != nil {
			s.logger.Warn("skipping undecodable profile", zap.Error(err))
			return
		}
		p.Owner = owner
		out = append(out, p)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return out, nil
}

// DeleteProfile removes the owner's profile with a matching ID.
func (s *KVStore) DeleteProfile(ctx context.Context, owner string, id model.ProfileID) error {
	key := ProfileKey(owner, id)
	if _, err := s.profiles.Get(ctx, key); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return store.ErrNotFound
		}
		return fmt.Errorf("failed to get profile: %w", err)
	}
	if err := s.profiles.Purge(ctx, key); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}
