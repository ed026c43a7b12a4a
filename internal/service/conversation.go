// Package service holds the chat, transcript, profile and try-on business logic.
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/opuluxe-ai/fashion-assistant/internal/model"
	"github.com/opuluxe-ai/fashion-assistant/internal/store"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ConversationService exposes an owner's stored chat sessions.
type ConversationService struct {
	store  store.TranscriptStore
	logger *logger.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(s store.TranscriptStore, log *logger.Logger) *ConversationService {
	return &ConversationService{store: s, logger: log.Named("conversations")}
}

// List returns a page of the owner's sessions, most recent first.
func (s *ConversationService) List(ctx context.Context, owner string, limit, offset int) (*model.ListSessionsResponse, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	all, err := s.store.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	total := len(all)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	page := all[start:end]
	if page == nil {
		page = []model.SessionSummary{}
	}
	return &model.ListSessionsResponse{Sessions: page, Total: total}, nil
}

// Get returns the session with its turns in chronological order.
func (s *ConversationService) Get(ctx context.Context, owner, sessionID string) (*model.Session, error) {
	return s.store.Get(ctx, owner, sessionID)
}

// Delete removes the whole session.
func (s *ConversationService) Delete(ctx context.Context, owner, sessionID string) error {
	if err := s.store.Delete(ctx, owner, sessionID); err != nil {
		return err
	}
	s.logger.Info("session deleted", zap.String("session_id", sessionID))
	return nil
}
