package service

import (
	"context"
	"errors"
	"strings"

	"github.com/opuluxe-ai/fashion-assistant/internal/model"
	"github.com/opuluxe-ai/fashion-assistant/internal/store"
)

// ErrInvalidProfile is returned for a profile without an ID or a name.
var ErrInvalidProfile = errors.New("profile requires an id and a name")

// ProfileService manages an owner's fitting profiles.
type ProfileService struct {
	store store.ProfileStore
}

// NewProfileService creates a profile service.
func NewProfileService(s store.ProfileStore) *ProfileService {
	return &ProfileService{store: s}
}

// Save upserts p for owner. Ownership always comes from the caller, never
// from the payload.
func (s *ProfileService) Save(ctx context.Context, owner string, p *model.Profile) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.ID.IsZero() || p.Name == "" {
		return ErrInvalidProfile
	}
	p.Owner = owner
	return s.store.SaveProfile(ctx, p)
}

// List returns the owner's profiles.
func (s *ProfileService) List(ctx context.Context, owner string) (*model.ListProfilesResponse, error) {
	profiles, err := s.store.ListProfiles(ctx, owner)
	if err != nil {
		return nil, err
	}
	if profiles == nil {
		profiles = []model.Profile{}
	}
	return &model.ListProfilesResponse{Profiles: profiles}, nil
}

// Get returns one profile. id may be the string or numeric form.
func (s *ProfileService) Get(ctx context.Context, owner, id string) (*model.Profile, error) {
	return s.store.GetProfile(ctx, owner, model.NewProfileID(id))
}

// Delete removes one profile.
func (s *ProfileService) Delete(ctx context.Context, owner, id string) error {
	return s.store.DeleteProfile(ctx, owner, model.NewProfileID(id))
}
