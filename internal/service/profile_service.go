package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

// ProfileService reads and updates per-user settings.
type ProfileService struct {
	profiles *repository.ProfileRepository
}

func NewProfileService(profiles *repository.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

func (s *ProfileService) Get(ctx context.Context, userID uint) (*model.Profile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrProfileMissing)
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// Location returns the user's zone.
func (s *ProfileService) Location(ctx context.Context, userID uint) (*time.Location, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return loadZone(profile.TimeZone)
}

// SetTimeZone stores an IANA zone name after checking that it loads.
func (s *ProfileService) SetTimeZone(ctx context.Context, userID uint, zone string) (*time.Location, error) {
	loc, err := loadZone(strings.TrimSpace(zone))
	if err != nil {
		return nil, err
	}
	err = s.profiles.SetTimeZone(ctx, userID, loc.String())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrProfileMissing)
	}
	if err != nil {
		return nil, err
	}
	return loc, nil
}
