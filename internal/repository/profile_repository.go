package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"taskmaster/internal/model"
)

// ProfileRepository stores per-user settings such as the time zone.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// Get returns the profile of userID or ErrNotFound.
func (r *ProfileRepository) Get(ctx context.Context, userID uint) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

func (r *ProfileRepository) SetTimeZone(ctx context.Context, userID uint, zone string) error {
	res := r.db.WithContext(ctx).Model(&model.Profile{}).Where("user_id = ?", userID).Update("time_zone", zone)
	if res.Error != nil {
		return fmt.Errorf("update profile zone: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAll returns every profile ordered by user.
func (r *ProfileRepository) ListAll(ctx context.Context) ([]model.Profile, error) {
	var profiles []model.Profile
	if err := r.db.WithContext(ctx).Order("user_id ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}
