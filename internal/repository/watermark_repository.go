package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
)

// ErrWatermarkConflict means the watermark is already at or past the boundary
// being recorded, so another run processed it first.
var ErrWatermarkConflict = errors.New("watermark already at or past boundary")

// WatermarkRepository records the last processed boundary per user and kind.
type WatermarkRepository struct {
	db *gorm.DB
}

func NewWatermarkRepository(db *gorm.DB) *WatermarkRepository {
	return &WatermarkRepository{db: db}
}

// Get returns the stored boundary; ok is false when none was recorded yet.
func (r *WatermarkRepository) Get(ctx context.Context, userID uint, kind recurrence.Kind) (boundary recurrence.Date, ok bool, err error) {
	var wm model.Watermark
	err = r.db.WithContext(ctx).Where("user_id = ? AND kind = ?", userID, kind).First(&wm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return recurrence.Date{}, false, nil
	}
	if err != nil {
		return recurrence.Date{}, false, fmt.Errorf("get watermark: %w", err)
	}
	boundary, err = recurrence.ParseDate(wm.Boundary)
	if err != nil {
		return recurrence.Date{}, false, fmt.Errorf("get watermark: %w", err)
	}
	return boundary, true, nil
}

// Advance moves the watermark forward to boundary. It never moves backwards:
// when the stored value is already at or past boundary it returns
// ErrWatermarkConflict and writes nothing.
func (r *WatermarkRepository) Advance(ctx context.Context, userID uint, kind recurrence.Kind, boundary recurrence.Date) error {
	db := r.db.WithContext(ctx)
	value := boundary.String()

	res := db.Model(&model.Watermark{}).
		Where("user_id = ? AND kind = ? AND boundary < ?", userID, kind, value).
		Updates(map[string]interface{}{"boundary": value, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("advance watermark: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	created, err := r.insertIfAbsent(ctx, userID, kind, value)
	if err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}
	if !created {
		return ErrWatermarkConflict
	}
	return nil
}

// Seed records boundary only when no watermark exists yet.
func (r *WatermarkRepository) Seed(ctx context.Context, userID uint, kind recurrence.Kind, boundary recurrence.Date) error {
	if _, err := r.insertIfAbsent(ctx, userID, kind, boundary.String()); err != nil {
		return fmt.Errorf("seed watermark: %w", err)
	}
	return nil
}

func (r *WatermarkRepository) insertIfAbsent(ctx context.Context, userID uint, kind recurrence.Kind, value string) (bool, error) {
	wm := model.Watermark{UserID: userID, Kind: kind, Boundary: value}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}},
		DoNothing: true,
	}).Create(&wm)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
