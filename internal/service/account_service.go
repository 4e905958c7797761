package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
	"taskmaster/internal/repository"
)

// Account identifies a chat user being registered.
type Account struct {
	TelegramID int64
	FirstName  string
	LastName   string
	Username   string
}

// AccountService provisions users together with their profile and watermarks.
type AccountService struct {
	store       *repository.Store
	defaultZone string
	log         *slog.Logger
}

func NewAccountService(store *repository.Store, defaultZone string, log *slog.Logger) *AccountService {
	if defaultZone == "" {
		defaultZone = model.DefaultTimeZone
	}
	return &AccountService{store: store, defaultZone: defaultZone, log: log}
}

// Register creates or refreshes the user. A new user gets a profile in the
// default zone and a watermark per kind at the latest boundary in that zone,
// so nothing from before the account existed is archived.
func (s *AccountService) Register(ctx context.Context, acc Account, now time.Time) (*model.User, *model.Profile, error) {
	loc, err := loadZone(s.defaultZone)
	if err != nil {
		return nil, nil, err
	}

	var (
		user    *model.User
		profile *model.Profile
		created bool
	)
	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		var err error
		user, created, err = tx.Users.UpsertFromTelegram(ctx, acc.TelegramID, acc.FirstName, acc.LastName, acc.Username)
		if err != nil {
			return err
		}

		profile, err = tx.Profiles.Get(ctx, user.ID)
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		profile = &model.Profile{UserID: user.ID, TimeZone: loc.String()}
		if err := tx.Profiles.Create(ctx, profile); err != nil {
			return err
		}
		today := recurrence.DateOf(now.In(loc))
		for _, kind := range recurrence.Kinds() {
			if err := tx.Watermarks.Seed(ctx, user.ID, kind, kind.LatestBoundary(today)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("register telegram user %d: %w", acc.TelegramID, err)
	}

	if created {
		s.log.Info("user registered", "user", user.ID, "zone", profile.TimeZone)
	}
	return user, profile, nil
}

// Lookup finds a registered user by chat identity.
func (s *AccountService) Lookup(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.store.Users.FindByTelegramID(ctx, telegramID)
}

// ListUsers returns every registered user.
func (s *AccountService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.store.Users.ListAll(ctx)
}

func loadZone(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeZone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimeZone, name, err)
	}
	return loc, nil
}
