// Package cli wires configuration, storage and services into the taskmaster
// commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"taskmaster/internal/bot"
	"taskmaster/internal/config"
	"taskmaster/internal/lease"
	"taskmaster/internal/repository"
	"taskmaster/internal/service"
)

const (
	resetLeaseName = "taskmaster:reset"

	// skipSetup marks commands that run without configuration or storage.
	skipSetup = "skip-setup"
)

// app holds what the commands share once configuration is loaded.
type app struct {
	cfg   config.Config
	log   *slog.Logger
	db    *gorm.DB
	store *repository.Store
}

// Execute runs the root command and prints the error, if any, to stderr.
func Execute(ctx context.Context, version string) error {
	a := &app{}
	defer a.close()

	if err := newRootCmd(a, version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newRootCmd(a *app, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskmaster",
		Short: "Recurring daily, weekly and monthly tasks in each user's time zone",
		Long: `taskmaster keeps recurring tasks for Telegram users. Completed tasks are
archived and reopened at every local midnight, every Monday and every first of
the month, in the user's own time zone.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := cmd.Annotations[skipSetup]; ok {
				return nil
			}
			return a.open(cmd.ErrOrStderr())
		},
	}

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newResetCmd(a))
	root.AddCommand(newSeedCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newVersionCmd(version))
	root.Version = version
	return root
}

// open loads configuration and storage once.
func (a *app) open(logOut io.Writer) error {
	if a.store != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := cfg.Logger(logOut)

	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.db = db
	a.store = repository.NewStore(db)
	return nil
}

func (a *app) close() {
	if a.db == nil {
		return
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
	a.db = nil
	a.store = nil
}

func (a *app) services() bot.Services {
	profiles := service.NewProfileService(a.store.Profiles)
	return bot.Services{
		Accounts: service.NewAccountService(a.store, a.cfg.DefaultTimeZone, a.log),
		Profiles: profiles,
		Tasks:    service.NewTaskService(a.store.Tasks),
		Reports:  service.NewReportService(a.store.Tasks, profiles),
		History:  service.NewHistoryService(a.store.History),
	}
}

// newLease builds the configured tick lease. The returned func releases
// whatever client the lease holds.
func (a *app) newLease(ctx context.Context) (lease.Lease, func(), error) {
	ttl := a.cfg.Lease.TTL
	switch a.cfg.Lease.Backend {
	case config.LeaseLocal:
		return lease.NewLocal(), func() {}, nil
	case config.LeaseRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", a.cfg.Redis.Addr, err)
		}
		return lease.NewRedis(client, resetLeaseName, ttl, a.log), func() { client.Close() }, nil
	default:
		return lease.NewDatabase(a.store.Locks, resetLeaseName, ttl, a.log), func() {}, nil
	}
}

func (a *app) newDriver(l lease.Lease) *service.ResetDriver {
	engine := service.NewResetEngine(a.store, a.cfg.Reset.MaxCatchUp, a.log)
	return service.NewResetDriver(l, a.store.Profiles, engine, a.cfg.Reset.Workers, a.log)
}
