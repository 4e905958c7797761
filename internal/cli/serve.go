package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"taskmaster/internal/bot"
	"taskmaster/internal/clock"
	"taskmaster/internal/service"
)

const reportTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reset scheduler and the Telegram bot",
		Long: `Run one catch-up reset tick, then keep ticking every RESET_TICK_INTERVAL.

When TELEGRAM_TOKEN is set the Telegram bot is started as well, together with
the periodic progress report. Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	l, closeLease, err := a.newLease(ctx)
	if err != nil {
		return err
	}
	defer closeLease()

	clk := clock.System{}
	driver := a.newDriver(l)
	tick := func() {
		tickCtx, cancel := context.WithTimeout(ctx, a.cfg.Reset.TickTimeout)
		defer cancel()

		report, err := driver.Tick(tickCtx, clk.Now())
		if err != nil {
			a.log.Error("reset tick", "err", err)
			return
		}
		if report.Boundaries > 0 || len(report.Failures) > 0 {
			a.log.Info("reset tick", "users", report.Users, "boundaries", report.Boundaries, "failures", len(report.Failures))
		}
	}

	// Catch up on boundaries missed while the process was down.
	tick()

	scheduler := service.NewSchedulerService(loc, a.log)
	if _, err := scheduler.ScheduleInterval(a.cfg.Reset.TickInterval, tick); err != nil {
		return fmt.Errorf("schedule reset: %w", err)
	}

	var telegramBot *bot.Bot
	if a.cfg.TelegramToken != "" {
		telegramBot, err = bot.New(a.cfg.TelegramToken, a.services(), clk, a.log)
		if err != nil {
			return err
		}
		if a.cfg.Report.Interval > 0 {
			if _, err := scheduler.ScheduleInterval(a.cfg.Report.Interval, func() {
				jobCtx, cancel := context.WithTimeout(ctx, reportTimeout)
				defer cancel()
				if err := telegramBot.SendReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
					a.log.Error("send reports", "err", err)
				}
			}); err != nil {
				return fmt.Errorf("schedule reports: %w", err)
			}
		}
	} else {
		a.log.Warn("TELEGRAM_TOKEN is not set, running the reset scheduler only")
	}

	scheduler.Start()
	defer scheduler.Stop()

	a.log.Info("taskmaster started",
		"tick", a.cfg.Reset.TickInterval, "lease", a.cfg.Lease.Backend, "workers", a.cfg.Reset.Workers)

	if telegramBot != nil {
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("bot stopped: %w", err)
		}
	} else {
		<-ctx.Done()
	}

	a.log.Info("shutdown complete")
	return nil
}
