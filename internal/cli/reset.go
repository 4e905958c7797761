package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"taskmaster/internal/clock"
	"taskmaster/internal/recurrence"
	"taskmaster/internal/service"
)

func newResetCmd(a *app) *cobra.Command {
	var kindFlag, atFlag string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Run one reset tick now",
		Long: `Archive and reopen tasks for every user whose period boundary has passed.

Every missed boundary since the user's last reset is processed in order. With
--kind only that kind is processed. --at replaces the current instant, which
is useful for backfills.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var kinds []recurrence.Kind
			if kindFlag != "" {
				kind, err := recurrence.ParseKind(kindFlag)
				if err != nil {
					return err
				}
				kinds = append(kinds, kind)
			}

			now := clock.System{}.Now()
			if atFlag != "" {
				at, err := time.Parse(time.RFC3339, atFlag)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
				now = at.UTC()
			}

			l, closeLease, err := a.newLease(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLease()

			report, err := a.newDriver(l).Tick(cmd.Context(), now, kinds...)
			if err != nil {
				return fmt.Errorf("reset tick: %w", err)
			}
			printTickReport(cmd.OutOrStdout(), report)
			if len(report.Failures) > 0 {
				return fmt.Errorf("%d user/kind pairs failed", len(report.Failures))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "Only reset this kind: daily, weekly or monthly")
	cmd.Flags().StringVar(&atFlag, "at", "", "Evaluate boundaries at this RFC3339 instant instead of now")
	return cmd
}

func printTickReport(w io.Writer, report service.TickReport) {
	if report.Skipped {
		fmt.Fprintln(w, "Skipped: another reset tick holds the lease.")
		return
	}
	fmt.Fprintf(w, "Reset at %s: %d users, %d boundaries, %d failures\n",
		report.At.Format(time.RFC3339), report.Users, report.Boundaries, len(report.Failures))
	for _, failure := range report.Failures {
		fmt.Fprintf(w, "  %v\n", failure)
	}
}
