package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"taskmaster/internal/model"
	"taskmaster/internal/recurrence"
	"taskmaster/internal/repository"
	"taskmaster/internal/service"
)

// exportRow is one archived snapshot as written to the export file.
type exportRow struct {
	TaskID      uint    `json:"task_id"`
	Kind        string  `json:"kind"`
	Date        string  `json:"date"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	TimeOfDay   string  `json:"time_of_day"`
	DayOfWeek   *string `json:"day_of_week,omitempty"`
	DayOfMonth  *int    `json:"day_of_month,omitempty"`
	Completed   bool    `json:"completed"`
}

func newExportCmd(a *app) *cobra.Command {
	var (
		userID           uint
		kindFlag         string
		fromFlag, toFlag string
		out              string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's task history as zstd-compressed JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := repository.HistoryFilter{UserID: userID}
			if kindFlag != "" {
				kind, err := recurrence.ParseKind(kindFlag)
				if err != nil {
					return err
				}
				filter.Kind = kind
			}
			if fromFlag != "" {
				from, err := recurrence.ParseDate(fromFlag)
				if err != nil {
					return fmt.Errorf("parse --from: %w", err)
				}
				filter.From = from
			}
			if toFlag != "" {
				to, err := recurrence.ParseDate(toFlag)
				if err != nil {
					return fmt.Errorf("parse --to: %w", err)
				}
				filter.To = to
			}

			rows, err := service.NewHistoryService(a.store.History).List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := writeHistory(f, rows); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close export file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", len(rows), out)
			return nil
		},
	}

	cmd.Flags().UintVar(&userID, "user", 0, "Internal user id (required)")
	cmd.Flags().StringVar(&kindFlag, "kind", "", "Only export this kind: daily, weekly or monthly")
	cmd.Flags().StringVar(&fromFlag, "from", "", "First boundary date to include, YYYY-MM-DD")
	cmd.Flags().StringVar(&toFlag, "to", "", "Last boundary date to include, YYYY-MM-DD")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// writeHistory encodes rows as JSON lines inside a zstd stream.
func writeHistory(w io.Writer, rows []model.TaskHistory) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}

	enc := json.NewEncoder(zw)
	for _, row := range rows {
		if err := enc.Encode(exportRow{
			TaskID:      row.TaskID,
			Kind:        row.Kind.String(),
			Date:        row.Date,
			Title:       row.Title,
			Description: row.Description,
			TimeOfDay:   row.TimeOfDay,
			DayOfWeek:   row.DayOfWeek,
			DayOfMonth:  row.DayOfMonth,
			Completed:   row.Completed,
		}); err != nil {
			zw.Close()
			return fmt.Errorf("encode history row %d: %w", row.ID, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush zstd stream: %w", err)
	}
	return nil
}
