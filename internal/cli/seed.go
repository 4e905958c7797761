package cli

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"taskmaster/internal/recurrence"
	"taskmaster/internal/service"
)

// Seeded users get Telegram ids above this so they never collide with real ones.
const seedTelegramBase int64 = 9_000_000_000

var (
	seedTitles = []string{
		"Water the plants", "Stretch", "Read 20 pages", "Review the budget",
		"Call parents", "Clean the desk", "Plan the week", "Pay rent",
		"Back up the laptop", "Empty the inbox", "Go for a run", "Meal prep",
	}
	seedZones = []string{
		"UTC", "America/New_York", "America/Los_Angeles", "Europe/Berlin",
		"Asia/Tokyo", "Australia/Sydney", "Asia/Kolkata",
	}
)

func newSeedCmd(a *app) *cobra.Command {
	var users, tasks int
	var seed int64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create random users and tasks for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if users < 1 || tasks < 0 {
				return fmt.Errorf("--users must be positive and --tasks not negative")
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))

			ctx := cmd.Context()
			svc := a.services()
			now := time.Now().UTC()

			created := 0
			for i := 0; i < users; i++ {
				user, _, err := svc.Accounts.Register(ctx, service.Account{
					TelegramID: seedTelegramBase + int64(i),
					FirstName:  fmt.Sprintf("Seed %d", i+1),
					Username:   fmt.Sprintf("seed_user_%d", i+1),
				}, now)
				if err != nil {
					return fmt.Errorf("seed user %d: %w", i+1, err)
				}
				if _, err := svc.Profiles.SetTimeZone(ctx, user.ID, seedZones[rng.Intn(len(seedZones))]); err != nil {
					return fmt.Errorf("seed user %d: %w", i+1, err)
				}

				for j := 0; j < tasks; j++ {
					task, err := svc.Tasks.CreateTask(ctx, user.ID, randomTask(rng))
					if err != nil {
						return fmt.Errorf("seed task for user %d: %w", user.ID, err)
					}
					if rng.Intn(2) == 0 {
						if _, err := svc.Tasks.ToggleTask(ctx, user.ID, task.ID); err != nil {
							return err
						}
					}
					created++
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users and %d tasks (seed %d)\n", users, created, seed)
			return nil
		},
	}

	cmd.Flags().IntVar(&users, "users", 5, "Number of users to create")
	cmd.Flags().IntVar(&tasks, "tasks", 10, "Number of tasks per user")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed; 0 picks one from the clock")
	return cmd
}

// randomTask returns a valid task of a random kind.
func randomTask(rng *rand.Rand) service.TaskInput {
	c := recurrence.Candidate{
		TimeOfDay: fmt.Sprintf("%02d:%02d", rng.Intn(24), rng.Intn(4)*15),
	}
	switch rng.Intn(3) {
	case 0:
		c.Daily = true
	case 1:
		c.Weekly = true
		c.DayOfWeek = time.Weekday(rng.Intn(7)).String()
	default:
		c.Monthly = true
		day := rng.Intn(31) + 1
		c.DayOfMonth = &day
	}
	return service.TaskInput{
		Title:      seedTitles[rng.Intn(len(seedTitles))],
		Recurrence: c,
	}
}
