package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"broker/internal/events"
	"broker/internal/progress"
	"broker/pkg/domain"
)

func newDeriveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive <submission-id>",
		Short: "Run the FABS derivation pipeline over a submission's staged rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := domain.ParseSubmissionID(args[0])
			if err != nil {
				return fmt.Errorf("invalid submission id %q: %w", args[0], err)
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			_ = a.tracker.Record(ctx, id, progress.State{Phase: progress.PhaseDeriving})

			rows, err := a.pipeline.DeriveSubmission(ctx, id)
			if err != nil {
				_ = a.tracker.Record(ctx, id, progress.State{Phase: progress.PhaseFailed})
				return err
			}

			_ = a.tracker.Record(ctx, id, progress.State{
				Phase:    progress.PhaseFinished,
				RowsDone: rows,
			})
			if err := a.producer.Publish(ctx, id, events.Finished{
				Kind: events.KindDerivation,
				Rows: rows,
			}); err != nil {
				a.logger.Warn("finished event not published", "error", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "derived %d rows\n", rows)
			return nil
		},
	}
	return cmd
}
