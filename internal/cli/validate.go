package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"broker/internal/events"
	"broker/internal/progress"
	"broker/pkg/domain"
	strutil "broker/pkg/platform/strings"
)

func newValidateCommand() *cobra.Command {
	var (
		fileTypeFlag   string
		severitiesFlag []string
	)

	cmd := &cobra.Command{
		Use:   "validate <submission-id>",
		Short: "Run single-file validation rules against a submission's staged file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := domain.ParseSubmissionID(args[0])
			if err != nil {
				return fmt.Errorf("invalid submission id %q: %w", args[0], err)
			}
			ft, err := domain.ParseFileType(fileTypeFlag)
			if err != nil {
				return err
			}
			severities, err := parseSeverities(severitiesFlag)
			if err != nil {
				return err
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			_ = a.tracker.Record(ctx, id, progress.State{
				Phase:    progress.PhaseValidating,
				FileType: ft.String(),
			})

			counts, err := a.validator.Validate(ctx, id, ft, severities)
			if err != nil {
				_ = a.tracker.Record(ctx, id, progress.State{Phase: progress.PhaseFailed, FileType: ft.String()})
				return err
			}

			_ = a.tracker.Record(ctx, id, progress.State{
				Phase:    progress.PhaseFinished,
				FileType: ft.String(),
				Errors:   counts.Fatal,
				Warnings: counts.Warning,
			})
			if err := a.producer.Publish(ctx, id, events.Finished{
				Kind:     events.KindValidation,
				FileType: ft.String(),
				Errors:   counts.Fatal,
				Warnings: counts.Warning,
			}); err != nil {
				a.logger.Warn("finished event not published", "error", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "file %s: %d fatal, %d warnings\n",
				ft, counts.Fatal, counts.Warning)
			return nil
		},
	}

	cmd.Flags().StringVar(&fileTypeFlag, "file-type", "", "file to validate: A, B, C, D1, or D2")
	cmd.Flags().StringSliceVar(&severitiesFlag, "severity", []string{"fatal", "warning"}, "severities to run")
	_ = cmd.MarkFlagRequired("file-type")
	return cmd
}

func newValidateCrossCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-cross <submission-id> <source-file> <target-file>",
		Short: "Run cross-file validation rules for an ordered file pair",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := domain.ParseSubmissionID(args[0])
			if err != nil {
				return fmt.Errorf("invalid submission id %q: %w", args[0], err)
			}
			source, err := domain.ParseFileType(args[1])
			if err != nil {
				return err
			}
			target, err := domain.ParseFileType(args[2])
			if err != nil {
				return err
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			_ = a.tracker.Record(ctx, id, progress.State{
				Phase:    progress.PhaseCrossFile,
				FileType: source.String() + "-" + target.String(),
			})

			counts, err := a.validator.ValidateCross(ctx, id, source, target)
			if err != nil {
				_ = a.tracker.Record(ctx, id, progress.State{Phase: progress.PhaseFailed})
				return err
			}

			_ = a.tracker.Record(ctx, id, progress.State{
				Phase:    progress.PhaseFinished,
				FileType: source.String() + "-" + target.String(),
				Errors:   counts.Fatal,
				Warnings: counts.Warning,
			})
			if err := a.producer.Publish(ctx, id, events.Finished{
				Kind:     events.KindCrossFile,
				FileType: source.String() + "-" + target.String(),
				Errors:   counts.Fatal,
				Warnings: counts.Warning,
			}); err != nil {
				a.logger.Warn("finished event not published", "error", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "pair %s-%s: %d fatal, %d warnings\n",
				source, target, counts.Fatal, counts.Warning)
			return nil
		},
	}
	return cmd
}

func parseSeverities(raw []string) ([]domain.Severity, error) {
	raw = strutil.DedupeAndTrimLower(raw)
	out := make([]domain.Severity, 0, len(raw))
	for _, s := range raw {
		sev, err := domain.ParseSeverity(s)
		if err != nil {
			return nil, err
		}
		out = append(out, sev)
	}
	if len(out) == 0 {
		out = domain.AllSeverities()
	}
	return out, nil
}
