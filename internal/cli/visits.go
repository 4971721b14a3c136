package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newVisitsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visits",
		Short: "Visit maintenance",
	}
	cmd.AddCommand(newMarkMissedCmd(rt), newClearAgentCmd(rt))
	return cmd
}

func newMarkMissedCmd(rt *runtime) *cobra.Command {
	var olderThan time.Duration
	var before string

	cmd := &cobra.Command{
		Use:   "mark-missed",
		Short: "Close pending visits whose window ended before the cutoff",
		Long:  "Close pending visits whose window ended before --before (RFC 3339), or before now minus --older-than when --before is not set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan < 0 {
				return errors.New("--older-than must not be negative")
			}
			cutoff := rt.now().Add(-olderThan)
			if before != "" {
				parsed, err := time.Parse(time.RFC3339, before)
				if err != nil {
					return fmt.Errorf("invalid --before: %w", err)
				}
				cutoff = parsed
			}
			return rt.withBackend(cmd, func(ctx context.Context, b Backend) error {
				marked, err := b.MarkMissedBefore(ctx, cutoff)
				if err != nil {
					return err
				}
				if rt.isJSON() {
					return printJSON(cmd.OutOrStdout(), map[string]any{"marked": marked, "cutoff": cutoff})
				}
				success(cmd.OutOrStdout(), "%d visit(s) marked as missed (ended before %s)", marked, cutoff.Format(time.RFC3339))
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 2*time.Hour, "grace period after the scheduled end")
	cmd.Flags().StringVar(&before, "before", "", "explicit cutoff, e.g. 2026-03-01T00:00:00-05:00")
	return cmd
}

func newClearAgentCmd(rt *runtime) *cobra.Command {
	var agent string
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every visit of one agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agentID, err := uuid.Parse(agent)
			if err != nil {
				return fmt.Errorf("invalid --agent: %w", err)
			}
			if !yes {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), color.New(color.FgRed).Sprint("refusing to delete without --yes"))
				return errors.New("confirmation required")
			}
			return rt.withBackend(cmd, func(ctx context.Context, b Backend) error {
				deleted, err := b.ClearAgentVisits(ctx, agentID)
				if err != nil {
					return err
				}
				if rt.isJSON() {
					return printJSON(cmd.OutOrStdout(), map[string]any{"agentId": agentID, "deleted": deleted})
				}
				success(cmd.OutOrStdout(), "%d visit(s) deleted for agent %s", deleted, agentID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "agent user id")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}
