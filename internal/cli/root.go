// Package cli defines the cobra command tree for fieldctl, the operator tool
// for migrations, user accounts and visit maintenance.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"fieldvisits_backend/internal/auth"
	authservice "fieldvisits_backend/internal/auth/service"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// MigrationRow is one line of `fieldctl migrate status`.
type MigrationRow struct {
	Version   int64     `json:"version"`
	Path      string    `json:"path"`
	Applied   bool      `json:"applied"`
	AppliedAt time.Time `json:"appliedAt,omitempty"`
}

// Backend is everything the commands act on.
type Backend interface {
	Migrate(ctx context.Context) error
	MigrationStatus(ctx context.Context) ([]MigrationRow, error)
	CreateUser(ctx context.Context, in authservice.CreateUserInput) (auth.Profile, error)
	ResetPassword(ctx context.Context, email, newPassword string) error
	MarkMissedBefore(ctx context.Context, cutoff time.Time) (int, error)
	ClearAgentVisits(ctx context.Context, agentID uuid.UUID) (int64, error)
}

// Opener connects a Backend; close releases it.
type Opener func(ctx context.Context) (backend Backend, close func(), err error)

type runtime struct {
	open   Opener
	format string
	now    func() time.Time
}

// NewRootCmd creates the root command. open is called lazily by each
// subcommand so `--help` never touches the database.
func NewRootCmd(open Opener) *cobra.Command {
	rt := &runtime{open: open, now: time.Now}

	root := &cobra.Command{
		Use:           "fieldctl",
		Short:         "Operate the field visits backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&rt.format, "format", "text", "output format (text|json)")

	root.AddCommand(
		newMigrateCmd(rt),
		newUserCmd(rt),
		newVisitsCmd(rt),
	)
	return root
}

func (rt *runtime) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	backend, closeFn, err := rt.open(ctx)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(ctx, backend)
}

func (rt *runtime) isJSON() bool {
	return rt.format == "json"
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func success(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "%s %s\n", color.New(color.FgGreen).Sprint("✓"), fmt.Sprintf(format, args...))
}
