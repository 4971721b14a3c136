package cli

import (
	"context"
	"errors"
	"os"
	"strings"

	"fieldvisits_backend/internal/auth"
	authservice "fieldvisits_backend/internal/auth/service"

	"github.com/spf13/cobra"
)

const passwordEnv = "FIELDCTL_PASSWORD"

func newUserCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCmd(rt), newUserResetPasswordCmd(rt))
	return cmd
}

// passwordFrom prefers the flag and falls back to FIELDCTL_PASSWORD so
// secrets can stay out of shell history.
func passwordFrom(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv(passwordEnv); env != "" {
		return env, nil
	}
	return "", errors.New("password required: pass --password or set " + passwordEnv)
}

func newUserCreateCmd(rt *runtime) *cobra.Command {
	var in authservice.CreateUserInput
	var password string

	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create an admin or agent account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFrom(password)
			if err != nil {
				return err
			}
			in.Email = args[0]
			in.Password = pw
			in.Role = strings.ToUpper(strings.TrimSpace(in.Role))

			return rt.withBackend(cmd, func(ctx context.Context, b Backend) error {
				profile, err := b.CreateUser(ctx, in)
				if err != nil {
					return err
				}
				if rt.isJSON() {
					return printJSON(cmd.OutOrStdout(), profile)
				}
				success(cmd.OutOrStdout(), "created %s %s (%s)", profile.Role, profile.Email, profile.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Role, "role", auth.RoleAgent, "role (ADMIN|AGENT)")
	cmd.Flags().StringVar(&password, "password", "", "initial password (or "+passwordEnv+")")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newUserResetPasswordCmd(rt *runtime) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Set a new password for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFrom(password)
			if err != nil {
				return err
			}
			return rt.withBackend(cmd, func(ctx context.Context, b Backend) error {
				if err := b.ResetPassword(ctx, args[0], pw); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "password updated for %s", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "new password (or "+passwordEnv+")")
	return cmd
}
