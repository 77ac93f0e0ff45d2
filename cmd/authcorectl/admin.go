package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/admin"
)

// NewAdminCmd creates the admin subcommand group.
func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Grant, revoke and inspect administrator roles",
	}
	cmd.AddCommand(newAdminGrantCmd())
	cmd.AddCommand(newAdminRevokeCmd())
	cmd.AddCommand(newAdminShowCmd())
	return cmd
}

func newAdminGrantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant <user-id>",
		Short: "Grant or change a user's administrator role",
		Long: `Grant a role to a user. Unknown role names fall back to editor, the
least privileged role.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			return withEngine(cmd, args[0], func(engine *authcore.Engine, userID int64) error {
				granted, err := engine.AddAdmin(cmd.Context(), userID, role)
				if err != nil {
					return oops.Code("ADMIN_GRANT_FAILED").With("user_id", userID).Wrap(err)
				}
				cmd.Printf("User %d is now %s\n", userID, granted)
				return nil
			})
		},
	}
	cmd.Flags().String("role", string(admin.RoleEditor), "role: editor, admin or superadmin")
	return cmd
}

func newAdminRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <user-id>",
		Short: "Remove a user's administrator role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, args[0], func(engine *authcore.Engine, userID int64) error {
				if err := engine.RemoveAdmin(cmd.Context(), userID); err != nil {
					return oops.Code("ADMIN_REVOKE_FAILED").With("user_id", userID).Wrap(err)
				}
				cmd.Printf("User %d is no longer an administrator\n", userID)
				return nil
			})
		},
	}
}

func newAdminShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's administrator status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, args[0], func(engine *authcore.Engine, userID int64) error {
				status, err := engine.IsAdmin(cmd.Context(), userID)
				if err != nil {
					return oops.Code("ADMIN_LOOKUP_FAILED").With("user_id", userID).Wrap(err)
				}
				if !status.IsAdmin {
					cmd.Printf("User %d is not an administrator\n", userID)
					return nil
				}
				cmd.Printf("User %d is %s\n", userID, status.Role)
				return nil
			})
		},
	}
}

func withEngine(cmd *cobra.Command, rawID string, fn func(*authcore.Engine, int64) error) error {
	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || userID <= 0 {
		return oops.Code("INVALID_ARGUMENT").With("user_id", rawID).Errorf("user id must be a positive integer")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := openDB(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := offlineEngine(cfg, db, cfg.logger(cmd))
	if err != nil {
		return err
	}
	defer engine.Close()

	return fn(engine, userID)
}
