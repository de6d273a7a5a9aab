package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin account commands",
	}

	cmd.AddCommand(newAdminLoginCmd())
	cmd.AddCommand(newAdminLogoutCmd())
	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())
	cmd.AddCommand(newAdminMeCmd())
	cmd.AddCommand(newAdminUpdateCmd())
	cmd.AddCommand(newAdminDeleteCmd())

	return cmd
}

func newAdminLoginCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"username": user,
				"password": pass,
			}
			var result AuthResult

			if err := client.Post(cmd.Context(), "/api/v1/admins/login", req, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newAdminLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("not logged in")
			}

			if err := client.Post(cmd.Context(), "/api/v1/admins/logout", nil, nil); err != nil {
				return err
			}

			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			NewOutput(cfg.Output).PrintMessage("Logged out")
			return nil
		},
	}
}

func newAdminCreateCmd() *cobra.Command {
	var user, pass, email string
	var fingerprint int
	var superAdmin bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin (super admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"username":       user,
				"password":       pass,
				"email":          email,
				"fingerprint_id": fingerprint,
				"is_super_admin": superAdmin,
			}
			var result Admin

			if err := client.Post(cmd.Context(), "/api/v1/admins", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().IntVar(&fingerprint, "fingerprint", 0, "Enrolled fingerprint ID (required)")
	cmd.Flags().BoolVar(&superAdmin, "super", false, "Grant super admin")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("fingerprint")

	return cmd
}

func newAdminListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List admins",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Admin
			if err := client.Get(cmd.Context(), "/api/v1/admins", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newAdminMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the logged in admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Admin
			if err := client.Get(cmd.Context(), "/api/v1/admins/me", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newAdminUpdateCmd() *cobra.Command {
	var user, email string
	var fingerprint int
	var superAdmin bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an admin's profile (super admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			if cmd.Flags().Changed("user") {
				req["username"] = user
			}
			if cmd.Flags().Changed("email") {
				req["email"] = email
			}
			if cmd.Flags().Changed("fingerprint") {
				req["fingerprint_id"] = fingerprint
			}
			if cmd.Flags().Changed("super") {
				req["is_super_admin"] = superAdmin
			}
			if len(req) == 0 {
				return fmt.Errorf("nothing to update: set --user, --email, --fingerprint or --super")
			}

			var result Admin
			if err := client.Patch(cmd.Context(), "/api/v1/admins/"+args[0], req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "New username")
	cmd.Flags().StringVar(&email, "email", "", "New email address")
	cmd.Flags().IntVar(&fingerprint, "fingerprint", 0, "New fingerprint ID")
	cmd.Flags().BoolVar(&superAdmin, "super", false, "Grant or revoke super admin (--super=false)")

	return cmd
}

func newAdminDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an admin (super admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), "/api/v1/admins/" + args[0]); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage(fmt.Sprintf("Deleted admin %s", args[0]))
			return nil
		},
	}
}
