package main

import (
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"membersite/internal/config"
	"membersite/internal/domain"
	"membersite/internal/repos"
	"membersite/internal/services"
)

// NewUserCmd groups the user store maintenance commands.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserPromoteCmd())
	cmd.AddCommand(newUserListCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var email, name, password string
	var admin bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account, optionally with the admin role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			role := domain.RoleStandard
			if admin {
				role = domain.RoleAdmin
			}
			auth := services.NewAuthService(repos.NewUserRepo(db), services.NewBcryptHasher(cfg.Auth.BcryptCost))
			id, err := auth.CreateUser(cmd.Context(), url.Values{
				"email":    {email},
				"name":     {name},
				"password": {password},
			}, role)
			if err != nil {
				return err
			}
			cmd.Printf("Created %s <%s> (%s)\n", id.Name, id.Email, id.Role)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&email, "email", "", "login email")
	f.StringVar(&name, "name", "", "display name (alphanumeric, at most 20)")
	f.StringVar(&password, "password", "", "password (at most 20 characters)")
	f.BoolVar(&admin, "admin", false, "grant the admin role")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant the admin role to every account with this email",
		Long: `Grant the admin role to every account with this email. Sessions that
are already logged in keep their old role until the next login.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := repos.NewUserRepo(db).SetRole(cmd.Context(), args[0], domain.RoleAdmin)
			if err != nil {
				return err
			}
			if n == 0 {
				return oops.Code("USER_NOT_FOUND").With("email", args[0]).Errorf("no user with email %s", args[0])
			}
			cmd.Printf("Promoted %d account(s)\n", n)
			return nil
		},
	}
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with their role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			users, err := repos.NewUserRepo(db).ListAll(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tROLE")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\n", u.Name, u.Role)
			}
			return w.Flush()
		},
	}
}

func openStore(cmd *cobra.Command) (config.Config, *sqlx.DB, error) {
	cfg, err := loadStoreConfig(cmd)
	if err != nil {
		return cfg, nil, err
	}
	db, err := repos.OpenDB(cmd.Context(), cfg.Store)
	if err != nil {
		return cfg, nil, oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Store.Driver).Wrap(err)
	}
	return cfg, db, nil
}
