package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hackgods/clinicdesk/internal/auth"
	"github.com/hackgods/clinicdesk/internal/db"
)

func newUserCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}

	var (
		tenant string
		in     auth.CreateUserInput
		role   string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user in a tenant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tenant == "" {
				tenant = e.cfg.DefaultTenant
			}
			ctx, release, err := db.AcquireTenant(cmd.Context(), e.pool, tenant)
			if err != nil {
				return err
			}
			defer release()

			in.Role = auth.Role(role)
			svc := auth.NewService(auth.NewPgRepository(e.pool), auth.NewTokens(e.cfg.JWTSecret, e.cfg.JWTTTL))
			u, err := svc.CreateUser(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s) in %s\n", u.Role, u.Email, u.ID, tenant)
			return nil
		},
	}
	create.Flags().StringVar(&tenant, "tenant", "", "tenant id (defaults to DEFAULT_TENANT)")
	create.Flags().StringVar(&in.Email, "email", "", "login email")
	create.Flags().StringVar(&in.Password, "password", "", "initial password")
	create.Flags().StringVar(&in.FullName, "name", "", "full name")
	create.Flags().StringVar(&role, "role", string(auth.RoleAdmin), "admin, doctor or staff")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}
