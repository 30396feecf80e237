package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hackgods/clinicdesk/internal/db"
)

func newTenantCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage clinic tenants",
	}

	var name string
	create := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a tenant schema, register it and apply tenant migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if name == "" {
				name = id
			}
			shared, tenantMig := e.migrators()
			if _, err := shared.Up(cmd.Context(), sharedSchema); err != nil {
				return err
			}
			if err := db.CreateTenantSchema(cmd.Context(), e.pool, id, name, tenantMig); err != nil {
				return err
			}
			e.logger.Info().Str("tenant_id", id).Str("schema", db.SchemaFor(id)).Msg("tenant created")
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name (defaults to the id)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered tenants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := db.ListTenants(cmd.Context(), e.pool)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}
