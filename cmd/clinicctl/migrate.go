package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hackgods/clinicdesk/internal/db"
)

const sharedSchema = "shared"

func (e *env) migrators() (shared, tenant *db.Migrator) {
	fsys := os.DirFS(e.cfg.MigrationsDir)
	return db.NewMigrator(e.pool, fsys, "shared"), db.NewMigrator(e.pool, fsys, "tenant")
}

// targetTenants returns the tenant named by --tenant, or every registered one.
func (e *env) targetTenants(cmd *cobra.Command, only string) ([]string, error) {
	if only != "" {
		if !db.ValidTenantID(only) {
			return nil, fmt.Errorf("invalid tenant identifier %q", only)
		}
		return []string{only}, nil
	}
	return db.ListTenants(cmd.Context(), e.pool)
}

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
	}

	var tenant string
	var target int
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations to the shared schema and tenant schemas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			shared, tenantMig := e.migrators()

			n, err := shared.Up(ctx, sharedSchema)
			if err != nil {
				return err
			}
			e.logger.Info().Str("schema", sharedSchema).Int("applied", n).Msg("migrations applied")

			tenants, err := e.targetTenants(cmd, tenant)
			if err != nil {
				return err
			}
			for _, id := range tenants {
				schema := db.SchemaFor(id)
				n, err := tenantMig.UpTo(ctx, schema, target)
				if err != nil {
					return fmt.Errorf("tenant %s: %w", id, err)
				}
				e.logger.Info().Str("schema", schema).Int("applied", n).Msg("migrations applied")
			}
			return nil
		},
	}
	up.Flags().StringVar(&tenant, "tenant", "", "only migrate this tenant")
	up.Flags().IntVar(&target, "to", 0, "stop after this tenant migration version (0 = all)")

	var statusTenant string
	status := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether each schema has applied them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			shared, tenantMig := e.migrators()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "SCHEMA\tVERSION\tNAME\tAPPLIED AT")

			show := func(schema string, m *db.Migrator) error {
				statuses, err := m.Status(ctx, schema)
				if err != nil {
					return err
				}
				for _, st := range statuses {
					at := "pending"
					if st.Applied {
						at = st.AppliedAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(w, "%s\t%03d\t%s\t%s\n", schema, st.Version, st.Name, at)
				}
				return nil
			}

			if err := show(sharedSchema, shared); err != nil {
				return err
			}
			tenants, err := e.targetTenants(cmd, statusTenant)
			if err != nil {
				return err
			}
			for _, id := range tenants {
				if err := show(db.SchemaFor(id), tenantMig); err != nil {
					return err
				}
			}
			return nil
		},
	}
	status.Flags().StringVar(&statusTenant, "tenant", "", "only show this tenant")

	cmd.AddCommand(up, status)
	return cmd
}
