package db

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	tenantIDKey contextKey = "tenant_id"
	dbConnKey   contextKey = "db_conn"
)

const TenantHeader = "X-Tenant-ID"

var tenantIDPattern = regexp.MustCompile(`^[a-z0-9_]{1,48}$`)

// ValidTenantID reports whether id is safe to embed in a schema name.
func ValidTenantID(id string) bool {
	return tenantIDPattern.MatchString(id)
}

// SchemaFor returns the Postgres schema that holds a tenant's tables.
func SchemaFor(tenantID string) string {
	return "tenant_" + tenantID
}

// TenantMiddleware pins a pooled connection to the request, scoped to the
// tenant's schema via search_path. claimTenant returns the tenant carried by an
// authenticated principal, if any; it takes precedence over the header.
func TenantMiddleware(pool *pgxpool.Pool, defaultTenant string, claimTenant func(context.Context) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := resolveTenant(r, defaultTenant, claimTenant)
			if !ValidTenantID(tenantID) {
				http.Error(w, `{"error":"invalid_tenant","details":"invalid tenant identifier"}`, http.StatusBadRequest)
				return
			}

			ctx, release, err := AcquireTenant(r.Context(), pool, tenantID)
			if err != nil {
				http.Error(w, `{"error":"database_unavailable"}`, http.StatusServiceUnavailable)
				return
			}
			defer release()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var ErrInvalidTenant = errors.New("invalid tenant identifier")

// AcquireTenant pins a pooled connection whose search_path is the tenant's
// schema and returns ctx carrying it. release resets the connection and hands
// it back to the pool.
func AcquireTenant(ctx context.Context, pool *pgxpool.Pool, tenantID string) (context.Context, func(), error) {
	if !ValidTenantID(tenantID) {
		return ctx, nil, fmt.Errorf("%w: %q", ErrInvalidTenant, tenantID)
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("acquire connection: %w", err)
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s, shared, public", SchemaFor(tenantID))); err != nil {
		conn.Release()
		return ctx, nil, fmt.Errorf("set search_path for %s: %w", tenantID, err)
	}
	release := func() {
		_, _ = conn.Exec(context.Background(), "RESET search_path")
		conn.Release()
	}

	ctx = context.WithValue(ctx, tenantIDKey, tenantID)
	ctx = context.WithValue(ctx, dbConnKey, conn)
	return ctx, release, nil
}

func resolveTenant(r *http.Request, defaultTenant string, claimTenant func(context.Context) string) string {
	if claimTenant != nil {
		if tid := claimTenant(r.Context()); tid != "" {
			return tid
		}
	}
	if tid := r.Header.Get(TenantHeader); tid != "" {
		return tid
	}
	return defaultTenant
}

// WithTenant returns ctx tagged with tenantID without a pinned connection.
// Used by workers and tests that address a tenant explicitly.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// ConnFromContext retrieves the tenant-scoped database connection from context.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(dbConnKey).(*pgxpool.Conn)
	return conn
}

// TenantFromContext retrieves the tenant ID from context.
func TenantFromContext(ctx context.Context) string {
	tid, _ := ctx.Value(tenantIDKey).(string)
	return tid
}

// CreateTenantSchema creates the tenant's schema, registers it in shared.tenants
// and applies the tenant migrations.
func CreateTenantSchema(ctx context.Context, pool *pgxpool.Pool, tenantID, name string, migrator *Migrator) error {
	if !ValidTenantID(tenantID) {
		return fmt.Errorf("%w: %q", ErrInvalidTenant, tenantID)
	}
	schema := SchemaFor(tenantID)

	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	if _, err := pool.Exec(ctx, `
		INSERT INTO shared.tenants (id, name, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, tenantID, name); err != nil {
		return fmt.Errorf("register tenant %s: %w", tenantID, err)
	}

	if migrator != nil {
		if _, err := migrator.Up(ctx, schema); err != nil {
			return fmt.Errorf("run migrations for %s: %w", schema, err)
		}
	}
	return nil
}

// ListTenants returns every registered tenant id.
func ListTenants(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	rows, err := pool.Query(ctx, `SELECT id FROM shared.tenants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
