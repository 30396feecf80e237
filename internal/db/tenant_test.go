package db

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTenantID(t *testing.T) {
	assert.True(t, ValidTenantID("default"))
	assert.True(t, ValidTenantID("clinic_42"))
	assert.False(t, ValidTenantID(""))
	assert.False(t, ValidTenantID("Clinic"))
	assert.False(t, ValidTenantID("a;DROP SCHEMA public"))
	assert.False(t, ValidTenantID("clinic-1"))
}

func TestSchemaFor(t *testing.T) {
	assert.Equal(t, "tenant_default", SchemaFor("default"))
}

func TestResolveTenant(t *testing.T) {
	claim := func(v string) func(context.Context) string {
		return func(context.Context) string { return v }
	}

	r := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, "default", resolveTenant(r, "default", nil))

	r.Header.Set(TenantHeader, "north")
	assert.Equal(t, "north", resolveTenant(r, "default", nil))
	assert.Equal(t, "north", resolveTenant(r, "default", claim("")))
	assert.Equal(t, "south", resolveTenant(r, "default", claim("south")))
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TenantFromContext(ctx))
	assert.Nil(t, ConnFromContext(ctx))

	ctx = WithTenant(ctx, "north")
	assert.Equal(t, "north", TenantFromContext(ctx))
}

func TestAcquireTenant_RejectsInvalidID(t *testing.T) {
	_, release, err := AcquireTenant(context.Background(), nil, "north;drop")
	assert.ErrorIs(t, err, ErrInvalidTenant)
	assert.Nil(t, release)
}
