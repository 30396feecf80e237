package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinicdesk/internal/db"
)

type memUsers struct {
	byID map[uuid.UUID]*User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[uuid.UUID]*User{}} }

func (m *memUsers) Create(_ context.Context, u *User) error {
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))

	_, err = HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	u := &User{ID: uuid.New(), Email: "dr@clinic.test", Role: RoleDoctor}

	raw, exp, err := tokens.Issue(u, "north")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	p, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, "north", p.TenantID)
	assert.Equal(t, RoleDoctor, p.Role)
}

func TestTokensRejects(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	u := &User{ID: uuid.New(), Role: RoleStaff}

	raw, _, err := tokens.Issue(u, "north")
	require.NoError(t, err)

	_, err = NewTokens("other-secret", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokens("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		role     Role
		action   Action
		resource Resource
		want     bool
	}{
		{RoleAdmin, ActionWrite, ResourceUser, true},
		{RoleAdmin, ActionWrite, ResourceMedicine, true},
		{RoleDoctor, ActionWrite, ResourceAppointment, true},
		{RoleDoctor, ActionWrite, ResourcePrescription, true},
		{RoleDoctor, ActionWrite, ResourcePatient, false},
		{RoleDoctor, ActionRead, ResourcePatient, true},
		{RoleDoctor, ActionWrite, ResourceMedicine, false},
		{RoleStaff, ActionWrite, ResourcePatient, true},
		{RoleStaff, ActionWrite, ResourceAppointment, true},
		{RoleStaff, ActionWrite, ResourcePrescription, false},
		{RoleStaff, ActionRead, ResourceMedicine, true},
		{RoleStaff, ActionRead, ResourceUser, false},
		{Role("guest"), ActionRead, ResourcePatient, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.action)+"/"+string(tt.resource), func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.role, tt.action, tt.resource))
		})
	}
}

func TestMiddlewareAndAuthorize(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	staff := &User{ID: uuid.New(), Role: RoleStaff}
	raw, _, err := tokens.Issue(staff, "north")
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "north", TenantClaim(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})

	readPatients := Middleware(tokens)(Authorize(ActionRead, ResourcePatient)(ok))
	writeRx := Middleware(tokens)(Authorize(ActionWrite, ResourcePrescription)(ok))

	tests := []struct {
		name    string
		handler http.Handler
		auth    string
		want    int
	}{
		{"no token", readPatients, "", http.StatusUnauthorized},
		{"garbage token", readPatients, "Bearer abc", http.StatusUnauthorized},
		{"allowed", readPatients, "Bearer " + raw, http.StatusNoContent},
		{"forbidden", writeRx, "Bearer " + raw, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestServiceLogin(t *testing.T) {
	repo := newMemUsers()
	svc := NewService(repo, NewTokens("test-secret", time.Hour))
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, CreateUserInput{Email: " Admin@Clinic.test ", Password: "s3cret-pass", FullName: "Ada", Role: RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "admin@clinic.test", u.Email)
	assert.Equal(t, db.RecordActive, u.RecordStatus)

	_, err = svc.CreateUser(ctx, CreateUserInput{Email: "admin@clinic.test", Password: "another-pass", Role: RoleStaff})
	assert.ErrorIs(t, err, ErrEmailTaken)

	res, err := svc.Login(ctx, "north", "admin@clinic.test", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, u.ID, res.User.ID)

	_, err = svc.Login(ctx, "north", "admin@clinic.test", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "north", "nobody@clinic.test", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(newMemUsers(), NewTokens("x", time.Hour))
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserInput{Email: "nope", Password: "long-enough", Role: RoleStaff})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.CreateUser(ctx, CreateUserInput{Email: "a@b.c", Password: "long-enough", Role: "owner"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.CreateUser(ctx, CreateUserInput{Email: "a@b.c", Password: "short", Role: RoleStaff})
	assert.ErrorIs(t, err, ErrWeakPassword)
}
