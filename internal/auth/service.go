package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/db"
)

type Service struct {
	repo   Repository
	tokens *Tokens
	now    func() time.Time
}

func NewService(repo Repository, tokens *Tokens) *Service {
	return &Service{repo: repo, tokens: tokens, now: time.Now}
}

type LoginResult struct {
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// Login checks credentials against the tenant's users and issues a token bound
// to that tenant. Unknown emails and wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, tenantID, email, password string) (*LoginResult, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.Active() || !VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(u, tenantID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         in.Role,
		RecordStatus: db.RecordActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
