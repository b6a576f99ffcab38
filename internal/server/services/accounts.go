package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/server/auth"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
	"github.com/dmitrijs2005/photogallery/internal/server/repositories/users"
)

// PasswordHasher produces and checks opaque password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// Session is an issued session token.
type Session struct {
	Email     string
	Token     string
	ExpiresAt time.Time
}

type AccountService struct {
	users    users.Repository
	hasher   PasswordHasher
	secret   []byte
	validity time.Duration
	timeout  time.Duration
	logger   logging.Logger

	now func() time.Time
}

func NewAccountService(u users.Repository, h PasswordHasher, secretKey string, validity, timeout time.Duration, logger logging.Logger) *AccountService {
	return &AccountService{
		users:    u,
		hasher:   h,
		secret:   []byte(secretKey),
		validity: validity,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates an account and signs it in. A taken email fails with
// common.ErrAlreadyExists; it is never retried.
func (s *AccountService) Register(ctx context.Context, email, password string) (*Session, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.Invalidf("email and password are required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	u := &models.User{Email: email, PasswordHash: hash, CreatedAt: s.now().UTC().Truncate(time.Second)}
	if err := s.users.Register(ctx, u); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			s.logger.Info(ctx, "registration rejected, email taken", "email", email)
		}
		return nil, mapCtxErr(err)
	}

	s.logger.Info(ctx, "account registered", "email", email)
	return s.issue(email)
}

// Login checks credentials. Unknown emails and wrong passwords both fail
// with common.ErrUnauthorized.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.Invalidf("email and password are required")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, mapCtxErr(err)
	}
	if u == nil || !s.hasher.Verify(u.PasswordHash, password) {
		s.logger.Warn(ctx, "login failed", "email", email)
		return nil, common.ErrUnauthorized
	}
	return s.issue(email)
}

// Authenticate resolves a session token to the account email.
func (s *AccountService) Authenticate(token string) (string, error) {
	if token == "" {
		return "", common.ErrUnauthorized
	}
	email, err := auth.GetEmailFromToken(token, s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrUnauthorized, err)
	}
	return email, nil
}

func (s *AccountService) issue(email string) (*Session, error) {
	token, err := auth.GenerateToken(email, s.secret, s.validity)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Email: email, Token: token, ExpiresAt: s.now().Add(s.validity)}, nil
}
