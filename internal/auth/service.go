package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/portfolio/internal/telemetry/tracing"
	"github.com/2beens/portfolio/pkg"
)

// ErrInvalidCredentials is returned for any failed login, whatever the cause.
var ErrInvalidCredentials = errors.New("invalid email or password")

type adminRepo interface {
	adminFinder
	FindActiveAdminByEmail(ctx context.Context, email string) (*Admin, error)
	CreateAdminIfMissing(ctx context.Context, email, passwordHash string) (bool, error)
}

type Service struct {
	repo  adminRepo
	codec *TokenCodec
	// compared against when the email is unknown, so both failure paths
	// pay for one bcrypt comparison
	dummyHash string
}

func NewService(repo adminRepo, codec *TokenCodec) (*Service, error) {
	dummyHash, err := pkg.HashPassword("no-such-admin-password")
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	return &Service{
		repo:      repo,
		codec:     codec,
		dummyHash: dummyHash,
	}, nil
}

// Login checks the credentials and returns a new session token for the admin.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Admin, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "authService.login")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		pkg.CheckPasswordHash(password, s.dummyHash)
		return "", nil, ErrInvalidCredentials
	}

	admin, err := s.repo.FindActiveAdminByEmail(ctx, email)
	if errors.Is(err, ErrAdminNotFound) {
		pkg.CheckPasswordHash(password, s.dummyHash)
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("find admin by email: %w", err)
	}

	if !pkg.CheckPasswordHash(password, admin.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.codec.Issue(admin.ID)
	if err != nil {
		return "", nil, err
	}

	return token, admin, nil
}

// EnsureAdmin creates the configured admin on first start.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return errors.New("admin email or password not set")
	}

	passwordHash, err := pkg.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	created, err := s.repo.CreateAdminIfMissing(ctx, email, passwordHash)
	if err != nil {
		return err
	}
	if created {
		log.Infof("seeded admin user: %s", email)
	} else {
		log.Debugf("admin user exists: %s", email)
	}

	return nil
}
