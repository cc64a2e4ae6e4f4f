package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/postboard/internal/auth"
	"github.com/d60-Lab/postboard/internal/model"
	"github.com/d60-Lab/postboard/internal/repository"
	"github.com/d60-Lab/postboard/pkg/logger"
)

// RegisterInput 注册参数，校验在 handler 的 binding 中完成
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService is the identity provider: accounts, tokens and profile lookup.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
	Logout(ctx context.Context, who auth.Principal) error
	CurrentUser(ctx context.Context, who auth.Principal) (*model.User, error)
	Lookup(ctx context.Context, userID string) (*model.Profile, error)
}

type authService struct {
	users      repository.UserRepository
	tokens     repository.TokenRepository
	issuer     *auth.TokenManager
	bcryptCost int
	now        func() time.Time
}

// NewAuthService wires the identity provider. tokens may be nil, in which case
// sign-out is a no-op and revocation is not checked.
func NewAuthService(users repository.UserRepository, tokens repository.TokenRepository, issuer *auth.TokenManager, bcryptCost int) AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{users: users, tokens: tokens, issuer: issuer, bcryptCost: bcryptCost, now: time.Now}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    in.Email,
		Password: string(hash),
		Avatar:   Gravatar(in.Email),
		Date:     s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return "", ErrUserExists
		}
		return "", &StoreError{Op: "create user", Err: err}
	}
	logger.Info("user registered", zap.String("user", u.ID))
	return s.issuer.Issue(u.ID)
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", &StoreError{Op: "find user", Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.issuer.Issue(u.ID)
}

func (s *authService) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	p, err := s.issuer.Parse(token)
	if err != nil {
		return auth.Principal{}, ErrTokenInvalid
	}
	if s.tokens != nil {
		revoked, err := s.tokens.IsRevoked(ctx, p.TokenID)
		if err != nil {
			return auth.Principal{}, &StoreError{Op: "check token", Err: err}
		}
		if revoked {
			return auth.Principal{}, ErrTokenInvalid
		}
	}
	return p, nil
}

func (s *authService) Logout(ctx context.Context, who auth.Principal) error {
	if s.tokens == nil {
		return nil
	}
	if err := s.tokens.Revoke(ctx, who.TokenID, who.ExpiresAt.Sub(s.now())); err != nil {
		return &StoreError{Op: "revoke token", Err: err}
	}
	return nil
}

func (s *authService) CurrentUser(ctx context.Context, who auth.Principal) (*model.User, error) {
	u, err := s.users.FindByID(ctx, who.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "find user", Err: err}
	}
	return u, nil
}

func (s *authService) Lookup(ctx context.Context, userID string) (*model.Profile, error) {
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "lookup user", Err: err}
	}
	p := u.Profile()
	return &p, nil
}

// Gravatar returns the avatar url for email (200px, pg rating, mystery-man fallback).
func Gravatar(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "//www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=200&r=pg&d=mm"
}
