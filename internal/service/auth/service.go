package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/pkg/clients/supabase"
)

const minPasswordLength = 6

var (
	// ErrInvalidInput is returned for blank credentials or a too short password.
	ErrInvalidInput = errors.New("invalid auth input")
	// ErrDisabled is returned by account actions when authentication is off.
	ErrDisabled = errors.New("authentication is disabled")
)

// Provider is the hosted auth API.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, accessToken, password string) (*supabase.User, error)
}

// Service performs account actions against the auth provider.
type Service struct {
	provider Provider
	resolver Resolver
	redirect string
	logger   *zap.Logger
}

// NewService wires the auth service. A nil provider disables account actions.
func NewService(provider Provider, resolver Resolver, redirect string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, resolver: resolver, redirect: redirect, logger: logger}
}

// Resolve maps a bearer token to a session.
func (s *Service) Resolve(token string) Session {
	return s.resolver.Resolve(token)
}

// SignIn exchanges credentials for an access token and its session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Anonymous, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if s.provider == nil {
		return Anonymous, ErrDisabled
	}

	issued, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.logger.Info("sign in rejected", zap.String("email", email), zap.Error(err))
		return Anonymous, fmt.Errorf("sign in: %w", err)
	}
	session := s.resolver.Resolve(issued.AccessToken)
	if session.State == StateUnauthenticated {
		return Anonymous, errors.New("sign in: issued token could not be verified")
	}
	return session, nil
}

// SignOut revokes the session's token.
func (s *Service) SignOut(ctx context.Context, session Session) error {
	if s.provider == nil || session.Token == "" {
		return nil
	}
	if err := s.provider.SignOut(ctx, session.Token); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// RequestPasswordReset mails a recovery link.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if s.provider == nil {
		return ErrDisabled
	}
	if err := s.provider.ResetPasswordForEmail(ctx, email, s.redirect); err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}
	return nil
}

// UpdatePassword sets a new password from an authenticated or recovery session.
func (s *Service) UpdatePassword(ctx context.Context, session Session, password string) error {
	if session.State != StateAuthenticated && session.State != StatePasswordRecovery {
		return ErrWrongState
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if s.provider == nil {
		return ErrDisabled
	}
	if _, err := s.provider.UpdatePassword(ctx, session.Token, password); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.logger.Info("password updated", zap.String("email", session.User.Email), zap.Stringer("from_state", session.State))
	return nil
}
