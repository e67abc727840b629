package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/credpanel/internal/domain/model"
	"github.com/ericfisherdev/credpanel/internal/domain/port/driven"
)

// RegisterInput carries the fields of a new account. An empty Role falls
// back to model.DefaultRole.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Session is the result of a successful register or login.
type Session struct {
	Token string
	User  model.User
}

// AuthService is the identity collaborator: it registers users, checks
// passwords, and issues and resolves bearer tokens.
type AuthService struct {
	users    driven.UserStore
	hasher   driven.PasswordHasher
	tokens   driven.TokenIssuer
	mailer   driven.Mailer
	resetURL string
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates an AuthService. resetURL is the page that receives
// the reset token as its "token" query parameter.
func NewAuthService(
	users driven.UserStore,
	hasher driven.PasswordHasher,
	tokens driven.TokenIssuer,
	mailer driven.Mailer,
	resetURL string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		mailer:   mailer,
		resetURL: resetURL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(registration{Name: name, Email: email, Password: in.Password}); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up user by email: %w", err)
	}
	if existing != nil {
		return nil, invalid("email already registered")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = model.DefaultRole
	}

	user := model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, driven.ErrEmailTaken) {
			return nil, invalid("email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)

	return s.session(user)
}

// Login verifies the password and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up user by email: %w", err)
	}
	if user == nil || !s.hasher.Verify(user.PasswordHash, password) {
		return nil, unauthorized("incorrect email or password")
	}

	return s.session(*user)
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.ParseAccess(token)
	if err != nil {
		return nil, unauthorized("could not validate credentials")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	if user == nil {
		return nil, unauthorized("could not validate credentials")
	}
	return user, nil
}

// ChangePassword replaces the password of user after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, user model.User, current, next string) error {
	if !s.hasher.Verify(user.PasswordHash, current) {
		return invalid("current password is incorrect")
	}
	if next == "" {
		return invalid("new password is required")
	}

	return s.setPassword(ctx, user.ID, next)
}

// ForgotPassword mails a reset link when email belongs to a user. Unknown
// addresses succeed silently so callers cannot discover which accounts exist.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("look up user by email: %w", err)
	}
	if user == nil {
		s.logger.DebugContext(ctx, "password reset for unknown email")
		return nil
	}

	token, err := s.tokens.IssueReset(user.Email)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	link, err := resetLink(s.resetURL, token)
	if err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

// ResetPassword sets a new password for the user named by a reset token.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	email, err := s.tokens.ParseReset(token)
	if err != nil {
		return invalid("invalid or expired reset token")
	}
	if password == "" {
		return invalid("new password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("look up user by email: %w", err)
	}
	if user == nil {
		return invalid("invalid or expired reset token")
	}

	return s.setPassword(ctx, user.ID, password)
}

// ListUsers returns the user directory.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *AuthService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, driven.ErrUserNotFound) {
			return notFound("user not found")
		}
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed", "user_id", userID)
	return nil
}

func (s *AuthService) session(user model.User) (*Session, error) {
	token, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

type registration struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func resetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse reset url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
