// Package account manages storefront users: signup, login and password reset.
package account

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/MikeMC777/storefront/internal/forms"
	"github.com/MikeMC777/storefront/internal/mail"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

const minPasswordLength = 8

// bcrypt rejects longer input.
const maxPasswordBytes = 72

// checkPasswords applies the password rules to a new password pair.
func checkPasswords(p1, p2 string, errs forms.Errors) {
	switch {
	case p1 == "":
		errs["password1"] = forms.Required
	case p1 != p2:
		errs["password2"] = "The two password fields didn't match."
	case len(p1) < minPasswordLength:
		errs["password2"] = fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength)
	case len(p1) > maxPasswordBytes:
		errs["password2"] = fmt.Sprintf("This password is too long. It must contain at most %d bytes.", maxPasswordBytes)
	case strings.Trim(p1, "0123456789") == "":
		errs["password2"] = "This password is entirely numeric."
	}
}

type Service struct {
	repo     Repository
	mailer   mail.Sender
	baseURL  string
	resetTTL time.Duration
	now      func() time.Time
}

func NewService(repo Repository, mailer mail.Sender, baseURL string, resetTTL time.Duration) *Service {
	return &Service{repo: repo, mailer: mailer, baseURL: baseURL, resetTTL: resetTTL, now: time.Now}
}

// Signup validates the form and creates an active, non-staff user.
func (s *Service) Signup(ctx context.Context, f SignupForm) (*User, error) {
	errs := forms.Errors{}
	username := strings.TrimSpace(f.Username)
	switch {
	case username == "":
		errs["username"] = forms.Required
	case len(username) > 150:
		errs["username"] = "Ensure this value has at most 150 characters."
	case !usernameRe.MatchString(username):
		errs["username"] = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}
	checkPasswords(f.Password1, f.Password2, errs)
	if len(errs) > 0 {
		return nil, errs
	}

	u, err := s.CreateUser(ctx, username, strings.TrimSpace(f.Email), f.Password1, false)
	if errors.Is(err, ErrUsernameTaken) {
		return nil, forms.Errors{"username": "A user with that username already exists."}
	}
	return u, err
}

// CreateUser stores a user without form validation.
func (s *Service) CreateUser(ctx context.Context, username, email, password string, staff bool) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{Username: username, Email: email, PasswordHash: hash, IsActive: true, IsStaff: staff}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "user created", "user_id", u.ID, "username", u.Username, "staff", staff)
	return u, nil
}

// Authenticate returns the active user matching the credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive || !CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RequestReset mails a single-use reset link to the user's address. The
// caller sees the same result whether or not the user exists; unknown users,
// users without an e-mail and delivery failures are only logged.
func (s *Service) RequestReset(ctx context.Context, username string) error {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		slog.InfoContext(ctx, "password reset for unknown user", "username", username)
		return nil
	}
	if err != nil {
		return err
	}
	if !u.IsActive || u.Email == "" {
		slog.InfoContext(ctx, "password reset not sent, user inactive or without e-mail", "user_id", u.ID)
		return nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(raw)
	if err := s.repo.CreateReset(ctx, hashToken(token), u.ID, s.now().Add(s.resetTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := s.baseURL + "/password-reset/confirm?token=" + url.QueryEscape(token)
	err = s.mailer.Send(ctx, mail.Message{
		To:      []string{u.Email},
		Subject: "Password reset",
		Body: fmt.Sprintf("Hello %s,\n\nUse this link to choose a new password:\n%s\n\nThe link expires in %s.\n",
			u.Username, link, s.resetTTL),
	})
	if err != nil {
		slog.ErrorContext(ctx, "password reset mail failed", "user_id", u.ID, "err", err)
	}
	return nil
}

// ResetPassword sets a new password for the owner of token and consumes it.
func (s *Service) ResetPassword(ctx context.Context, token, p1, p2 string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	errs := forms.Errors{}
	checkPasswords(p1, p2, errs)
	if len(errs) > 0 {
		return errs
	}
	hash, err := HashPassword(p1)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.ResetPassword(ctx, hashToken(token), hash, s.now())
}
