// Package contact forwards contact-form submissions to the shop operator.
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/MikeMC777/storefront/internal/forms"
	sfmail "github.com/MikeMC777/storefront/internal/mail"
)

var ErrDelivery = errors.New("contact message could not be delivered")

var validate = validator.New()

// Form is the contact form.
// swagger:model ContactForm
type Form struct {
	Name    string `form:"name" json:"name" example:"Ana"`
	Email   string `form:"email" json:"email" example:"ana@example.com"`
	Message string `form:"message" json:"message" example:"Do you ship abroad?"`
}

// Validate trims the fields and reports every invalid one.
func (f *Form) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Message = strings.TrimSpace(f.Message)

	errs := forms.Errors{}
	switch {
	case f.Name == "":
		errs["name"] = forms.Required
	case utf8.RuneCountInString(f.Name) > 100:
		errs["name"] = "Ensure this value has at most 100 characters."
	}
	if f.Email == "" {
		errs["email"] = forms.Required
	} else if validate.Var(f.Email, "email") != nil {
		errs["email"] = "Enter a valid email address."
	}
	if f.Message == "" {
		errs["message"] = forms.Required
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type Service struct {
	sender sfmail.Sender
	to     string
}

func NewService(sender sfmail.Sender, operatorEmail string) *Service {
	return &Service{sender: sender, to: operatorEmail}
}

// Submit validates f and sends one message to the operator. Delivery is not
// retried.
func (s *Service) Submit(ctx context.Context, f Form) error {
	if err := f.Validate(); err != nil {
		return err
	}
	err := s.sender.Send(ctx, sfmail.Message{
		To:      []string{s.to},
		ReplyTo: f.Email,
		Subject: fmt.Sprintf("Message from %s (%s)", f.Name, f.Email),
		Body:    f.Message,
	})
	if err != nil {
		slog.ErrorContext(ctx, "contact mail failed", "from", f.Email, "err", err)
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}
