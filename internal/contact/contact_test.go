package contact

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront/internal/forms"
	"github.com/MikeMC777/storefront/internal/mail"
)

type outbox struct {
	sent []mail.Message
	err  error
}

func (o *outbox) Send(_ context.Context, m mail.Message) error {
	o.sent = append(o.sent, m)
	return o.err
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		form   Form
		fields []string
	}{
		{"all missing", Form{}, []string{"name", "email", "message"}},
		{"bad email", Form{Name: "Ana", Email: "ana@", Message: "hi"}, []string{"email"}},
		{"long name", Form{Name: strings.Repeat("n", 101), Email: "ana@example.com", Message: "hi"}, []string{"name"}},
		{"blank message", Form{Name: "Ana", Email: "ana@example.com", Message: "   "}, []string{"message"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.form.Validate()
			var fe forms.Errors
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Len(t, fe, len(tc.fields))
			for _, f := range tc.fields {
				assert.Contains(t, fe, f)
			}
		})
	}
}

func TestSubmit(t *testing.T) {
	box := &outbox{}
	svc := NewService(box, "owner@shop.test")

	err := svc.Submit(context.Background(), Form{Name: " Ana ", Email: "ana@example.com", Message: "Do you ship abroad?"})
	require.NoError(t, err)
	require.Len(t, box.sent, 1)
	m := box.sent[0]
	assert.Equal(t, []string{"owner@shop.test"}, m.To)
	assert.Equal(t, "ana@example.com", m.ReplyTo)
	assert.Equal(t, "Message from Ana (ana@example.com)", m.Subject)
	assert.Equal(t, "Do you ship abroad?", m.Body)
}

func TestSubmit_InvalidSendsNothing(t *testing.T) {
	box := &outbox{}
	svc := NewService(box, "owner@shop.test")
	require.Error(t, svc.Submit(context.Background(), Form{Name: "Ana"}))
	assert.Empty(t, box.sent)
}

func TestSubmit_DeliveryFailureIsNotRetried(t *testing.T) {
	box := &outbox{err: errors.New("connection refused")}
	svc := NewService(box, "owner@shop.test")

	err := svc.Submit(context.Background(), Form{Name: "Ana", Email: "ana@example.com", Message: "hi"})
	assert.ErrorIs(t, err, ErrDelivery)
	assert.Len(t, box.sent, 1)
}
