package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogSender(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, LogSender{}.Send(ctx, Message{Subject: "hi"}), ErrNoRecipient)
	assert.NoError(t, LogSender{}.Send(ctx, Message{To: []string{"a@example.com"}, Subject: "hi"}))
}

func TestSMTPSender_RejectsBeforeDialing(t *testing.T) {
	s := NewSMTPSender("127.0.0.1", 1, "", "", "shop@example.com")

	assert.ErrorIs(t, s.Send(context.Background(), Message{Subject: "x"}), ErrNoRecipient)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: []string{"a@example.com"}}), context.Canceled)
}
