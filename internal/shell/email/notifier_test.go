package email

import (
	"context"
	"errors"
	"testing"

	"github.com/inkpress/inkpress/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMailer records sends and fails on demand.
type fakeMailer struct {
	sent []Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestNotifierWelcome(t *testing.T) {
	fake := &fakeMailer{}
	n := NewNotifier(fake)

	user := &domain.User{Email: "writer@example.com", Name: "Ada"}
	require.NoError(t, n.Welcome(context.Background(), user))

	require.Len(t, fake.sent, 1)
	assert.Equal(t, "writer@example.com", fake.sent[0].To)
	assert.Contains(t, fake.sent[0].Text, "Ada")
}

func TestNotifierBookPublished(t *testing.T) {
	fake := &fakeMailer{}
	n := NewNotifier(fake)

	user := &domain.User{Email: "writer@example.com", Name: "Ada"}
	book := &domain.Book{Title: "The Midnight Library", Author: "Matt Haig"}
	require.NoError(t, n.BookPublished(context.Background(), user, book))

	require.Len(t, fake.sent, 1)
	assert.Contains(t, fake.sent[0].Subject, "The Midnight Library")
}

// Provider failures must reach the caller unchanged, never be swallowed.
func TestNotifier_SendFailurePropagates(t *testing.T) {
	sendErr := errors.New("Email send failed")
	n := NewNotifier(&fakeMailer{err: sendErr})

	user := &domain.User{Email: "writer@example.com"}
	err := n.Welcome(context.Background(), user)
	require.Error(t, err)
	assert.Equal(t, sendErr, err)
}

func TestMessageValidate(t *testing.T) {
	assert.ErrorIs(t, Message{}.Validate(), ErrRecipientRequired)
	assert.ErrorIs(t, Message{To: "x@example.com"}.Validate(), ErrSubjectRequired)
	assert.NoError(t, Message{To: "x@example.com", Subject: "hi"}.Validate())
}

func TestNoopMailer(t *testing.T) {
	m := NewNoopMailer(nil)
	err := m.Send(context.Background(), Message{To: "x@example.com", Subject: "hi"})
	assert.NoError(t, err)

	err = m.Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrRecipientRequired)
}
