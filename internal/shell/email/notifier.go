package email

import (
	"context"
	"fmt"

	"github.com/inkpress/inkpress/internal/core/domain"
)

// =============================================================================
// Notifier
// =============================================================================

// Notifier composes the portal's notification emails on top of a Mailer.
// Send failures propagate to the caller; whether a failed notification
// fails the surrounding operation is the caller's call.
type Notifier struct {
	mailer Mailer
}

// NewNotifier creates a notifier over the given mailer.
func NewNotifier(mailer Mailer) *Notifier {
	return &Notifier{mailer: mailer}
}

// Welcome sends the account welcome email.
func (n *Notifier) Welcome(ctx context.Context, user *domain.User) error {
	name := user.Name
	if name == "" {
		name = user.Email
	}
	return n.mailer.Send(ctx, Message{
		To:      user.Email,
		Subject: "Welcome to Inkpress",
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour Inkpress account is ready. Add your first book to start building its marketing kit.\n\n— The Inkpress team\n",
			name),
	})
}

// BookPublished sends the launch notification for a newly published book.
func (n *Notifier) BookPublished(ctx context.Context, user *domain.User, book *domain.Book) error {
	return n.mailer.Send(ctx, Message{
		To:      user.Email,
		Subject: fmt.Sprintf("%q is live", book.Title),
		Text: fmt.Sprintf(
			"Hi %s,\n\n%q by %s is now published on Inkpress. Its landing page and marketing assets are available from your dashboard.\n\n— The Inkpress team\n",
			user.Name, book.Title, book.Author),
	})
}
