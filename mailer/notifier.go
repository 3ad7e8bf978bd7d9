package mailer

import "context"

// Notifier builds the auth lifecycle emails and pushes them through the
// configured Sender.
type Notifier struct {
	sender Sender
}

// NewNotifier wraps a sender with the auth email builders.
func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// SendVerification emails the account activation link.
func (n *Notifier) SendVerification(ctx context.Context, to, name, baseURL, token string) error {
	msg, err := VerificationEmail(to, name, baseURL, token)
	if err != nil {
		return err
	}
	return n.sender.SendEmail(ctx, msg)
}

// SendPasswordReset emails the password reset link.
func (n *Notifier) SendPasswordReset(ctx context.Context, to, name, baseURL, token string) error {
	msg, err := PasswordResetEmail(to, name, baseURL, token)
	if err != nil {
		return err
	}
	return n.sender.SendEmail(ctx, msg)
}
