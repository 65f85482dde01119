package userauth

import (
	"context"
	"net/url"
	"strings"
)

// NotificationKind identifies the email a notifier is asked to send.
type NotificationKind string

const (
	NotificationActivation NotificationKind = "account.activation"
	NotificationWelcome    NotificationKind = "account.welcome"
	NotificationRecovery   NotificationKind = "account.recovery"
)

// Notification records an email handed to the notifier, surfaced in
// AccountResult so callers can inspect what went out.
type Notification struct {
	Kind NotificationKind
	To   string
	URL  string
}

// Notifier delivers account emails. Delivery failures never abort the
// account operation that triggered them, the manager reports them as a
// warning instead.
type Notifier interface {
	SendActivationEmail(ctx context.Context, to, activationURL string) error
	SendWelcomeEmail(ctx context.Context, to string) error
	SendRecoveryEmail(ctx context.Context, to, recoveryURL string) error
}

type noopNotifier struct{}

func (noopNotifier) SendActivationEmail(context.Context, string, string) error { return nil }
func (noopNotifier) SendWelcomeEmail(context.Context, string) error            { return nil }
func (noopNotifier) SendRecoveryEmail(context.Context, string, string) error   { return nil }

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// appendQuery attaches key=value to base, tolerating bases that already
// carry a query string.
func appendQuery(base, key, value string) string {
	if base == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + key + "=" + url.QueryEscape(value)
}

func activationLink(base, userID string) string {
	return appendQuery(base, "id", userID)
}

func recoveryLink(base, token string) string {
	return appendQuery(base, "token", token)
}
