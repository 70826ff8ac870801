package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/djazairmed/mailer/internal/mailer/mailconfig"
	"github.com/djazairmed/mailer/internal/pkg/mail"
)

// ErrNotConfigured is returned when no relay host or URL is set.
var ErrNotConfigured = errors.New("relay is not configured: set smtp.url or smtp.host")

// Handle is the relay connection the adapter submits through.
type Handle interface {
	Verify(ctx context.Context) error
	Send(ctx context.Context, msg mail.Message) (*mail.Receipt, error)
}

// NewHandle builds the SMTP handle from the resolved transport with timeouts
// and credentials layered on top. Explicit credentials override any userinfo
// in a connection URL.
func NewHandle(cfg *mailconfig.MailConfig) (*mail.SMTP, error) {
	var sc mail.SMTPConfig
	var auth *mailconfig.Auth

	switch t := cfg.Transport.(type) {
	case *mailconfig.URLTransport:
		parsed, err := mail.ParseSMTPURL(t.ConnectionURL)
		if err != nil {
			return nil, err
		}
		sc = parsed
		if t.RequireTLS != nil {
			sc.RequireTLS = *t.RequireTLS
		}
		auth = t.Auth
	case *mailconfig.HostTransport:
		if t.Host == "" {
			return nil, ErrNotConfigured
		}
		sc = mail.SMTPConfig{
			Host:       t.Host,
			Port:       t.Port,
			Secure:     t.Secure,
			RequireTLS: t.RequireTLS,
		}
		auth = t.Auth
	default:
		return nil, fmt.Errorf("relay: unsupported transport %T", cfg.Transport)
	}

	if auth != nil {
		sc.Username, sc.Password = auth.User, auth.Pass
	}
	sc.ConnectionTimeout = cfg.Timeouts.Connection
	sc.GreetingTimeout = cfg.Timeouts.Greeting

	return mail.NewSMTP(sc)
}

// Unavailable returns a Handle that fails every call with err. It stands in
// when NewHandle fails so a deployment whose default is exchange still starts.
func Unavailable(err error) Handle {
	return unavailable{err: err}
}

type unavailable struct {
	err error
}

func (u unavailable) Verify(context.Context) error {
	return u.err
}

func (u unavailable) Send(context.Context, mail.Message) (*mail.Receipt, error) {
	return nil, u.err
}
