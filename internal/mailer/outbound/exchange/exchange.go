// Package exchange delivers mail through Exchange Web Services.
package exchange

import (
	"context"
	"errors"

	"github.com/djazairmed/mailer/internal/mailer/entity"
	"github.com/djazairmed/mailer/internal/mailer/mailconfig"
	"github.com/djazairmed/mailer/internal/pkg/instrument"
	"github.com/djazairmed/mailer/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultFromName is used when no display name is configured.
const DefaultFromName = "Djazairmed"

var errNoBody = errors.New("message has neither text nor html body")

// Session is one EWS session.
type Session interface {
	SendAndSaveCopy(ctx context.Context, msg mail.EWSMessage) error
	Close() error
}

// SessionFactory opens a session per message.
type SessionFactory func(cfg mail.EWSConfig) (Session, error)

// NewSession is the production SessionFactory.
func NewSession(cfg mail.EWSConfig) (Session, error) {
	s, err := mail.NewEWS(cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Payload is what the dispatcher hands to the adapter.
type Payload struct {
	To       string
	Subject  string
	Text     string
	HTML     string
	FromName string
}

// Adapter sends through EWS with a fresh session for every message.
type Adapter struct {
	cfg        *mailconfig.ExchangeConfig
	newSession SessionFactory
	ins        instrument.Instrumentation
}

// New builds an Adapter. cfg may be nil when exchange is not configured.
func New(cfg *mailconfig.ExchangeConfig, factory SessionFactory, ins instrument.Instrumentation) *Adapter {
	if factory == nil {
		factory = NewSession
	}
	return &Adapter{cfg: cfg, newSession: factory, ins: ins}
}

// Configured reports whether exchange settings are present.
func (a *Adapter) Configured() bool {
	return a.cfg != nil
}

// Send submits p and keeps a copy in the mailbox's sent items.
func (a *Adapter) Send(ctx context.Context, p Payload) (*entity.Receipt, error) {
	ctx, span := a.ins.Tracer("mailer.outbound.exchange").Start(ctx, "Send")
	defer span.End()

	receipt, err := a.send(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return receipt, nil
}

func (a *Adapter) send(ctx context.Context, p Payload) (*entity.Receipt, error) {
	if a.cfg == nil {
		return nil, entity.NewMailError(entity.KindConfiguration, entity.ProviderExchange, "send", entity.ErrExchangeNotConfigured)
	}

	session, err := a.newSession(mail.EWSConfig{
		URL:        a.cfg.URL,
		Username:   a.cfg.Username,
		Password:   a.cfg.Password,
		AuthScheme: mail.EWSAuthScheme(a.cfg.AuthScheme),
	})
	if err != nil {
		return nil, entity.NewMailError(entity.KindConfiguration, entity.ProviderExchange, "open session", err)
	}
	defer session.Close()

	msg := mail.EWSMessage{
		Subject:     p.Subject,
		To:          []string{p.To},
		FromName:    p.FromName,
		FromAddress: a.cfg.FromEmail,
	}
	if msg.FromName == "" {
		msg.FromName = DefaultFromName
	}

	switch {
	case p.HTML != "":
		msg.Body, msg.BodyType = p.HTML, mail.EWSBodyHTML
		if p.Text == "" {
			msg.Body = SanitizeHTML(p.HTML)
		}
	case p.Text != "":
		msg.Body, msg.BodyType = p.Text, mail.EWSBodyText
	default:
		return nil, entity.NewMailError(entity.KindSend, entity.ProviderExchange, "send", errNoBody)
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("mail.body_type", string(msg.BodyType)))

	if err := session.SendAndSaveCopy(ctx, msg); err != nil {
		return nil, Classify(err)
	}

	return &entity.Receipt{Provider: entity.ProviderExchange}, nil
}
