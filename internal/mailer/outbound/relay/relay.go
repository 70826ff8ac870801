package relay

import (
	"context"
	"errors"

	"github.com/djazairmed/mailer/internal/mailer/entity"
	"github.com/djazairmed/mailer/internal/pkg/instrument"
	"github.com/djazairmed/mailer/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Adapter delivers mail through the generic SMTP relay.
type Adapter struct {
	handle Handle
	sender entity.Sender
	ins    instrument.Instrumentation
}

// New wraps an already built handle.
func New(handle Handle, sender entity.Sender, ins instrument.Instrumentation) *Adapter {
	return &Adapter{handle: handle, sender: sender, ins: ins}
}

// Verify checks that the relay accepts a session. Any failure is a
// configuration error.
func (a *Adapter) Verify(ctx context.Context) error {
	ctx, span := a.ins.Tracer("mailer.outbound.relay").Start(ctx, "Verify")
	defer span.End()

	if err := a.handle.Verify(ctx); err != nil {
		recordError(span, err)
		return entity.NewMailError(entity.KindConfiguration, entity.ProviderRelay, "verify", err)
	}

	return nil
}

// Send submits req and returns what the relay accepted.
func (a *Adapter) Send(ctx context.Context, req entity.SendRequest) (*entity.Receipt, error) {
	ctx, span := a.ins.Tracer("mailer.outbound.relay").Start(ctx, "Send")
	defer span.End()

	receipt, err := a.handle.Send(ctx, mail.Message{
		From:     mail.FormatAddress(a.sender.Name, a.sender.Address),
		To:       []string{req.To},
		Subject:  req.Subject,
		TextBody: req.Text,
		HTMLBody: req.HTML,
	})
	if err != nil {
		recordError(span, err)
		kind := entity.KindSend
		if errors.Is(err, ErrNotConfigured) {
			kind = entity.KindConfiguration
		}
		return nil, entity.NewMailError(kind, entity.ProviderRelay, "send", err)
	}

	span.SetAttributes(
		attribute.String("mail.message_id", receipt.MessageID),
		attribute.Int("mail.accepted", len(receipt.Accepted)),
		attribute.Int("mail.rejected", len(receipt.Rejected)),
	)

	return &entity.Receipt{
		Provider:  entity.ProviderRelay,
		MessageID: receipt.MessageID,
		Accepted:  receipt.Accepted,
		Rejected:  receipt.Rejected,
	}, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
