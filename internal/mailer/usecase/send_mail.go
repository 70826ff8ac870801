package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/djazairmed/mailer/internal/mailer/entity"
	"github.com/djazairmed/mailer/internal/mailer/outbound/exchange"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

type SendMailInput struct {
	To       string          `validate:"required,email,max=254"`
	Subject  string          `validate:"required,max=998"`
	Text     string          `validate:"required_without=HTML"`
	HTML     string
	Provider entity.Provider `validate:"omitempty,oneof=relay exchange"`
}

// SendMail delivers one message synchronously.
//
// Every failure is returned as a single *entity.DispatchError whose chain holds
// the *entity.MailError and the backend cause.
func (s *Usecase) SendMail(ctx context.Context, in SendMailInput) (*entity.Receipt, error) {
	ctx, span := s.startSpan(ctx, "SendMail")
	defer span.End()

	req := entity.SendRequest{
		To:       in.To,
		Subject:  in.Subject,
		Text:     in.Text,
		HTML:     in.HTML,
		Provider: in.Provider,
	}

	provider := ResolveProvider(req.Provider, s.cfg.DefaultProvider)
	span.SetAttributes(attribute.String("mail.provider", provider.String()))

	start := s.clock.Now()
	receipt, err := s.dispatch(ctx, provider, req)
	s.record(ctx, provider, start, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		kind, _ := entity.KindOf(err)
		slog.ErrorContext(ctx, "failed to send email",
			"provider", provider.String(),
			"kind", kind.String(),
			"to", req.To,
			"error", err,
		)

		return nil, &entity.DispatchError{Provider: provider, Err: err}
	}

	slog.InfoContext(ctx, "email sent",
		"provider", provider.String(),
		"to", req.To,
		"message_id", receipt.MessageID,
	)

	return receipt, nil
}

func (s *Usecase) dispatch(ctx context.Context, provider entity.Provider, req entity.SendRequest) (*entity.Receipt, error) {
	if !req.HasContent() {
		return nil, entity.NewMailError(entity.KindValidation, provider, "send", entity.ErrContentMissing)
	}

	switch provider {
	case entity.ProviderExchange:
		if s.cfg.Exchange == nil {
			return nil, entity.NewMailError(entity.KindConfiguration, provider, "send", entity.ErrExchangeNotConfigured)
		}

		return s.exchange.Send(ctx, exchange.Payload{
			To:       req.To,
			Subject:  PrefixSubject(req.Subject),
			Text:     req.Text,
			HTML:     req.HTML,
			FromName: s.cfg.Sender.Name,
		})

	case entity.ProviderRelay:
		return s.relay.Send(ctx, req)

	default:
		return nil, entity.NewMailError(entity.KindValidation, provider, "send", errors.New("unknown provider"))
	}
}

func (s *Usecase) record(ctx context.Context, provider entity.Provider, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		kind, _ := entity.KindOf(err)
		outcome = kind.String()
	}

	attrs := metric.WithAttributes(
		attribute.String("mail.provider", provider.String()),
		attribute.String("mail.outcome", outcome),
	)

	if s.dispatchCounter != nil {
		s.dispatchCounter.Add(ctx, 1, attrs)
	}
	if s.dispatchHistogram != nil {
		s.dispatchHistogram.Record(ctx, float64(s.clock.Now().Sub(start).Milliseconds()), attrs)
	}
}
