package usecase

import (
	"context"
	"log/slog"

	"github.com/djazairmed/mailer/internal/mailer/entity"
)

// VerifyTransport is run once at startup. The relay is always probed and a
// failure is only logged; exchange presence is checked without a network
// call. It fails when the default provider is the one that is unusable.
func (s *Usecase) VerifyTransport(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "VerifyTransport")
	defer span.End()

	relayErr := s.relay.Verify(ctx)
	if relayErr != nil {
		slog.WarnContext(ctx, "relay verification failed", "error", relayErr)
	} else {
		slog.InfoContext(ctx, "relay verified")
	}

	exchangeReady := s.cfg.Exchange != nil
	if !exchangeReady {
		slog.InfoContext(ctx, "exchange is not configured")
	}

	switch s.cfg.DefaultProvider {
	case entity.ProviderRelay:
		if relayErr != nil {
			return relayErr
		}
	case entity.ProviderExchange:
		if !exchangeReady {
			return entity.NewMailError(entity.KindConfiguration, entity.ProviderExchange, "verify", entity.ErrExchangeNotConfigured)
		}
	}

	slog.InfoContext(ctx, "mail transport ready", "default_provider", s.cfg.DefaultProvider.String())
	return nil
}
