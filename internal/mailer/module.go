// Package mailer wires the mail dispatch module: configuration, both
// transport adapters, the dispatch usecase and its HTTP endpoints.
package mailer

import (
	"context"
	"log/slog"
	"time"

	"github.com/djazairmed/mailer/internal/mailer/inbound"
	"github.com/djazairmed/mailer/internal/mailer/mailconfig"
	"github.com/djazairmed/mailer/internal/mailer/outbound/exchange"
	"github.com/djazairmed/mailer/internal/mailer/outbound/relay"
	"github.com/djazairmed/mailer/internal/mailer/usecase"
	"github.com/djazairmed/mailer/internal/pkg/clock"
	"github.com/djazairmed/mailer/internal/pkg/config"
	"github.com/djazairmed/mailer/internal/pkg/goroutine"
	"github.com/djazairmed/mailer/internal/pkg/instrument"
	"github.com/djazairmed/mailer/internal/pkg/router"
	"github.com/djazairmed/mailer/internal/pkg/uid"
	"github.com/djazairmed/mailer/internal/pkg/validator"
)

const verifyTimeout = 30 * time.Second

type Dependency struct {
	Ctx        context.Context
	Config     config.Config
	Instrument instrument.Instrumentation
	UUID       uid.StringID
	Clock      clock.Clocker
	Goroutine  *goroutine.Manager
	Validator  validator.Validator
	Router     *router.Router
}

// New resolves the mail configuration, builds the adapters and verifies the
// default provider before registering any endpoint. The returned usecase is
// what the endpoints call into.
func New(dep Dependency) (*usecase.Usecase, error) {
	cfg, err := mailconfig.Resolve(dep.Config, dep.Validator)
	if err != nil {
		return nil, err
	}

	var handle relay.Handle
	smtpHandle, err := relay.NewHandle(cfg)
	if err != nil {
		// Tolerated until the relay is actually needed.
		slog.Warn("relay handle unavailable", "error", err)
		handle = relay.Unavailable(err)
	} else {
		handle = smtpHandle
		slog.Info("relay handle ready", "addr", smtpHandle.Addr())
	}

	uc := usecase.NewUsecase(usecase.Dependency{
		Config:     cfg,
		Relay:      relay.New(handle, cfg.Sender, dep.Instrument),
		Exchange:   exchange.New(cfg.Exchange, exchange.NewSession, dep.Instrument),
		Goroutine:  dep.Goroutine,
		Validator:  dep.Validator,
		UUID:       dep.UUID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	ctx := dep.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	if err := uc.VerifyTransport(ctx); err != nil {
		return nil, err
	}

	if dep.Router != nil {
		dep.Router.SetAPIKey(cfg.APIKey)
		inbound.RegisterHTTPEndpoint(dep.Router, uc)
	}

	return uc, nil
}
