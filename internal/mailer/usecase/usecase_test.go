package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/djazairmed/mailer/internal/mailer/entity"
	"github.com/djazairmed/mailer/internal/mailer/mailconfig"
	"github.com/djazairmed/mailer/internal/mailer/outbound/exchange"
	"github.com/djazairmed/mailer/internal/pkg/clock"
	"github.com/djazairmed/mailer/internal/pkg/goroutine"
	"github.com/djazairmed/mailer/internal/pkg/instrument"
	"github.com/djazairmed/mailer/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

type fakeRelay struct {
	mu        sync.Mutex
	verifyErr error
	sendErr   error
	sent      []entity.SendRequest
}

func (f *fakeRelay) Verify(context.Context) error {
	return f.verifyErr
}

func (f *fakeRelay) Send(_ context.Context, req entity.SendRequest) (*entity.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, req)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &entity.Receipt{Provider: entity.ProviderRelay, MessageID: "<1@example.com>", Accepted: []string{req.To}}, nil
}

func (f *fakeRelay) calls() []entity.SendRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.SendRequest(nil), f.sent...)
}

type fakeExchange struct {
	sendErr error
	sent    []exchange.Payload
}

func (f *fakeExchange) Send(_ context.Context, p exchange.Payload) (*entity.Receipt, error) {
	f.sent = append(f.sent, p)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &entity.Receipt{Provider: entity.ProviderExchange}, nil
}

type staticID string

func (s staticID) Generate() string {
	return string(s)
}

type fixture struct {
	uc       *Usecase
	cfg      *mailconfig.MailConfig
	relay    *fakeRelay
	exchange *fakeExchange
	routines *goroutine.Manager
}

func newFixture(t *testing.T, withExchange bool, def entity.Provider) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	cfg := &mailconfig.MailConfig{
		Sender:          entity.Sender{Name: "Clinique", Address: "noreply@example.com"},
		Transport:       &mailconfig.HostTransport{Host: "relay.example.com", Port: 587, RequireTLS: true},
		DefaultProvider: def,
	}
	if withExchange {
		cfg.Exchange = &mailconfig.ExchangeConfig{
			URL:       "https://mail.corp.example/EWS/Exchange.asmx",
			Username:  "svc",
			Password:  "pw",
			FromEmail: "noreply@corp.example",
		}
	}

	f := &fixture{
		cfg:      cfg,
		relay:    &fakeRelay{},
		exchange: &fakeExchange{},
		routines: goroutine.NewManager(2),
	}
	f.uc = NewUsecase(Dependency{
		Config:     cfg,
		Relay:      f.relay,
		Exchange:   f.exchange,
		Goroutine:  f.routines,
		Validator:  v,
		UUID:       staticID("req-1"),
		Clock:      clock.Fixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		Instrument: instrument.NewNoop(),
	})

	return f
}
