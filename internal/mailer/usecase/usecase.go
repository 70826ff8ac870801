package usecase

import (
	"context"
	"log/slog"

	"github.com/djazairmed/mailer/internal/mailer/entity"
	"github.com/djazairmed/mailer/internal/mailer/mailconfig"
	"github.com/djazairmed/mailer/internal/mailer/outbound/exchange"
	"github.com/djazairmed/mailer/internal/pkg/clock"
	"github.com/djazairmed/mailer/internal/pkg/goroutine"
	"github.com/djazairmed/mailer/internal/pkg/instrument"
	"github.com/djazairmed/mailer/internal/pkg/uid"
	"github.com/djazairmed/mailer/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type relayAdapter interface {
	Verify(ctx context.Context) error
	Send(ctx context.Context, req entity.SendRequest) (*entity.Receipt, error)
}

type exchangeAdapter interface {
	Send(ctx context.Context, p exchange.Payload) (*entity.Receipt, error)
}

// Usecase dispatches mail to the relay or exchange adapter. It holds no
// mutable state and is safe for concurrent use.
type Usecase struct {
	cfg       *mailconfig.MailConfig
	relay     relayAdapter
	exchange  exchangeAdapter
	goroutine *goroutine.Manager
	validator validator.Validator
	uuid      uid.StringID
	clock     clock.Clocker
	ins       instrument.Instrumentation

	dispatchCounter   metric.Int64Counter
	dispatchHistogram metric.Float64Histogram
}

type Dependency struct {
	Config     *mailconfig.MailConfig
	Relay      relayAdapter
	Exchange   exchangeAdapter
	Goroutine  *goroutine.Manager
	Validator  validator.Validator
	UUID       uid.StringID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func NewUsecase(dep Dependency) *Usecase {
	meter := dep.Instrument.Meter("mailer.usecase")

	counter, err := meter.Int64Counter("mail.dispatch.total", metric.WithDescription("Number of mail dispatch attempts by provider and outcome"))
	if err != nil {
		slog.Error("failed to create mail dispatch counter", "error", err)
	}

	histogram, err := meter.Float64Histogram("mail.dispatch.duration", metric.WithDescription("Mail dispatch duration in milliseconds"), metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create mail dispatch histogram", "error", err)
	}

	return &Usecase{
		cfg:               dep.Config,
		relay:             dep.Relay,
		exchange:          dep.Exchange,
		goroutine:         dep.Goroutine,
		validator:         dep.Validator,
		uuid:              dep.UUID,
		clock:             dep.Clock,
		ins:               dep.Instrument,
		dispatchCounter:   counter,
		dispatchHistogram: histogram,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("mailer.usecase").Start(ctx, name)
}
