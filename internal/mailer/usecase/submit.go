package usecase

import (
	"context"
	"log/slog"

	"github.com/djazairmed/mailer/internal/pkg/goerror"
	"github.com/djazairmed/mailer/internal/pkg/instrument"
)

type SubmitOutput struct {
	RequestID string
}

// Submit validates in and schedules SendMail in the background.
//
// A nil error means the message was accepted for processing, not that it was
// delivered. Delivery failures are only visible in logs and metrics.
func (s *Usecase) Submit(ctx context.Context, in SendMailInput) (*SubmitOutput, error) {
	ctx, span := s.startSpan(ctx, "Submit")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	requestID := instrument.GetCorrelationID(ctx)
	if requestID == "" {
		requestID = s.uuid.Generate()
		ctx = instrument.SetCorrelationID(ctx, requestID)
	}

	// The HTTP request context is canceled once the response is written.
	bg := context.WithoutCancel(ctx)
	err := s.goroutine.Go(bg, func(ctx context.Context) error {
		// Failures are already logged by SendMail.
		_, _ = s.SendMail(ctx, in)
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to schedule email dispatch", "request_id", requestID, "error", err)
		return nil, goerror.NewUnavailable(err, "Mail dispatch is busy, try again later")
	}

	return &SubmitOutput{RequestID: requestID}, nil
}
