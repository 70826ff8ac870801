package inbound

import (
	"context"

	"github.com/djazairmed/mailer/internal/mailer/usecase"
)

type uc interface {
	Submit(ctx context.Context, in usecase.SendMailInput) (*usecase.SubmitOutput, error)
}
