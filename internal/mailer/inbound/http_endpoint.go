package inbound

import (
	"strings"

	"github.com/djazairmed/mailer/internal/mailer/entity"
	"github.com/djazairmed/mailer/internal/mailer/usecase"
	"github.com/djazairmed/mailer/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// Health reports process liveness only; mail providers are not probed.
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (h *HTTPEndpoint) Health(*router.Request) (any, error) {
	return HealthResponse{Status: "ok"}, nil
}

// SendEmail accepts one message and dispatches it in the background.
// @Summary Send email
// @Description Validates the message and schedules delivery through the requested or default provider.
// @Tags Mail
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body SendEmailRequest true "Message payload"
// @Success 202 {object} SendEmailResponse
// @Failure 400 {object} router.errorResponse "Invalid request body or validation error"
// @Failure 401 {object} router.errorResponse "Invalid or missing API key"
// @Failure 503 {object} router.errorResponse "Dispatch pool is busy"
// @Router /send-email [post]
func (h *HTTPEndpoint) SendEmail(r *router.Request) (any, error) {
	var req SendEmailRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	// Unknown names are kept verbatim so validation reports them.
	provider := entity.Provider(strings.TrimSpace(req.Provider))
	if p, ok := entity.ProviderFromString(req.Provider); ok {
		provider = p
	}

	out, err := h.uc.Submit(r.Context(), usecase.SendMailInput{
		To:       strings.TrimSpace(req.To),
		Subject:  req.Subject,
		Text:     req.Text,
		HTML:     req.HTML,
		Provider: provider,
	})
	if err != nil {
		return nil, err
	}

	return SendEmailResponse{
		Message:   "Email accepted for delivery",
		RequestID: out.RequestID,
	}, nil
}
