package inbound

import "github.com/djazairmed/mailer/internal/pkg/router"

// Public endpoints skip the API key middleware.
var PublicEndpoints = map[string][]string{
	"GET": {"/healthz"},
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/healthz", end.Health)
	r.POST("/send-email", end.SendEmail)
}
