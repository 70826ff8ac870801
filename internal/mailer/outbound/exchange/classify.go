package exchange

import (
	"strings"

	"github.com/djazairmed/mailer/internal/mailer/entity"
)

type classification struct {
	reason   entity.Reason
	patterns []string
}

// classifications is checked in order; the first matching row wins.
var classifications = []classification{
	{
		reason:   entity.ReasonAuth,
		patterns: []string{"401", "unauthorized", "authentication", "credential", "login"},
	},
	{
		reason:   entity.ReasonTimeout,
		patterns: []string{"timeout", "timed out", "etimedout", "deadline exceeded"},
	},
	{
		reason:   entity.ReasonUnreachable,
		patterns: []string{"econnrefused", "connection refused", "enotfound", "no such host", "unreachable"},
	},
}

// Classify maps a failed send to a MailError by looking at the error text.
// Matches become connection errors with a reason; anything else is a send error.
func Classify(err error) *entity.MailError {
	msg := strings.ToLower(err.Error())

	for _, c := range classifications {
		for _, p := range c.patterns {
			if strings.Contains(msg, p) {
				return &entity.MailError{
					Kind:     entity.KindConnection,
					Reason:   c.reason,
					Provider: entity.ProviderExchange,
					Op:       "send",
					Err:      err,
				}
			}
		}
	}

	return entity.NewMailError(entity.KindSend, entity.ProviderExchange, "send", err)
}
