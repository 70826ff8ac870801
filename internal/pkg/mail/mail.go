package mail

import (
	"context"
	"io"
)

// Message represents an email payload.
type Message struct {
	// From is the header value, either "Name <address>" or a bare address.
	// The envelope sender is derived from it.
	From string
	// To lists required recipients.
	To []string
	// Subject is the email subject line.
	Subject string
	// TextBody is the plain-text body.
	TextBody string
	// HTMLBody is the optional HTML body.
	HTMLBody string
}

// Envelope is the SMTP envelope actually used for a delivery.
type Envelope struct {
	From string
	To   []string
}

// Receipt describes what the relay accepted.
type Receipt struct {
	MessageID string
	Envelope  Envelope
	Accepted  []string
	Rejected  []string
}

// Mail abstracts a relay-style provider.
type Mail interface {
	io.Closer
	// Verify opens a session, authenticates and closes it again.
	Verify(ctx context.Context) error
	// Send dispatches the given message using the underlying provider.
	Send(ctx context.Context, msg Message) (*Receipt, error)
}
