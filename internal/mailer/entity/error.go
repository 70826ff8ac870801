package entity

import (
	"errors"
	"strings"
)

var (
	// ErrContentMissing is returned when neither a text nor an HTML body is given.
	ErrContentMissing = errors.New("either text or html content is required")
	// ErrExchangeNotConfigured is returned when exchange is selected without settings.
	ErrExchangeNotConfigured = errors.New("exchange is not configured")
)

// Kind groups mail failures by where they happened.
type Kind int

const (
	KindSend Kind = iota
	KindConfiguration
	KindConnection
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindConnection:
		return "connection"
	case KindValidation:
		return "validation"
	default:
		return "send"
	}
}

// Reason refines KindConnection.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonAuth
	ReasonTimeout
	ReasonUnreachable
)

func (r Reason) String() string {
	switch r {
	case ReasonAuth:
		return "auth"
	case ReasonTimeout:
		return "timeout"
	case ReasonUnreachable:
		return "unreachable"
	default:
		return ""
	}
}

// MailError is the single error shape produced by config resolution and the
// provider adapters. Err keeps the backend cause.
type MailError struct {
	Kind     Kind
	Reason   Reason
	Provider Provider
	Op       string
	Err      error
}

// NewMailError builds a MailError without a connection reason.
func NewMailError(kind Kind, provider Provider, op string, err error) *MailError {
	return &MailError{Kind: kind, Provider: provider, Op: op, Err: err}
}

func (e *MailError) Error() string {
	var b strings.Builder
	if e.Provider.IsSet() {
		b.WriteString(string(e.Provider))
		b.WriteString(": ")
	}
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Reason != ReasonNone {
		b.WriteString(" (" + e.Reason.String() + ")")
	}
	b.WriteString(" error")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MailError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first MailError in err's chain and whether
// one was found.
func KindOf(err error) (Kind, bool) {
	var me *MailError
	if errors.As(err, &me) {
		return me.Kind, true
	}
	return KindSend, false
}

// DispatchError is the only error returned by the dispatch use case.
type DispatchError struct {
	Provider Provider
	Err      error
}

func (e *DispatchError) Error() string {
	return "failed to send email via " + e.Provider.String() + ": " + e.Err.Error()
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
