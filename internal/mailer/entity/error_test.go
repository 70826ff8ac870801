package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMailError_Error(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	tests := []struct {
		name string
		err  *MailError
		want string
	}{
		{
			name: "full",
			err:  &MailError{Kind: KindConnection, Reason: ReasonUnreachable, Provider: ProviderExchange, Op: "send", Err: cause},
			want: "exchange: send: connection (unreachable) error: dial tcp: connection refused",
		},
		{
			name: "no provider",
			err:  NewMailError(KindConfiguration, ProviderNone, "resolve", ErrContentMissing),
			want: "resolve: configuration error: either text or html content is required",
		},
		{
			name: "bare",
			err:  &MailError{Kind: KindSend},
			want: "send error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")
	wrapped := &DispatchError{
		Provider: ProviderRelay,
		Err:      fmt.Errorf("outer: %w", NewMailError(KindValidation, ProviderRelay, "send", cause)),
	}

	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindValidation, kind)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "failed to send email via relay: outer: relay: send: validation error: boom", wrapped.Error())

	_, ok = KindOf(cause)
	assert.False(t, ok)
}

func TestProviderFromString(t *testing.T) {
	tests := []struct {
		in   string
		want Provider
		ok   bool
	}{
		{"", ProviderNone, true},
		{" Relay ", ProviderRelay, true},
		{"EXCHANGE", ProviderExchange, true},
		{"pigeon", ProviderNone, false},
	}

	for _, tt := range tests {
		got, ok := ProviderFromString(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}

	assert.Equal(t, "none", ProviderNone.String())
	assert.False(t, ProviderNone.IsSet())
	assert.True(t, ProviderExchange.IsSet())
}

func TestSendRequest_HasContent(t *testing.T) {
	assert.False(t, SendRequest{To: "a@b.com"}.HasContent())
	assert.True(t, SendRequest{Text: "x"}.HasContent())
	assert.True(t, SendRequest{HTML: "<p>x</p>"}.HasContent())
}
