package usecase

import (
	"context"
	"net/http"
	"testing"

	"github.com/djazairmed/mailer/internal/mailer/entity"
	"github.com/djazairmed/mailer/internal/pkg/goerror"
	"github.com/djazairmed/mailer/internal/pkg/goroutine"
	"github.com/djazairmed/mailer/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_Submit(t *testing.T) {
	t.Run("accepts and dispatches in the background", func(t *testing.T) {
		// Arrange
		f := newFixture(t, false, entity.ProviderRelay)
		ctx, cancel := context.WithCancel(context.Background())

		// Act
		out, err := f.uc.Submit(ctx, SendMailInput{To: "a@b.com", Subject: "Hi", Text: "hey"})
		cancel()
		require.NoError(t, f.routines.Wait())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "req-1", out.RequestID)
		assert.Len(t, f.relay.calls(), 1)
	})

	t.Run("reuses the correlation id", func(t *testing.T) {
		f := newFixture(t, false, entity.ProviderRelay)
		ctx := instrument.SetCorrelationID(context.Background(), "cid-42")

		out, err := f.uc.Submit(ctx, SendMailInput{To: "a@b.com", Subject: "Hi", HTML: "<p>x</p>"})
		require.NoError(t, f.routines.Wait())

		require.NoError(t, err)
		assert.Equal(t, "cid-42", out.RequestID)
	})

	t.Run("background failures do not surface", func(t *testing.T) {
		f := newFixture(t, false, entity.ProviderRelay)
		f.relay.sendErr = entity.NewMailError(entity.KindSend, entity.ProviderRelay, "send", assert.AnError)

		_, err := f.uc.Submit(context.Background(), SendMailInput{To: "a@b.com", Subject: "Hi", Text: "x"})

		require.NoError(t, err)
		assert.NoError(t, f.routines.Wait())
	})

	t.Run("invalid input", func(t *testing.T) {
		tests := []struct {
			name  string
			in    SendMailInput
			field string
		}{
			{name: "missing body", in: SendMailInput{To: "a@b.com", Subject: "Hi"}, field: "text"},
			{name: "bad email", in: SendMailInput{To: "nope", Subject: "Hi", Text: "x"}, field: "to"},
			{name: "missing subject", in: SendMailInput{To: "a@b.com", Text: "x"}, field: "subject"},
			{name: "unknown provider", in: SendMailInput{To: "a@b.com", Subject: "Hi", Text: "x", Provider: "pigeon"}, field: "provider"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t, false, entity.ProviderRelay)

				_, err := f.uc.Submit(context.Background(), tt.in)

				var gerr *goerror.Error
				require.ErrorAs(t, err, &gerr)
				assert.Equal(t, http.StatusBadRequest, gerr.StatusCode())
				assert.Contains(t, err.Error(), `"`+tt.field+`"`)
				require.NoError(t, f.routines.Wait())
				assert.Empty(t, f.relay.calls())
			})
		}
	})

	t.Run("refused when the pool is closed", func(t *testing.T) {
		f := newFixture(t, false, entity.ProviderRelay)
		require.NoError(t, f.routines.Wait())

		_, err := f.uc.Submit(context.Background(), SendMailInput{To: "a@b.com", Subject: "Hi", Text: "x"})

		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, http.StatusServiceUnavailable, gerr.StatusCode())
		assert.ErrorIs(t, err, goroutine.ErrClosed)
	})
}
