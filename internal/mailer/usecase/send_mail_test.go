package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/djazairmed/mailer/internal/mailer/entity"
	"github.com/djazairmed/mailer/internal/mailer/outbound/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_SendMail(t *testing.T) {
	t.Run("content missing fails before any adapter", func(t *testing.T) {
		// Arrange
		f := newFixture(t, true, entity.ProviderRelay)

		for _, p := range []entity.Provider{entity.ProviderNone, entity.ProviderRelay, entity.ProviderExchange} {
			// Act
			_, err := f.uc.SendMail(context.Background(), SendMailInput{To: "a@b.com", Subject: "Hi", Provider: p})

			// Assert
			var de *entity.DispatchError
			require.ErrorAs(t, err, &de)
			assert.ErrorIs(t, err, entity.ErrContentMissing)
			kind, _ := entity.KindOf(err)
			assert.Equal(t, entity.KindValidation, kind)
		}
		assert.Empty(t, f.relay.calls())
		assert.Empty(t, f.exchange.sent)
	})

	t.Run("default relay passes the request through", func(t *testing.T) {
		f := newFixture(t, false, entity.ProviderRelay)

		receipt, err := f.uc.SendMail(context.Background(), SendMailInput{To: "a@b.com", Subject: "Hi", Text: "hey"})

		require.NoError(t, err)
		assert.Equal(t, entity.ProviderRelay, receipt.Provider)
		assert.NotEmpty(t, receipt.MessageID)
		assert.Equal(t, []entity.SendRequest{{To: "a@b.com", Subject: "Hi", Text: "hey"}}, f.relay.calls())
	})

	t.Run("exchange gets a prefixed subject and the sender name", func(t *testing.T) {
		f := newFixture(t, true, entity.ProviderExchange)

		receipt, err := f.uc.SendMail(context.Background(), SendMailInput{To: "a@b.com", Subject: "Hi", HTML: "<p>x</p>"})

		require.NoError(t, err)
		assert.Equal(t, entity.ProviderExchange, receipt.Provider)
		assert.Equal(t, []exchange.Payload{{
			To:       "a@b.com",
			Subject:  "[Djazairmed] Hi",
			HTML:     "<p>x</p>",
			FromName: "Clinique",
		}}, f.exchange.sent)
		assert.Empty(t, f.relay.calls())
	})

	t.Run("requested provider overrides the default", func(t *testing.T) {
		f := newFixture(t, true, entity.ProviderExchange)

		_, err := f.uc.SendMail(context.Background(), SendMailInput{To: "a@b.com", Subject: "Hi", Text: "x", Provider: entity.ProviderRelay})

		require.NoError(t, err)
		assert.Len(t, f.relay.calls(), 1)
		assert.Empty(t, f.exchange.sent)
	})

	t.Run("exchange without settings never reaches an adapter", func(t *testing.T) {
		f := newFixture(t, false, entity.ProviderRelay)

		_, err := f.uc.SendMail(context.Background(), SendMailInput{To: "a@b.com", Subject: "Hi", Text: "x", Provider: entity.ProviderExchange})

		var de *entity.DispatchError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, entity.ProviderExchange, de.Provider)
		kind, _ := entity.KindOf(err)
		assert.Equal(t, entity.KindConfiguration, kind)
		assert.ErrorIs(t, err, entity.ErrExchangeNotConfigured)
		assert.Empty(t, f.relay.calls())
		assert.Empty(t, f.exchange.sent)
	})

	t.Run("adapter failure is wrapped once with the cause kept", func(t *testing.T) {
		f := newFixture(t, false, entity.ProviderRelay)
		cause := errors.New("554 rejected")
		f.relay.sendErr = entity.NewMailError(entity.KindSend, entity.ProviderRelay, "send", cause)

		_, err := f.uc.SendMail(context.Background(), SendMailInput{To: "a@b.com", Subject: "Hi", Text: "x"})

		var de *entity.DispatchError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, entity.ProviderRelay, de.Provider)
		var me *entity.MailError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, entity.KindSend, me.Kind)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "failed to send email via relay")
	})
}
