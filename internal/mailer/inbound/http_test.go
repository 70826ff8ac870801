package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/djazairmed/mailer/internal/mailer/entity"
	"github.com/djazairmed/mailer/internal/mailer/usecase"
	"github.com/djazairmed/mailer/internal/pkg/goerror"
	"github.com/djazairmed/mailer/internal/pkg/goroutine"
	"github.com/djazairmed/mailer/internal/pkg/instrument"
	"github.com/djazairmed/mailer/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	got []usecase.SendMailInput
	err error
}

func (f *fakeUC) Submit(_ context.Context, in usecase.SendMailInput) (*usecase.SubmitOutput, error) {
	f.got = append(f.got, in)
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.SubmitOutput{RequestID: "req-42"}, nil
}

func newServer(uc uc) http.Handler {
	r := router.NewRouter(router.Config{
		Instrument:      instrument.NewNoop(),
		APIKey:          "secret",
		PublicEndpoints: PublicEndpoints,
	})
	RegisterHTTPEndpoint(r, uc)
	return r
}

func do(h http.Handler, method, path, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHTTPEndpoint_Health(t *testing.T) {
	rec := do(newServer(&fakeUC{}), http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHTTPEndpoint_SendEmail(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		// Arrange
		f := &fakeUC{}
		h := newServer(f)

		// Act
		rec := do(h, http.MethodPost, "/send-email",
			`{"to":" a@b.com ","subject":"Hi","text":"hey","provider":"Exchange"}`, "secret")

		// Assert
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.JSONEq(t, `{"message":"Email accepted for delivery","requestId":"req-42"}`, rec.Body.String())
		require.Len(t, f.got, 1)
		assert.Equal(t, usecase.SendMailInput{
			To:       "a@b.com",
			Subject:  "Hi",
			Text:     "hey",
			Provider: entity.ProviderExchange,
		}, f.got[0])
	})

	t.Run("extra keys are ignored", func(t *testing.T) {
		f := &fakeUC{}

		rec := do(newServer(f), http.MethodPost, "/send-email",
			`{"to":"a@b.com","subject":"Hi","text":"x","cc":"c@d.com","priority":1}`, "secret")

		assert.Equal(t, http.StatusAccepted, rec.Code)
		require.Len(t, f.got, 1)
		assert.Equal(t, usecase.SendMailInput{To: "a@b.com", Subject: "Hi", Text: "x"}, f.got[0])
	})

	t.Run("unknown provider is passed through for validation", func(t *testing.T) {
		f := &fakeUC{}

		do(newServer(f), http.MethodPost, "/send-email", `{"to":"a@b.com","subject":"Hi","text":"x","provider":"pigeon"}`, "secret")

		require.Len(t, f.got, 1)
		assert.Equal(t, entity.Provider("pigeon"), f.got[0].Provider)
	})

	t.Run("missing api key", func(t *testing.T) {
		f := &fakeUC{}

		rec := do(newServer(f), http.MethodPost, "/send-email", `{"to":"a@b.com","subject":"Hi","text":"x"}`, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, f.got)
	})

	t.Run("malformed body never reaches the usecase", func(t *testing.T) {
		f := &fakeUC{}

		rec := do(newServer(f), http.MethodPost, "/send-email", `{"to":`, "secret")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, f.got)
	})

	t.Run("validation error", func(t *testing.T) {
		f := &fakeUC{err: goerror.NewInvalidInput(nil, "text", "text is required when html is absent")}

		rec := do(newServer(f), http.MethodPost, "/send-email", `{"to":"a@b.com","subject":"Hi"}`, "secret")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Validation error", body["message"])
		assert.Contains(t, body["error"], "text")
	})

	t.Run("pool closed", func(t *testing.T) {
		f := &fakeUC{err: goerror.NewUnavailable(goroutine.ErrClosed, "Mail dispatch is busy, try again later")}

		rec := do(newServer(f), http.MethodPost, "/send-email", `{"to":"a@b.com","subject":"Hi","text":"x"}`, "secret")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
