package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/djazairmed/mailer/internal/pkg/config"
	"github.com/djazairmed/mailer/internal/pkg/goerror"
	"github.com/djazairmed/mailer/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type accepted struct {
	Message string `json:"message"`
}

func (accepted) StatusCode() int { return http.StatusAccepted }

func newTestRouter(t *testing.T, yaml string, maxBody int64) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	r := NewRouter(Config{
		Config:          cfg,
		UUID:            fixedID("generated-id"),
		Instrument:      instrument.NewNoop(),
		APIKey:          "secret",
		PublicEndpoints: map[string][]string{http.MethodGet: {"/healthz"}},
		MaxBodyBytes:    maxBody,
	})

	r.GET("/healthz", func(*Request) (any, error) {
		return map[string]string{"status": "ok"}, nil
	})
	r.POST("/echo", func(req *Request) (any, error) {
		var in struct {
			Name string `json:"name"`
		}
		if err := req.DecodeBody(&in); err != nil {
			return nil, err
		}
		return accepted{Message: in.Name}, nil
	})
	r.POST("/boom", func(*Request) (any, error) {
		panic("boom")
	})
	r.POST("/fail", func(*Request) (any, error) {
		return nil, errors.New("raw failure")
	})
	r.POST("/invalid", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(nil, "to", "to must be a valid email address")
	})

	return r
}

func serve(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_APIKey(t *testing.T) {
	r := newTestRouter(t, "app: {}", 0)

	tests := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
		want    int
	}{
		{name: "public route skips the key", method: http.MethodGet, path: "/healthz", want: http.StatusOK},
		{name: "missing key", method: http.MethodPost, path: "/echo", want: http.StatusUnauthorized},
		{name: "wrong key", method: http.MethodPost, path: "/echo", headers: map[string]string{"x-api-key": "nope"}, want: http.StatusUnauthorized},
		{name: "valid key", method: http.MethodPost, path: "/echo", headers: map[string]string{"x-api-key": "secret"}, want: http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(r, tt.method, tt.path, `{"name":"x"}`, tt.headers)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, map[string]any{"message": "Invalid or missing API key"}, decode(t, rec))
			}
		})
	}
}

func TestRouter_EmptyAPIKeyRejectsAll(t *testing.T) {
	r := NewRouter(Config{Instrument: instrument.NewNoop()})
	r.POST("/echo", func(*Request) (any, error) { return nil, nil })

	rec := serve(r, http.MethodPost, "/echo", "{}", map[string]string{"x-api-key": ""})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_SetAPIKey(t *testing.T) {
	r := newTestRouter(t, "app: {}", 0)

	r.SetAPIKey("rotated")

	rec := serve(r, http.MethodPost, "/echo", `{"name":"x"}`, map[string]string{"x-api-key": "secret"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(r, http.MethodPost, "/echo", `{"name":"x"}`, map[string]string{"x-api-key": "rotated"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRouter_Encoding(t *testing.T) {
	r := newTestRouter(t, "app: {}", 0)
	auth := map[string]string{"x-api-key": "secret"}

	t.Run("payload is written flat with its own status", func(t *testing.T) {
		rec := serve(r, http.MethodPost, "/echo", `{"name":"hello"}`, auth)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, map[string]any{"message": "hello"}, decode(t, rec))
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := serve(r, http.MethodPost, "/echo", `{"name":`, auth)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request body", decode(t, rec)["message"])
	})

	t.Run("unknown field is ignored", func(t *testing.T) {
		rec := serve(r, http.MethodPost, "/echo", `{"name":"a","extra":1}`, auth)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, map[string]any{"message": "a"}, decode(t, rec))
	})

	t.Run("trailing data", func(t *testing.T) {
		rec := serve(r, http.MethodPost, "/echo", `{"name":"a"}{}`, auth)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation fields", func(t *testing.T) {
		rec := serve(r, http.MethodPost, "/invalid", `{}`, auth)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, map[string]any{
			"message": "Validation error",
			"error":   map[string]any{"to": "to must be a valid email address"},
		}, decode(t, rec))
	})

	t.Run("unknown error hides details", func(t *testing.T) {
		rec := serve(r, http.MethodPost, "/fail", `{}`, auth)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, map[string]any{"message": "Internal server error"}, decode(t, rec))
	})

	t.Run("panic is recovered", func(t *testing.T) {
		rec := serve(r, http.MethodPost, "/boom", `{}`, auth)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", decode(t, rec)["message"])
	})

	t.Run("not found", func(t *testing.T) {
		rec := serve(r, http.MethodGet, "/nope", "", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "endpoint not found", decode(t, rec)["message"])
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := serve(r, http.MethodGet, "/echo", "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestRouter_BodyLimit(t *testing.T) {
	r := newTestRouter(t, "app: {}", 16)

	rec := serve(r, http.MethodPost, "/echo", `{"name":"`+strings.Repeat("a", 64)+`"}`,
		map[string]string{"x-api-key": "secret"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body too large", decode(t, rec)["message"])
}

func TestRouter_Maintenance(t *testing.T) {
	r := newTestRouter(t, "app: {maintenance: {endpoints: 'POST /echo'}}", 0)

	rec := serve(r, http.MethodPost, "/echo", `{"name":"x"}`, map[string]string{"x-api-key": "secret"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CorrelationID(t *testing.T) {
	r := newTestRouter(t, "app: {}", 0)

	t.Run("generated when absent", func(t *testing.T) {
		rec := serve(r, http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, "generated-id", rec.Header().Get(HeaderCorrelationID))
	})

	t.Run("propagated from the caller", func(t *testing.T) {
		rec := serve(r, http.MethodGet, "/healthz", "", map[string]string{HeaderRequestID: " abc-123 "})
		assert.Equal(t, "abc-123", rec.Header().Get(HeaderCorrelationID))
	})

	t.Run("header injection is ignored", func(t *testing.T) {
		assert.Empty(t, normalizeCID("a\r\nb"))
		assert.Len(t, normalizeCID(strings.Repeat("x", 300)), maxCorrelationIDLen)
	})
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded for takes the first hop", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, remote: "1.1.1.1:80", want: "10.0.0.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "10.0.0.3"}, remote: "1.1.1.1:80", want: "10.0.0.3"},
		{name: "garbage falls back to remote", headers: map[string]string{"X-Real-IP": "nope"}, remote: "1.1.1.1:80", want: "1.1.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, realIP(req))
		})
	}
}
