package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskHandler(t *testing.T) {
	// Arrange
	buf := &bytes.Buffer{}
	h := &contextHandler{
		Handler: &maskHandler{
			handler:  slog.NewJSONHandler(buf, nil),
			maskKeys: BuildMaskKeys([]string{" Password ", "x-api-key", ""}),
		},
		serviceName: "mailer",
	}
	logger := slog.New(h)
	ctx := SetCorrelationID(context.Background(), "cid-1")

	// Act
	logger.InfoContext(ctx, "config loaded",
		"password", "secret",
		"headers", map[string]string{"X-Api-Key": "k", "Accept": "json"},
		"body", `{"to":"a@b.com","password":"p"}`,
	)

	// Assert
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "***", got["password"])
	assert.Equal(t, map[string]any{"X-Api-Key": "***", "Accept": "json"}, got["headers"])
	assert.JSONEq(t, `{"to":"a@b.com","password":"***"}`, got["body"].(string))
	assert.Equal(t, "cid-1", got["_cID"])
	assert.Equal(t, "mailer", got["service"])
}

func TestMaskHandler_WithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(&maskHandler{
		handler:  slog.NewJSONHandler(buf, nil),
		maskKeys: BuildMaskKeys([]string{"pass"}),
	}).With("pass", "hunter2")

	logger.Info("hello")

	assert.Contains(t, buf.String(), `"pass":"***"`)
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestGetCorrelationID(t *testing.T) {
	assert.Empty(t, GetCorrelationID(context.Background()))
	assert.Equal(t, "abc", GetCorrelationID(SetCorrelationID(context.Background(), "abc")))
}
