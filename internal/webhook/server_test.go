package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type recordingHandler struct {
	chatIDs []string
}

func (h *recordingHandler) HandleStart(ctx context.Context, chatID string) error {
	h.chatIDs = append(h.chatIDs, chatID)
	return nil
}

func newTestServer(t *testing.T) (*Server, *recordingHandler) {
	t.Helper()
	handler := &recordingHandler{}
	s, err := New(Config{Handler: handler, Logger: nopLogger{}})
	require.NoError(t, err)
	return s, handler
}

func post(s *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/telegram-webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestStartCommandDispatched(t *testing.T) {
	s, handler := newTestServer(t)

	rec := post(s, `{"message":{"text":"/start","chat":{"id":12345}}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"12345"}, handler.chatIDs)
}

func TestStartCommandWithBotMention(t *testing.T) {
	s, handler := newTestServer(t)

	rec := post(s, `{"message":{"text":"/start@journal_bot","chat":{"id":7}}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"7"}, handler.chatIDs)
}

func TestUnknownTextIsAcknowledgedAndIgnored(t *testing.T) {
	s, handler := newTestServer(t)

	rec := post(s, `{"message":{"text":"hello","chat":{"id":7}}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, handler.chatIDs)
}

func TestMalformedUpdateIsAcknowledged(t *testing.T) {
	s, handler := newTestServer(t)

	rec := post(s, `{not json`)

	// Telegram retries non-2xx responses, so garbage still gets a 200.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, handler.chatIDs)
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
