package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoTradeJournal/internal/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{BaseURL: server.URL, BotToken: "test-token", Logger: nopLogger{}})
	require.NoError(t, err)
	return client, server
}

func TestSendMessageReturnsMessageID(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": map[string]interface{}{"message_id": 4242},
		})
	})

	id, err := client.SendMessage(context.Background(), "12345", "hello", true)
	require.NoError(t, err)
	assert.Equal(t, int64(4242), id)
	assert.Equal(t, "/bottest-token/sendMessage", gotPath)
	assert.Equal(t, "12345", gotBody.ChatID)
	assert.Equal(t, "Markdown", gotBody.ParseMode)
}

func TestSendMessageAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"description": "bot was blocked by the user",
		})
	})

	_, err := client.SendMessage(context.Background(), "12345", "hello", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrSendFailed)
}

func TestEditMessage(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": map[string]interface{}{"message_id": 99},
		})
	})

	err := client.EditMessage(context.Background(), "12345", 99, "updated", true)
	require.NoError(t, err)
	assert.Equal(t, "/bottest-token/editMessageText", gotPath)
	assert.Equal(t, int64(99), gotBody.MessageID)
}

func TestEditMessageRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"description": "message to edit not found",
		})
	})

	err := client.EditMessage(context.Background(), "12345", 1, "updated", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrEditFailed)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{BotToken: "", Logger: nopLogger{}})
	assert.Error(t, err)

	_, err = New(Config{BotToken: "x", Logger: nil})
	assert.Error(t, err)
}
