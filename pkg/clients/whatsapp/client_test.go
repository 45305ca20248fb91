package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmtrack/nightcheck/internal/config"
)

func newTestClient(url string) *APIClient {
	return NewClient(config.WhatsAppConfig{
		AccessToken:   "token-123",
		PhoneNumberID: "555",
		BaseURL:       url + "/",
		APIVersion:    "v20.0",
	})
}

func TestSendTextMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/555/messages", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).SendTextMessage(context.Background(), SendTextMessageRequest{To: "224600000000", Body: "hello"})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "wamid.1", resp.Messages[0].ID)

	assert.Equal(t, "224600000000", got["to"])
	assert.Equal(t, "hello", got["text"].(map[string]any)["body"])
}

func TestSendTextMessageTruncatesLongBody(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text struct {
				Body string `json:"body"`
			} `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		body = payload.Text.Body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: strings.Repeat("x", 5000)})
	require.NoError(t, err)
	assert.Len(t, body, maxBodyLength)
	assert.True(t, strings.HasSuffix(body, "..."))
}

func TestSendTextMessageAPIError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException","code":100}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "x"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, 100, apiErr.Err.Code)
	assert.Equal(t, int32(1), calls.Load(), "4xx responses are not retried")
}

func TestSendTextMessageRequiresRecipient(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1").SendTextMessage(context.Background(), SendTextMessageRequest{Body: "x"})
	assert.Error(t, err)
}
