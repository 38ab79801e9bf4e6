package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResendSend(t *testing.T) {
	var got resendPayload
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := NewResendTransport("secret-key", "noreply@example.com",
		SetResendEndpoint(server.URL),
		SetResendReplyTo("support@example.com"),
	)

	err := transport.Send(context.Background(), Message{
		To:      "ann@example.com",
		Subject: "Hello",
		HTML:    "<p>Hi</p>",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "noreply@example.com", got.From)
	assert.Equal(t, "ann@example.com", got.To)
	assert.Equal(t, "Hello", got.Subject)
	assert.Equal(t, "<p>Hi</p>", got.HTML)
	assert.Equal(t, "support@example.com", got.ReplyTo)
}

func TestResendSendMessageOverridesDefaults(t *testing.T) {
	var got resendPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := NewResendTransport("secret-key", "noreply@example.com", SetResendEndpoint(server.URL))

	err := transport.Send(context.Background(), Message{
		To:      "ann@example.com",
		Subject: "Hello",
		HTML:    "<p>Hi</p>",
		From:    "welcome@example.com",
		ReplyTo: "admissions@example.com",
	})

	assert.NoError(t, err)
	assert.Equal(t, "welcome@example.com", got.From)
	assert.Equal(t, "admissions@example.com", got.ReplyTo)
}

func TestResendSendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(resendError{Message: "invalid to address"})
	}))
	defer server.Close()

	transport := NewResendTransport("secret-key", "noreply@example.com", SetResendEndpoint(server.URL))

	err := transport.Send(context.Background(), Message{To: "nope", Subject: "x", HTML: "y"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid to address")
}

func TestResendSendMissingKey(t *testing.T) {
	transport := NewResendTransport("", "noreply@example.com")
	err := transport.Send(context.Background(), Message{To: "a@example.com"})
	assert.Error(t, err)
}
