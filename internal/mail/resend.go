package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

const resendAPI = "https://api.resend.com/emails"

type ResendOption func(t *resendTransport)

func SetResendEndpoint(url string) ResendOption {
	return func(t *resendTransport) {
		t.endpoint = url
	}
}

func SetResendReplyTo(replyTo string) ResendOption {
	return func(t *resendTransport) {
		t.replyTo = replyTo
	}
}

type resendTransport struct {
	client *retryablehttp.Client

	endpoint string
	apiKey   string
	from     string
	replyTo  string
}

// NewResendTransport sends through the Resend HTTP API.
func NewResendTransport(apiKey, from string, options ...ResendOption) Transport {
	client := retryablehttp.NewClient()
	client.Logger = nil

	t := &resendTransport{
		client:   client,
		endpoint: resendAPI,
		apiKey:   apiKey,
		from:     from,
	}

	for _, option := range options {
		option(t)
	}

	return t
}

type resendPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	ReplyTo string `json:"reply_to,omitempty"`
}

type resendError struct {
	Message string `json:"message"`
}

func (t *resendTransport) Send(ctx context.Context, msg Message) error {
	if t.apiKey == "" {
		return errors.New("resend api key is not configured")
	}

	payload := resendPayload{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	}
	if payload.From == "" {
		payload.From = t.from
	}
	if payload.ReplyTo == "" {
		payload.ReplyTo = t.replyTo
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequest(http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req = req.WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	var apiErr resendError
	raw, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
		return errors.Errorf("resend returned %d: %s", resp.StatusCode, apiErr.Message)
	}
	return errors.Errorf("unexpected response code %d received from resend", resp.StatusCode)
}
