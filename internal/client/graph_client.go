package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrSendFailed wraps every failure mode of the outbound send call:
// transport errors, non-2xx responses and malformed response bodies.
var ErrSendFailed = errors.New("send failed")

// GraphClient sends text messages through the WhatsApp Business Cloud API.
type GraphClient struct {
	url    string
	token  string
	client *http.Client
}

func NewGraphClient(baseURL, apiVersion, phoneNumberID, token string) *GraphClient {
	return &GraphClient{
		url:   fmt.Sprintf("%s/%s/%s/messages", baseURL, apiVersion, phoneNumberID),
		token: token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type textPayload struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type sendRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	RecipientType    string      `json:"recipient_type"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText posts a text message and returns the platform-assigned message id.
func (c *GraphClient) SendText(ctx context.Context, to, body string) (string, error) {
	reqBody, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textPayload{PreviewURL: false, Body: body},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: unexpected status code: %d body=%q", ErrSendFailed, resp.StatusCode, string(respBody))
	}

	var sr sendResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return "", fmt.Errorf("%w: failed to decode json: %v body=%q", ErrSendFailed, err, string(respBody))
	}
	if len(sr.Messages) == 0 || sr.Messages[0].ID == "" {
		return "", fmt.Errorf("%w: missing message id in response body=%q", ErrSendFailed, string(respBody))
	}

	return sr.Messages[0].ID, nil
}
