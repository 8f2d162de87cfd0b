package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGraphClient_SendText_Success(t *testing.T) {
	t.Parallel()

	type gotReq struct {
		Path          string
		Method        string
		ContentType   string
		Authorization string
		Body          []byte
	}

	var captured gotReq

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		captured.Method = r.Method
		captured.ContentType = r.Header.Get("Content-Type")
		captured.Authorization = r.Header.Get("Authorization")
		captured.Body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.abc"}]}`))
	}))
	defer srv.Close()

	c := NewGraphClient(srv.URL, "v22.0", "778752671981810", "top-secret")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	id, err := c.SendText(ctx, "15551234567", "hello")
	if err != nil {
		t.Fatalf("SendText() error: %v", err)
	}
	if id != "wamid.abc" {
		t.Fatalf("expected id %q, got %q", "wamid.abc", id)
	}

	if captured.Path != "/v22.0/778752671981810/messages" {
		t.Fatalf("unexpected path %q", captured.Path)
	}
	if captured.Method != http.MethodPost {
		t.Fatalf("expected POST, got %q", captured.Method)
	}
	if captured.ContentType != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", captured.ContentType)
	}
	if captured.Authorization != "Bearer top-secret" {
		t.Fatalf("expected bearer auth header, got %q", captured.Authorization)
	}

	var req map[string]any
	if err := json.Unmarshal(captured.Body, &req); err != nil {
		t.Fatalf("failed to decode request json: %v body=%q", err, string(captured.Body))
	}
	if req["messaging_product"] != "whatsapp" {
		t.Fatalf("expected messaging_product whatsapp, got %v", req["messaging_product"])
	}
	if req["recipient_type"] != "individual" {
		t.Fatalf("expected recipient_type individual, got %v", req["recipient_type"])
	}
	if req["to"] != "15551234567" || req["type"] != "text" {
		t.Fatalf("unexpected envelope: %v", req)
	}
	text, ok := req["text"].(map[string]any)
	if !ok {
		t.Fatalf("expected text object, got %v", req["text"])
	}
	if text["body"] != "hello" {
		t.Fatalf("expected body %q, got %v", "hello", text["body"])
	}
	if preview, ok := text["preview_url"].(bool); !ok || preview {
		t.Fatalf("expected preview_url=false, got %v", text["preview_url"])
	}
}

func TestGraphClient_SendText_Non2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	}))
	defer srv.Close()

	c := NewGraphClient(srv.URL, "v22.0", "1", "bad-token")

	_, err := c.SendText(context.Background(), "1555", "hi")
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "unexpected status code: 401") {
		t.Fatalf("expected status code in error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid OAuth access token") {
		t.Fatalf("expected response body in error, got: %v", err)
	}
}

func TestGraphClient_SendText_InvalidJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("THIS IS NOT JSON"))
	}))
	defer srv.Close()

	c := NewGraphClient(srv.URL, "v22.0", "1", "tok")

	_, err := c.SendText(context.Background(), "1555", "hi")
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed to decode json") {
		t.Fatalf("expected decode error, got: %v", err)
	}
}

func TestGraphClient_SendText_MissingMessageID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[]}`))
	}))
	defer srv.Close()

	c := NewGraphClient(srv.URL, "v22.0", "1", "tok")

	_, err := c.SendText(context.Background(), "1555", "hi")
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing message id") {
		t.Fatalf("expected missing message id error, got: %v", err)
	}
}

func TestGraphClient_SendText_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.late"}]}`))
	}))
	defer srv.Close()

	c := NewGraphClient(srv.URL, "v22.0", "1", "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.SendText(ctx, "1555", "hi")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed, got %v", err)
	}
}
