package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ricardobn/wabridge/internal/repo"
	"github.com/ricardobn/wabridge/internal/service"
	"github.com/ricardobn/wabridge/internal/webhook"
)

// maxWebhookBody caps inbound webhook payloads at 1 MiB.
const maxWebhookBody = 1 << 20

type Handler struct {
	ingestion   *service.Ingestion
	sending     *service.Sending
	store       repo.MessageStore
	verifyToken string
	logger      *slog.Logger
}

func NewHandler(ingestion *service.Ingestion, sending *service.Sending, store repo.MessageStore, verifyToken string, logger *slog.Logger) *Handler {
	return &Handler{
		ingestion:   ingestion,
		sending:     sending,
		store:       store,
		verifyToken: verifyToken,
		logger:      logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// VerifyWebhook answers the platform's subscription handshake.
func (h *Handler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	challenge, err := webhook.VerifyChallenge(
		q.Get("hub.mode"),
		q.Get("hub.verify_token"),
		q.Get("hub.challenge"),
		h.verifyToken,
	)
	switch {
	case errors.Is(err, webhook.ErrBadRequest):
		h.logger.Warn("webhook verification rejected", "error", err)
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, webhook.ErrForbidden):
		h.logger.Warn("webhook verification rejected", "error", err)
		w.WriteHeader(http.StatusForbidden)
	default:
		h.logger.Info("webhook verified")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
	}
}

// ReceiveWebhook ingests a notification delivery. It always acknowledges
// with a 200 once ingestion has been attempted; a non-200 would make the
// platform redeliver a batch that may already be partially stored.
func (h *Handler) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	h.ingestion.Ingest(r.Context(), body)
	w.WriteHeader(http.StatusOK)
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid json body"})
		return
	}
	if req.To == "" || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "to and message are required"})
		return
	}

	messageID, err := h.sending.Send(r.Context(), req.To, req.Message)
	if err != nil {
		h.logger.Error("send failed", "to", req.To, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"success": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messageId": messageID})
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	offset := parseInt(r.URL.Query().Get("offset"), 0)

	items, err := h.store.ListRecent(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(items))
	for _, m := range items {
		out = append(out, map[string]any{
			"messageId": m.MessageID,
			"from":      m.FromPhone,
			"to":        m.ToPhone,
			"body":      m.Body,
			"type":      string(m.Type),
			"timestamp": m.Timestamp,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
