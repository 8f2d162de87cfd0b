package api

import "net/http"

func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /webhook", h.VerifyWebhook)
	mux.HandleFunc("POST /webhook", h.ReceiveWebhook)
	mux.HandleFunc("POST /send", h.Send)

	mux.HandleFunc("GET /v1/health", h.Health)
	mux.HandleFunc("GET /v1/messages", h.ListMessages)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("wabridge"))
	})

	return mux
}
