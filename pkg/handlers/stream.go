package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/instapay/payment-core/pkg/events"
)

// StreamHandler exposes the push-message fan-out as a server-sent event
// stream. Balance updates and forced-logout notifications both arrive here.
type StreamHandler struct {
	Broadcaster *events.Broadcaster
	Logger      *slog.Logger

	// streamBuffer bounds the per-client queue; a client that cannot keep
	// up drops messages rather than blocking the publisher.
	streamBuffer int
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(broadcaster *events.Broadcaster, logger *slog.Logger) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{Broadcaster: broadcaster, Logger: logger, streamBuffer: 16}
}

// Stream subscribes the client to the broadcaster until it disconnects.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	msgs := make(chan events.Message, h.streamBuffer)
	unsubscribe := h.Broadcaster.Subscribe(func(msg events.Message) {
		select {
		case msgs <- msg:
		default:
			h.Logger.Warn("event stream client too slow, dropping message", "type", msg.Type)
		}
	})
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-msgs:
			body, err := json.Marshal(msg)
			if err != nil {
				h.Logger.Error("failed to marshal event", "type", msg.Type, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, body); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
