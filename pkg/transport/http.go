package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/utcsync/mcp-time-server/pkg/logging"
)

// httpMaxBodyBytes caps a single JSON-RPC POST body.
const httpMaxBodyBytes = 1024 * 1024

// JSONRPCHandler exposes the dispatcher over HTTP: one request
// envelope per POST body, one response per 200. Unlike the STDIO
// channel, requests here are independent and served concurrently by
// net/http; ordering guarantees apply per connection only.
//
// Notifications are acknowledged with 202 and an empty body, keeping
// the no-response rule intact on a transport that must answer
// something.
type JSONRPCHandler struct {
	handler Handler
	logger  logging.Logger
}

// NewJSONRPCHandler builds the HTTP JSON-RPC endpoint in front of
// handler.
func NewJSONRPCHandler(handler Handler, logger logging.Logger) *JSONRPCHandler {
	if logger == nil {
		logger = logging.New(nil, nil)
	}
	return &JSONRPCHandler{handler: handler, logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *JSONRPCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeHTTPError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, httpMaxBodyBytes))
	if err != nil {
		h.logger.Warn("Failed to read request body", logging.ErrorField(err))
		writeHTTPError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	out := h.handler.HandleMessage(r.Context(), body)
	if out == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.logger.Warn("Failed to write response", logging.ErrorField(err))
	}
}

// writeHTTPError reports a transport-level failure, one that happened
// before any JSON-RPC envelope existed to answer inside.
func writeHTTPError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
