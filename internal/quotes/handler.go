package quotes

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"quoteprovider/internal/logging"
	"quoteprovider/internal/provider"
)

type postBody struct {
	Symbols []string `json:"symbols"`
}

// Handler serves GET ?symbols=A,B and POST {"symbols": [...]}.
type Handler struct {
	Service *Service
	// Timeout bounds one resolve; zero means the request context only.
	Timeout time.Duration
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := h.Service.MaxSymbols
	var symbols []string
	switch r.Method {
	case http.MethodGet:
		symbols = ParseSymbols(r.URL.Query().Get("symbols"), limit)
	case http.MethodPost:
		var b postBody
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			h.Service.Logger.Debug("rejecting quotes body", zap.Error(err))
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid-body"})
			return
		}
		symbols = Clip(b.Symbols, limit)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method-not-allowed"})
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	writeJSON(w, http.StatusOK, h.Service.Resolve(ctx, symbols))
}

// BatchHandler exposes the upstream directly as GET /quotes?symbols=A,B,
// returning quotes under the symbols the upstream resolved. It is the
// surface another instance reaches through QUOTE_SERVICE_URL.
type BatchHandler struct {
	Upstream provider.Provider
	Logger   *zap.Logger
}

func (h *BatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method-not-allowed"})
		return
	}
	symbols := ParseSymbols(r.URL.Query().Get("symbols"), MaxSymbols)
	qs, err := h.Upstream.Fetch(r.Context(), symbols)
	if err != nil {
		logging.OrNop(h.Logger).Error("batch fetch failed", zap.Strings("symbols", symbols), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, Response{Quotes: []provider.Quote{}, Error: ErrServiceError})
		return
	}
	if qs == nil {
		qs = []provider.Quote{}
	}
	writeJSON(w, http.StatusOK, Response{Quotes: qs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
