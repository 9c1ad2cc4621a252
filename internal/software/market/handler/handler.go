package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"dalnoboi/internal/domain/geo"
	"dalnoboi/internal/filter"
	"dalnoboi/internal/general/logger"
	"dalnoboi/internal/general/websocket"
	"dalnoboi/internal/ports"
	"dalnoboi/internal/software/market/service"
)

const serviceTimeout = 5 * time.Second

// MarketHTTPHandler adapts HTTP requests to the MarketService.
type MarketHTTPHandler struct {
	svc    ports.MarketService
	logger *logger.Logger
	socket *websocket.MapSocket
}

// NewMarketHTTPHandler wires an HTTP handler around the MarketService.
func NewMarketHTTPHandler(svc ports.MarketService, logger *logger.Logger, socket *websocket.MapSocket) *MarketHTTPHandler {
	return &MarketHTTPHandler{svc: svc, logger: logger, socket: socket}
}

// RegisterRoutes mounts map-service endpoints on the provided mux.
func (handler *MarketHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handler.handleHealth)
	mux.HandleFunc("GET /offers", handler.handleListOffers)
	mux.HandleFunc("POST /offers/search", handler.handleSearch)
	mux.HandleFunc("GET /offers/{id}/nearby", handler.handleNearby)
	mux.HandleFunc("POST /sessions", handler.handleCreateSession)
	mux.HandleFunc("GET /admin/overview", handler.handleOverview)
	mux.HandleFunc("GET /admin/sessions", handler.handleActiveSessions)

	// the socket authenticates with the session ticket itself
	if handler.socket != nil {
		mux.HandleFunc("GET /ws/map/{session_id}", handler.socket.ConnectMap)
	}
}

// ----- general helpers -----

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case service.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, filter.ErrInvalidCriteria),
		errors.Is(err, geo.ErrInvalidLatitude),
		errors.Is(err, geo.ErrInvalidLongitude),
		errors.Is(err, geo.ErrInvalidBounds):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON checks the content type and strictly decodes a bounded body into dst.
func (handler *MarketHTTPHandler) decodeJSON(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return false
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return false
	}
	return true
}

// jsonResponse encodes data to the HTTP response.
func (handler *MarketHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *MarketHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	} else if status == http.StatusUnsupportedMediaType {
		action = "unsupported_media_type"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// serviceError reports a service failure with its mapped status.
func (handler *MarketHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	handler.httpError(ctx, w, status, msg, err)
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *MarketHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
