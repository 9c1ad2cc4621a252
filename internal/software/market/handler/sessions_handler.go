package handler

import (
	"context"
	"net/http"
)

// ----- Handler: POST /sessions -----

// handleCreateSession opens a map session. The returned ticket authenticates the socket
// at /ws/map/{session_id}.
func (handler *MarketHTTPHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	sCtx, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	tk, err := handler.svc.CreateSession(sCtx)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusCreated, tk)
}
