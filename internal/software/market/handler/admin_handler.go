package handler

import (
	"context"
	"net/http"
)

// ----- Handler: GET /admin/overview -----

func (handler *MarketHTTPHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	sCtx, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	overview, err := handler.svc.Overview(sCtx)
	if err != nil {
		handler.httpError(ctx, w, statusOf(err), "failed to fetch system overview", err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, overview)
}

// ----- Handler: GET /admin/sessions?page=X&page_size=Y -----

func (handler *MarketHTTPHandler) handleActiveSessions(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	query := r.URL.Query()

	sCtx, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	sessions, err := handler.svc.ActiveSessions(sCtx, query.Get("page"), query.Get("page_size"))
	if err != nil {
		handler.httpError(ctx, w, statusOf(err), "failed to fetch active sessions", err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, sessions)
}
