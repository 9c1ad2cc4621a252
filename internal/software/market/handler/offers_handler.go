package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/geo"
	"dalnoboi/internal/filter"
	"dalnoboi/internal/ports"
)

type offersResponse struct {
	Offers []cargo.Offer `json:"offers"`
	Total  int           `json:"total"`
}

// ----- Handler: GET /offers[?north=&south=&east=&west=] -----

func (handler *MarketHTTPHandler) handleListOffers(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	bounds, hasBounds, err := parseBounds(r.URL.Query())
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}

	sCtx, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	var offers []cargo.Offer
	if hasBounds {
		offers, err = handler.svc.OffersInBounds(sCtx, bounds)
	} else {
		offers, err = handler.svc.Offers(sCtx)
	}
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, offersResponse{Offers: offers, Total: len(offers)})
}

// parseBounds reads a bounding box; either all four edges or none must be given.
func parseBounds(q url.Values) (geo.Bounds, bool, error) {
	keys := []string{"north", "south", "east", "west"}
	vals := make([]float64, len(keys))
	present := 0
	for i, k := range keys {
		raw := q.Get(k)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return geo.Bounds{}, false, fmt.Errorf("%s must be a number", k)
		}
		vals[i] = v
		present++
	}
	switch present {
	case 0:
		return geo.Bounds{}, false, nil
	case len(keys):
		return geo.Bounds{North: vals[0], South: vals[1], East: vals[2], West: vals[3]}, true, nil
	default:
		return geo.Bounds{}, false, fmt.Errorf("bounds need north, south, east and west")
	}
}

// ----- Handler: POST /offers/search -----

type searchRequest struct {
	Origin   geo.Point        `json:"origin"`
	Criteria *filter.Criteria `json:"criteria"`
}

func (handler *MarketHTTPHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req searchRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	sCtx, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	res, err := handler.svc.Search(sCtx, ports.SearchRequest{Origin: req.Origin, Criteria: req.Criteria})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.logger.Debug(ctx, "offers_searched", "Stateless search served", map[string]any{
		"visible":      len(res.Offers),
		"total":        res.Total,
		"active_count": res.ActiveCount,
	})
	handler.jsonResponse(ctx, w, http.StatusOK, res)
}

// ----- Handler: GET /offers/{id}/nearby[?radius_km=] -----

type nearbyResponse struct {
	CargoID  int64               `json:"cargo_id"`
	RadiusKM float64             `json:"radius_km"`
	Items    []filter.NearbyItem `json:"items"`
}

func (handler *MarketHTTPHandler) handleNearby(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		handler.httpError(ctx, w, http.StatusBadRequest, "id must be a positive integer", err)
		return
	}

	radius := float64(filter.NearbyRadiusKM)
	if raw := r.URL.Query().Get("radius_km"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			handler.httpError(ctx, w, http.StatusBadRequest, "radius_km must be a positive number", err)
			return
		}
	}

	sCtx, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	items, err := handler.svc.Nearby(sCtx, id, radius)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, nearbyResponse{CargoID: id, RadiusKM: radius, Items: items})
}
