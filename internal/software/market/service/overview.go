package service

import (
	"context"
	"math"
	"sort"
	"strconv"
	"time"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/mapsync"
	"dalnoboi/internal/ports"
)

const hotspotLimit = 10

// Overview collects aggregate numbers about the catalog and the live sessions.
func (service *marketService) Overview(ctx context.Context) (ports.OverviewResult, error) {
	var res ports.OverviewResult
	res.Timestamp = time.Now().UTC()

	// ----- catalog metrics -----

	offers, err := service.offers(ctx)
	if err != nil {
		return ports.OverviewResult{}, err
	}
	res.Catalog.Total = len(offers)
	res.Catalog.LoadedAt = service.catalog.LoadedAt().UTC()

	rateSum := 0
	for i := range offers {
		o := &offers[i]
		if o.BookingStatus == cargo.BookingAvailable {
			res.Catalog.Available++
		}
		if o.Urgent {
			res.Catalog.Urgent++
		}
		if !o.HasRoute() {
			res.Catalog.WithoutRoute++
		}
		rateSum += o.ProfitabilityRate
	}
	if len(offers) > 0 {
		res.Catalog.AverageProfitability = math.Round(float64(rateSum)/float64(len(offers))*10) / 10
	}

	// ----- session metrics -----

	for _, s := range service.hub.snapshot() {
		row := s.Row()
		res.Sessions.Active++
		if row.Attached {
			res.Sessions.Attached++
		}
		if row.Location == mapsync.Located.String() {
			res.Sessions.Located++
		}
		res.Sessions.Bookings += row.Bookings
	}
	res.Sessions.TrackedOrders = service.hub.TrackedOrders()

	res.Hotspots = hotspots(offers, hotspotLimit)
	return res, nil
}

// ActiveSessions returns a page of live sessions. Bad paging values fall back to defaults.
func (service *marketService) ActiveSessions(_ context.Context, page, pageSize string) (ports.ActiveSessionsResult, error) {
	pageInt, err := strconv.Atoi(page)
	if err != nil || pageInt < 1 {
		pageInt = 1
	}
	sizeInt, err := strconv.Atoi(pageSize)
	if err != nil || sizeInt < 1 {
		sizeInt = 10
	}

	rows := make([]ports.SessionRow, 0, service.hub.Len())
	for _, s := range service.hub.snapshot() {
		rows = append(rows, s.Row())
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].LastSeen.Equal(rows[j].LastSeen) {
			return rows[i].LastSeen.After(rows[j].LastSeen)
		}
		return rows[i].SessionID < rows[j].SessionID
	})

	res := ports.ActiveSessionsResult{
		Sessions:   []ports.SessionRow{},
		TotalCount: len(rows),
		Page:       pageInt,
		PageSize:   sizeInt,
	}
	offset := (pageInt - 1) * sizeInt
	if offset < len(rows) {
		res.Sessions = rows[offset:min(offset+sizeInt, len(rows))]
	}
	return res, nil
}

// hotspots ranks loading cities by offer count.
func hotspots(offers []cargo.Offer, limit int) []ports.Hotspot {
	byCity := make(map[string]*ports.Hotspot)
	for i := range offers {
		o := &offers[i]
		if o.From == "" {
			continue
		}
		h, ok := byCity[o.From]
		if !ok {
			h = &ports.Hotspot{City: o.From}
			byCity[o.From] = h
		}
		h.Offers++
		if h.Location == nil && o.Origin != nil {
			p := *o.Origin
			h.Location = &p
		}
	}

	out := make([]ports.Hotspot, 0, len(byCity))
	for _, h := range byCity {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Offers != out[j].Offers {
			return out[i].Offers > out[j].Offers
		}
		return out[i].City < out[j].City
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
