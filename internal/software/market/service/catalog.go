package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/general/logger"
	"dalnoboi/internal/ports"

	"golang.org/x/sync/singleflight"
)

var ErrCatalogEmpty = errors.New("catalog has not been loaded")

// Catalog caches the offer list shared by all map sessions. Concurrent loads collapse into one
// source call; subscribers receive every successful load.
type Catalog struct {
	source ports.OfferSource
	logger *logger.Logger
	group  singleflight.Group

	mu        sync.RWMutex
	offers    []cargo.Offer
	loadedAt  time.Time
	listeners []func([]cargo.Offer)
}

func NewCatalog(source ports.OfferSource, logger *logger.Logger) *Catalog {
	return &Catalog{source: source, logger: logger}
}

// Load fetches the catalog from the source and notifies subscribers.
func (c *Catalog) Load(ctx context.Context) ([]cargo.Offer, error) {
	v, err, shared := c.group.Do("catalog", func() (any, error) {
		offers, err := c.source.List(ctx)
		if err != nil {
			return nil, err
		}
		for i := range offers {
			offers[i].Annotate()
		}

		c.mu.Lock()
		c.offers = offers
		c.loadedAt = time.Now()
		listeners := append([]func([]cargo.Offer){}, c.listeners...)
		c.mu.Unlock()

		for _, fn := range listeners {
			fn(cloneOffers(offers))
		}
		return offers, nil
	})
	if err != nil {
		c.logger.Error(ctx, "catalog_load_failed", "Failed to load cargo catalog", err, nil)
		return nil, err
	}

	offers := v.([]cargo.Offer)
	c.logger.Debug(ctx, "catalog_loaded", "Cargo catalog loaded", map[string]any{
		"offers": len(offers),
		"shared": shared,
	})
	return cloneOffers(offers), nil
}

// Offers returns a copy of the cached catalog.
func (c *Catalog) Offers() []cargo.Offer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneOffers(c.offers)
}

// Find returns one cached offer.
func (c *Catalog) Find(id int64) (cargo.Offer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loadedAt.IsZero() {
		return cargo.Offer{}, ErrCatalogEmpty
	}
	for _, o := range c.offers {
		if o.ID == id {
			return o, nil
		}
	}
	return cargo.Offer{}, ports.ErrOfferNotFound
}

func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Subscribe registers fn for future loads.
func (c *Catalog) Subscribe(fn func([]cargo.Offer)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Catalog) Source() ports.OfferSource { return c.source }

// cloneOffers copies the slice and the coordinate pointers so sessions can mutate their copy.
func cloneOffers(in []cargo.Offer) []cargo.Offer {
	out := make([]cargo.Offer, len(in))
	for i, o := range in {
		if o.Origin != nil {
			p := *o.Origin
			o.Origin = &p
		}
		if o.Destination != nil {
			p := *o.Destination
			o.Destination = &p
		}
		out[i] = o
	}
	return out
}
