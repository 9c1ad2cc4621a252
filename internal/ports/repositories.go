package ports

import (
	"context"
	"errors"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/geo"
)

var ErrOfferNotFound = errors.New("cargo offer not found")

// UnitOfWork runs repository calls inside one transaction.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OfferSource is where the map service reads its catalog from.
type OfferSource interface {
	List(ctx context.Context) ([]cargo.Offer, error)
	// ListInBounds returns offers whose loading or unloading point lies inside b.
	ListInBounds(ctx context.Context, b geo.Bounds) ([]cargo.Offer, error)
}

// OfferRepository persists cargo offers. Calls must run within UnitOfWork.WithinTx.
type OfferRepository interface {
	OfferSource
	Get(ctx context.Context, id int64) (cargo.Offer, error)
	Upsert(ctx context.Context, o cargo.Offer) error
}
