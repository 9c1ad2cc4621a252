package service

import (
	"context"
	"fmt"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/geo"
	"dalnoboi/internal/general/logger"
	"dalnoboi/internal/general/xlsx"
	"dalnoboi/internal/ports"
)

// SeedSource serves the built-in demo catalog.
type SeedSource struct{}

func (SeedSource) List(context.Context) ([]cargo.Offer, error) {
	return offersFromRecords(SeedRecords()), nil
}

func (s SeedSource) ListInBounds(ctx context.Context, b geo.Bounds) ([]cargo.Offer, error) {
	offers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return inBounds(offers, b), nil
}

// XLSXSource reads the catalog from a spreadsheet on every List. Bad rows are logged and skipped.
type XLSXSource struct {
	Path   string
	Sheet  string
	Logger *logger.Logger
}

func (s *XLSXSource) List(ctx context.Context) ([]cargo.Offer, error) {
	records, rowErrs, err := xlsx.ReadFile(s.Path, s.Sheet)
	if err != nil {
		return nil, fmt.Errorf("read catalog sheet: %w", err)
	}
	for _, re := range rowErrs {
		s.Logger.Error(ctx, "catalog_row_skipped", "Skipped malformed catalog row", re.Err,
			map[string]any{"file": s.Path, "row": re.Row})
	}
	return offersFromRecords(records), nil
}

func (s *XLSXSource) ListInBounds(ctx context.Context, b geo.Bounds) ([]cargo.Offer, error) {
	offers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return inBounds(offers, b), nil
}

// RepoSource reads the catalog from the offer repository inside a read-only transaction.
type RepoSource struct {
	UOW  ports.UnitOfWork
	Repo ports.OfferRepository
}

func (s *RepoSource) List(ctx context.Context) ([]cargo.Offer, error) {
	var offers []cargo.Offer
	err := s.UOW.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		offers, err = s.Repo.List(ctx)
		return err
	})
	return offers, err
}

func (s *RepoSource) ListInBounds(ctx context.Context, b geo.Bounds) ([]cargo.Offer, error) {
	var offers []cargo.Offer
	err := s.UOW.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		offers, err = s.Repo.ListInBounds(ctx, b)
		return err
	})
	return offers, err
}

func offersFromRecords(records []cargo.Record) []cargo.Offer {
	offers := make([]cargo.Offer, 0, len(records))
	for _, r := range records {
		offers = append(offers, cargo.FromRecord(r))
	}
	return offers
}

// inBounds keeps offers whose loading or unloading point lies inside b.
func inBounds(offers []cargo.Offer, b geo.Bounds) []cargo.Offer {
	out := make([]cargo.Offer, 0, len(offers))
	for _, o := range offers {
		if (o.Origin != nil && b.Contains(*o.Origin)) || (o.Destination != nil && b.Contains(*o.Destination)) {
			out = append(out, o)
		}
	}
	return out
}
