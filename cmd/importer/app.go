package importer

import (
	"context"
	"errors"
	"fmt"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/general/config"
	"dalnoboi/internal/general/logger"
	"dalnoboi/internal/general/postgres"
	"dalnoboi/internal/general/xlsx"
	"dalnoboi/internal/ports"
	"dalnoboi/internal/software/market/service"
)

// Options select what the importer does. With Export set it writes the built-in dataset to
// that file and touches no database.
type Options struct {
	ConfigPath string
	File       string
	Sheet      string
	Export     string
}

// Run imports a cargo spreadsheet into Postgres in one transaction, or exports the seed dataset.
func Run(ctx context.Context, opts Options) error {
	logger := logger.New("importer")
	ctx = logger.WithRequestID(ctx, "import-001")

	if opts.Sheet == "" {
		opts.Sheet = "Cargos"
	}

	if opts.Export != "" {
		records := service.SeedRecords()
		if err := xlsx.WriteFile(opts.Export, opts.Sheet, records); err != nil {
			logger.Error(ctx, "export_failed", "Failed to write seed dataset", err, map[string]any{"file": opts.Export})
			return err
		}
		logger.Info(ctx, "export_done", "Seed dataset exported", map[string]any{"file": opts.Export, "rows": len(records)})
		return nil
	}

	if opts.File == "" {
		return errors.New("--file is required unless --export is given")
	}

	cfg, err := config.LoadFromFile(opts.ConfigPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		logger.Error(ctx, "config_invalid", "Importer needs database settings", err, nil)
		return err
	}

	offers, err := readOffers(ctx, logger, opts.File, opts.Sheet)
	if err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		logger.Error(ctx, "db_schema_failed", "Failed to apply schema", err, nil)
		return err
	}

	if err := upsertAll(ctx, postgres.NewUnitOfWork(pool), postgres.NewOfferRepo(), offers); err != nil {
		logger.Error(ctx, "import_failed", "Import rolled back", err, map[string]any{"file": opts.File})
		return err
	}

	logger.Info(ctx, "import_done", "Cargo spreadsheet imported", map[string]any{
		"file":     opts.File,
		"sheet":    opts.Sheet,
		"imported": len(offers),
	})
	return nil
}

// readOffers parses the sheet and drops rows that do not form a listable offer.
func readOffers(ctx context.Context, logger *logger.Logger, file, sheet string) ([]cargo.Offer, error) {
	records, rowErrs, err := xlsx.ReadFile(file, sheet)
	if err != nil {
		logger.Error(ctx, "sheet_read_failed", "Failed to read spreadsheet", err, map[string]any{"file": file})
		return nil, err
	}
	for _, re := range rowErrs {
		logger.Error(ctx, "row_skipped", "Skipped malformed row", re.Err, map[string]any{"row": re.Row})
	}

	offers := make([]cargo.Offer, 0, len(records))
	for _, r := range records {
		o := cargo.FromRecord(r)
		if err := o.Validate(); err != nil {
			logger.Error(ctx, "row_skipped", "Skipped invalid offer", err, map[string]any{"id": r.ID})
			continue
		}
		offers = append(offers, o)
	}
	return offers, nil
}

func upsertAll(ctx context.Context, uow ports.UnitOfWork, repo ports.OfferRepository, offers []cargo.Offer) error {
	return uow.WithinTx(ctx, func(ctx context.Context) error {
		for _, o := range offers {
			if err := repo.Upsert(ctx, o); err != nil {
				return fmt.Errorf("upsert offer %d: %w", o.ID, err)
			}
		}
		return nil
	})
}
