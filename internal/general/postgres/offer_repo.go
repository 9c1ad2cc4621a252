package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dalnoboi/internal/domain/cargo"
	"dalnoboi/internal/domain/geo"
	"dalnoboi/internal/ports"

	"github.com/jackc/pgx/v5"
)

// OfferRepo stores cargo offers in cargo_offers using plain SQL.
type OfferRepo struct{}

func NewOfferRepo() ports.OfferRepository {
	return &OfferRepo{}
}

const offerColumns = `
	id, title, origin_city, destination_city,
	origin_lat, origin_lng, dest_lat, dest_lng,
	weight, price, distance, volume, deadline, rating, urgent,
	cargo_type, body_type, loading_type, loading_date, booking_status,
	description, contact_name, contact_phone`

// List returns every offer ordered by id.
func (repo *OfferRepo) List(ctx context.Context) ([]cargo.Offer, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `SELECT `+offerColumns+` FROM cargo_offers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	return collectOffers(rows)
}

// ListInBounds returns offers that load or unload inside b.
func (repo *OfferRepo) ListInBounds(ctx context.Context, b geo.Bounds) ([]cargo.Offer, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+offerColumns+`
		FROM cargo_offers
		WHERE (origin_lat BETWEEN $1 AND $2 AND origin_lng BETWEEN $3 AND $4)
		   OR (dest_lat BETWEEN $1 AND $2 AND dest_lng BETWEEN $3 AND $4)
		ORDER BY id
	`, b.South, b.North, b.West, b.East)
	if err != nil {
		return nil, fmt.Errorf("list offers in bounds: %w", err)
	}
	return collectOffers(rows)
}

// Get returns one offer or ports.ErrOfferNotFound.
func (repo *OfferRepo) Get(ctx context.Context, id int64) (cargo.Offer, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return cargo.Offer{}, err
	}

	o, err := scanOffer(tx.QueryRow(ctx, `SELECT `+offerColumns+` FROM cargo_offers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return cargo.Offer{}, fmt.Errorf("%w: %d", ports.ErrOfferNotFound, id)
	}
	return o, err
}

// Upsert inserts or replaces an offer by id.
func (repo *OfferRepo) Upsert(ctx context.Context, o cargo.Offer) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	var loadingDate *time.Time
	if d, ok := o.LoadingDay(); ok {
		loadingDate = &d
	}
	oLat, oLng := nullablePoint(o.Origin)
	dLat, dLng := nullablePoint(o.Destination)

	_, err = tx.Exec(ctx, `
		INSERT INTO cargo_offers (`+offerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			origin_city = EXCLUDED.origin_city,
			destination_city = EXCLUDED.destination_city,
			origin_lat = EXCLUDED.origin_lat,
			origin_lng = EXCLUDED.origin_lng,
			dest_lat = EXCLUDED.dest_lat,
			dest_lng = EXCLUDED.dest_lng,
			weight = EXCLUDED.weight,
			price = EXCLUDED.price,
			distance = EXCLUDED.distance,
			volume = EXCLUDED.volume,
			deadline = EXCLUDED.deadline,
			rating = EXCLUDED.rating,
			urgent = EXCLUDED.urgent,
			cargo_type = EXCLUDED.cargo_type,
			body_type = EXCLUDED.body_type,
			loading_type = EXCLUDED.loading_type,
			loading_date = EXCLUDED.loading_date,
			booking_status = EXCLUDED.booking_status,
			description = EXCLUDED.description,
			contact_name = EXCLUDED.contact_name,
			contact_phone = EXCLUDED.contact_phone,
			updated_at = now()
	`,
		o.ID, o.Title, o.From, o.To,
		oLat, oLng, dLat, dLng,
		o.Weight, o.Price, o.Distance, o.Volume, o.Deadline, o.Rating, o.Urgent,
		o.Type.String(), o.BodyType.String(), o.LoadingType.String(), loadingDate, o.BookingStatus.String(),
		o.Description, o.Contact.Name, o.Contact.Phone,
	)
	if err != nil {
		return fmt.Errorf("upsert offer %d: %w", o.ID, err)
	}
	return nil
}

func collectOffers(rows pgx.Rows) ([]cargo.Offer, error) {
	defer rows.Close()

	out := make([]cargo.Offer, 0)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// scanOffer reads one row in offerColumns order. Unknown enum values degrade to
// zero values so one bad row does not hide the catalog.
func scanOffer(row pgx.Row) (cargo.Offer, error) {
	var (
		o                      cargo.Offer
		oLat, oLng, dLat, dLng *float64
		cargoType, bodyType    string
		loadingType, status    string
		loadingDate            *time.Time
	)

	if err := row.Scan(
		&o.ID, &o.Title, &o.From, &o.To,
		&oLat, &oLng, &dLat, &dLng,
		&o.Weight, &o.Price, &o.Distance, &o.Volume, &o.Deadline, &o.Rating, &o.Urgent,
		&cargoType, &bodyType, &loadingType, &loadingDate, &status,
		&o.Description, &o.Contact.Name, &o.Contact.Phone,
	); err != nil {
		return cargo.Offer{}, err
	}

	o.Origin = pointOf(oLat, oLng)
	o.Destination = pointOf(dLat, dLng)
	o.Type, _ = cargo.ParseType(cargoType)
	if o.Type == "" {
		o.Type = cargo.TypeOther
	}
	o.BodyType, _ = cargo.ParseBodyType(bodyType)
	o.LoadingType, _ = cargo.ParseLoadingType(loadingType)
	o.BookingStatus, _ = cargo.ParseBookingStatus(status)
	if loadingDate != nil {
		o.LoadingDate = loadingDate.Format(cargo.DateLayout)
	}
	o.Annotate()

	return o, nil
}

func pointOf(lat, lng *float64) *geo.Point {
	if lat == nil || lng == nil {
		return nil
	}
	p, err := geo.NewPoint(*lat, *lng)
	if err != nil {
		return nil
	}
	return &p
}

func nullablePoint(p *geo.Point) (lat, lng *float64) {
	if p == nil {
		return nil, nil
	}
	return &p.Lat, &p.Lng
}
