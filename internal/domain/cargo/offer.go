package cargo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"dalnoboi/internal/domain/geo"
	"dalnoboi/internal/domain/profit"
)

// DateLayout is the calendar-day format of loading dates.
const DateLayout = "2006-01-02"

var ErrInvalidOffer = errors.New("invalid cargo offer")

// Contact identifies the shipper.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Offer is a cargo listing as shown on the map. Weight, price, distance and volume keep
// their display formatting; numeric values are recovered with profit.ParseAmount.
type Offer struct {
	ID                int64         `json:"id"`
	Title             string        `json:"title"`
	From              string        `json:"from"`
	To                string        `json:"to"`
	Origin            *geo.Point    `json:"from_coords,omitempty"`
	Destination       *geo.Point    `json:"to_coords,omitempty"`
	Weight            string        `json:"weight"`
	Price             string        `json:"price"`
	Distance          string        `json:"distance"`
	Volume            string        `json:"volume"`
	Deadline          string        `json:"deadline,omitempty"`
	Rating            float64       `json:"rating,omitempty"`
	Urgent            bool          `json:"urgent"`
	Type              Type          `json:"type"`
	BodyType          BodyType      `json:"body_type"`
	LoadingType       LoadingType   `json:"loading_type"`
	LoadingDate       string        `json:"loading_date,omitempty"`
	BookingStatus     BookingStatus `json:"booking_status"`
	Favorite          bool          `json:"is_favorite"`
	ProfitabilityRate int           `json:"profitability_rate"`
	Description       string        `json:"description,omitempty"`
	Contact           Contact       `json:"contact_info"`
}

// HasRoute reports whether both ends are known, which radius filtering requires.
func (o *Offer) HasRoute() bool {
	return o.Origin != nil && o.Destination != nil
}

// LoadingDay parses LoadingDate; ok is false when the date is missing or malformed.
func (o *Offer) LoadingDay() (time.Time, bool) {
	if strings.TrimSpace(o.LoadingDate) == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, strings.TrimSpace(o.LoadingDate))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// WeightT, VolumeM3, DistanceKM and PriceRub parse the formatted fields.
func (o *Offer) WeightT() float64    { return profit.ParseAmount(o.Weight) }
func (o *Offer) VolumeM3() float64   { return profit.ParseAmount(o.Volume) }
func (o *Offer) DistanceKM() float64 { return profit.ParseAmount(o.Distance) }
func (o *Offer) PriceRub() float64   { return profit.ParseAmount(o.Price) }

// Score returns the profitability score with display attributes.
func (o *Offer) Score() profit.Score {
	return profit.ScoreOf(o.ProfitabilityRate)
}

// Annotate recomputes derived display fields.
func (o *Offer) Annotate() {
	o.ProfitabilityRate = profit.Rate(o.Price, o.Distance, o.Weight)
	if o.BookingStatus == "" {
		o.BookingStatus = BookingAvailable
	}
}

// Validate checks the fields an offer must carry to be listed.
func (o *Offer) Validate() error {
	var problems []string
	if o.ID <= 0 {
		problems = append(problems, "id must be positive")
	}
	if strings.TrimSpace(o.Title) == "" {
		problems = append(problems, "title is required")
	}
	if o.Origin != nil {
		if err := o.Origin.Validate(); err != nil {
			problems = append(problems, "origin: "+err.Error())
		}
	}
	if o.Destination != nil {
		if err := o.Destination.Validate(); err != nil {
			problems = append(problems, "destination: "+err.Error())
		}
	}
	if o.BookingStatus != "" && !o.BookingStatus.Valid() {
		problems = append(problems, ErrInvalidBookingStatus.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidOffer, strings.Join(problems, "; "))
	}
	return nil
}

// Record is a raw shipper listing before normalization.
type Record struct {
	ID              int64
	OriginCity      string
	Origin          *geo.Point
	DestinationCity string
	Destination     *geo.Point
	Description     string
	WeightT         float64
	PriceRub        float64
	DistanceKM      float64
	LoadingDate     string
	CargoType       string
	ContactName     string
	ContactPhone    string
}

// FromRecord normalizes a raw listing into a display-ready offer.
func FromRecord(r Record) Offer {
	priceStr := FormatRubles(r.PriceRub)
	weightStr := trimFloat(r.WeightT) + " тонн"
	distanceStr := trimFloat(r.DistanceKM) + " км"

	bodyType := BodyRefrigerator
	if r.WeightT > 15 {
		bodyType = BodyTented
	}
	loadingType := LoadingSide
	if r.ID%2 == 0 {
		loadingType = LoadingRear
	}

	o := Offer{
		ID:            r.ID,
		Title:         r.CargoType,
		From:          r.OriginCity,
		To:            r.DestinationCity,
		Origin:        r.Origin,
		Destination:   r.Destination,
		Weight:        weightStr,
		Price:         priceStr,
		Distance:      distanceStr,
		Volume:        fmt.Sprintf("%d м³", int64(math.Round(r.WeightT*4))),
		Deadline:      fmt.Sprintf("%d дня", int64(math.Ceil(r.DistanceKM/500))),
		Rating:        4.5 + float64(r.ID%5)*0.1,
		Urgent:        r.ID%3 == 0,
		Type:          ClassifyType(r.CargoType),
		BodyType:      bodyType,
		LoadingType:   loadingType,
		LoadingDate:   r.LoadingDate,
		BookingStatus: BookingAvailable,
		Description:   r.Description,
		Contact:       Contact{Name: r.ContactName, Phone: r.ContactPhone},
	}
	o.Annotate()

	return o
}

// FormatRubles renders an amount with space-grouped thousands, e.g. "180 000 ₽".
func FormatRubles(amount float64) string {
	whole := strconv.FormatInt(int64(math.Round(amount)), 10)
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}

	out := b.String() + " ₽"
	if neg {
		out = "-" + out
	}
	return out
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
