package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"dalnoboi/internal/domain/cargo"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidCriteria = errors.New("invalid filter criteria")

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// narrowerThan reports whether r excludes anything the full range admits.
func (r Range) narrowerThan(full Range) bool {
	return r.Min > full.Min || r.Max < full.Max
}

// DateRange bounds loading dates (YYYY-MM-DD). An empty bound is open.
type DateRange struct {
	From string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" validate:"omitempty,datetime=2006-01-02"`
}

// Set reports whether either bound is configured.
func (d DateRange) Set() bool {
	return d.From != "" || d.To != ""
}

// Criteria is the full set of filter dimensions applied to the catalog.
type Criteria struct {
	CargoTypes        []cargo.Type        `json:"cargo_types" validate:"dive,oneof=construction food auto electronics textiles other"`
	BodyTypes         []cargo.BodyType    `json:"body_types" validate:"dive,oneof=refrigerator tented container flatbed sideboard car_carrier grain_carrier"`
	LoadingTypes      []cargo.LoadingType `json:"loading_types" validate:"dive,oneof=rear side full_uncovering ramps top bulk"`
	Profitability     Range               `json:"profitability"`
	Weight            Range               `json:"weight"`
	Volume            Range               `json:"volume"`
	Distance          Range               `json:"distance"`
	LoadingDate       DateRange           `json:"loading_date"`
	UrgentOnly        bool                `json:"urgent_only"`
	AvailableOnly     bool                `json:"available_only"`
	LoadingRadiusKM   float64             `json:"loading_radius_km" validate:"gt=0"`
	UnloadingRadiusKM float64             `json:"unloading_radius_km" validate:"gt=0"`
}

// Default full ranges. A range equal to its default never excludes anything.
var (
	FullProfitability = Range{Min: 0, Max: 100}
	FullWeight        = Range{Min: 0, Max: 50}
	FullVolume        = Range{Min: 0, Max: 200}
	FullDistance      = Range{Min: 0, Max: 2000}
)

// Defaults returns the no-op criteria with default radii.
func Defaults() Criteria {
	return Criteria{
		CargoTypes:        []cargo.Type{},
		BodyTypes:         []cargo.BodyType{},
		LoadingTypes:      []cargo.LoadingType{},
		Profitability:     FullProfitability,
		Weight:            FullWeight,
		Volume:            FullVolume,
		Distance:          FullDistance,
		AvailableOnly:     true,
		LoadingRadiusKM:   DefaultLoadingRadiusKM,
		UnloadingRadiusKM: DefaultUnloadingRadiusKM,
	}
}

// Reset restores every attribute dimension to its default while keeping the radii.
func (c Criteria) Reset() Criteria {
	d := Defaults()
	d.LoadingRadiusKM = c.LoadingRadiusKM
	d.UnloadingRadiusKM = c.UnloadingRadiusKM
	return d
}

// UnmarshalJSON decodes onto Defaults, so omitted dimensions stay no-ops.
func (c *Criteria) UnmarshalJSON(data []byte) error {
	type plain Criteria
	p := plain(Defaults())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Criteria(p)
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		r := sl.Current().Interface().(Range)
		if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
			sl.ReportError(r.Min, "Min", "min", "number", "")
			return
		}
		if r.Min > r.Max {
			sl.ReportError(r.Min, "Min", "min", "ltefield", "Max")
		}
	}, Range{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		d := sl.Current().Interface().(DateRange)
		if d.From == "" || d.To == "" {
			return
		}
		from, errF := time.Parse(cargo.DateLayout, d.From)
		to, errT := time.Parse(cargo.DateLayout, d.To)
		if errF == nil && errT == nil && from.After(to) {
			sl.ReportError(d.From, "From", "from", "ltefield", "To")
		}
	}, DateRange{})
	return v
}

// Validate enforces positive radii, ordered ranges and known tags.
func (c Criteria) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
	}
	return nil
}

// ActiveCount counts dimensions that differ from their defaults. Radii are not counted.
func (c Criteria) ActiveCount() int {
	n := 0
	if len(c.CargoTypes) > 0 {
		n++
	}
	if len(c.BodyTypes) > 0 {
		n++
	}
	if len(c.LoadingTypes) > 0 {
		n++
	}
	if c.Profitability.narrowerThan(FullProfitability) {
		n++
	}
	if c.Weight.narrowerThan(FullWeight) {
		n++
	}
	if c.Volume.narrowerThan(FullVolume) {
		n++
	}
	if c.Distance.narrowerThan(FullDistance) {
		n++
	}
	if c.LoadingDate.Set() {
		n++
	}
	if c.UrgentOnly {
		n++
	}
	if !c.AvailableOnly {
		n++
	}
	return n
}

// ToggleCargoType adds t to the allow-set, or removes it when present.
func (c Criteria) ToggleCargoType(t cargo.Type) Criteria {
	c.CargoTypes = toggle(c.CargoTypes, t)
	return c
}

// ToggleBodyType adds or removes a body type.
func (c Criteria) ToggleBodyType(b cargo.BodyType) Criteria {
	c.BodyTypes = toggle(c.BodyTypes, b)
	return c
}

// ToggleLoadingType adds or removes a loading type.
func (c Criteria) ToggleLoadingType(l cargo.LoadingType) Criteria {
	c.LoadingTypes = toggle(c.LoadingTypes, l)
	return c
}

func toggle[T comparable](set []T, v T) []T {
	if i := slices.Index(set, v); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), v)
}
