package cargo

import (
	"errors"
	"strings"
)

// Type is the normalized cargo category tag.
type Type string

const (
	TypeConstruction Type = "construction"
	TypeFood         Type = "food"
	TypeAuto         Type = "auto"
	TypeElectronics  Type = "electronics"
	TypeTextiles     Type = "textiles"
	TypeOther        Type = "other"
)

// BodyType is the truck body required by the offer.
type BodyType string

const (
	BodyRefrigerator BodyType = "refrigerator"
	BodyTented       BodyType = "tented"
	BodyContainer    BodyType = "container"
	BodyFlatbed      BodyType = "flatbed"
	BodySideboard    BodyType = "sideboard"
	BodyCarCarrier   BodyType = "car_carrier"
	BodyGrainCarrier BodyType = "grain_carrier"
)

// LoadingType is how the truck is loaded.
type LoadingType string

const (
	LoadingRear           LoadingType = "rear"
	LoadingSide           LoadingType = "side"
	LoadingFullUncovering LoadingType = "full_uncovering"
	LoadingRamps          LoadingType = "ramps"
	LoadingTop            LoadingType = "top"
	LoadingBulk           LoadingType = "bulk"
)

var (
	ErrInvalidType        = errors.New("invalid cargo type")
	ErrInvalidBodyType    = errors.New("invalid body type")
	ErrInvalidLoadingType = errors.New("invalid loading type")
)

// ParseType normalizes (lowercases+trims) and validates a cargo type tag.
func ParseType(in string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(in)))
	if t.Valid() {
		return t, nil
	}
	return "", ErrInvalidType
}

// Valid reports whether t is one of the known cargo type tags.
func (t Type) Valid() bool {
	switch t {
	case TypeConstruction, TypeFood, TypeAuto, TypeElectronics, TypeTextiles, TypeOther:
		return true
	default:
		return false
	}
}

func (t Type) String() string { return string(t) }

// ParseBodyType normalizes and validates a body type tag.
func ParseBodyType(in string) (BodyType, error) {
	b := BodyType(strings.ToLower(strings.TrimSpace(in)))
	if b.Valid() {
		return b, nil
	}
	return "", ErrInvalidBodyType
}

// Valid reports whether b is one of the known body types.
func (b BodyType) Valid() bool {
	switch b {
	case BodyRefrigerator, BodyTented, BodyContainer, BodyFlatbed, BodySideboard, BodyCarCarrier, BodyGrainCarrier:
		return true
	default:
		return false
	}
}

func (b BodyType) String() string { return string(b) }

// ParseLoadingType normalizes and validates a loading type tag.
func ParseLoadingType(in string) (LoadingType, error) {
	l := LoadingType(strings.ToLower(strings.TrimSpace(in)))
	if l.Valid() {
		return l, nil
	}
	return "", ErrInvalidLoadingType
}

// Valid reports whether l is one of the known loading types.
func (l LoadingType) Valid() bool {
	switch l {
	case LoadingRear, LoadingSide, LoadingFullUncovering, LoadingRamps, LoadingTop, LoadingBulk:
		return true
	default:
		return false
	}
}

func (l LoadingType) String() string { return string(l) }

// ClassifyType maps a free-text cargo description to a type tag.
func ClassifyType(freeText string) Type {
	switch {
	case strings.Contains(freeText, "Продукты") || strings.Contains(freeText, "питания"):
		return TypeFood
	case strings.Contains(freeText, "Стройматериалы") || strings.Contains(freeText, "материалы"):
		return TypeConstruction
	case strings.Contains(freeText, "Автозапчасти") || strings.Contains(freeText, "авто"):
		return TypeAuto
	case strings.Contains(freeText, "Текстиль"):
		return TypeTextiles
	case strings.Contains(freeText, "Электроника"):
		return TypeElectronics
	default:
		return TypeOther
	}
}
