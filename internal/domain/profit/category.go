package profit

// Category is the display bucket of a profitability score.
type Category string

const (
	CategoryExcellent Category = "excellent"
	CategoryGood      Category = "good"
	CategoryModerate  Category = "moderate"
	CategoryLow       Category = "low"
	CategoryPoor      Category = "poor"
)

// CategoryOf buckets a score.
func CategoryOf(rate int) Category {
	switch {
	case rate >= 81:
		return CategoryExcellent
	case rate >= 61:
		return CategoryGood
	case rate >= 41:
		return CategoryModerate
	case rate >= 21:
		return CategoryLow
	default:
		return CategoryPoor
	}
}

// Hex returns the brand color of the category.
func (c Category) Hex() string {
	switch c {
	case CategoryExcellent:
		return "#22c55e"
	case CategoryGood:
		return "#84cc16"
	case CategoryModerate:
		return "#eab308"
	case CategoryLow:
		return "#f97316"
	default:
		return "#ef4444"
	}
}

// Description returns the user-facing label.
func (c Category) Description() string {
	switch c {
	case CategoryExcellent:
		return "Отличная прибыльность"
	case CategoryGood:
		return "Хорошая прибыльность"
	case CategoryModerate:
		return "Умеренная прибыльность"
	case CategoryLow:
		return "Низкая прибыльность"
	default:
		return "Убыточный груз"
	}
}

// String returns the string representation of the Category.
func (c Category) String() string {
	return string(c)
}

// Score bundles a rate with its display attributes.
type Score struct {
	Rate        int      `json:"rate"`
	Category    Category `json:"category"`
	Color       string   `json:"color"`
	Hex         string   `json:"hex"`
	Description string   `json:"description"`
}

// Evaluate scores formatted offer values and attaches display attributes.
func Evaluate(price, distance, weight string) Score {
	return ScoreOf(Rate(price, distance, weight))
}

// ScoreOf attaches display attributes to an existing rate.
func ScoreOf(rate int) Score {
	c := CategoryOf(rate)
	return Score{
		Rate:        rate,
		Category:    c,
		Color:       Color(rate),
		Hex:         c.Hex(),
		Description: c.Description(),
	}
}
