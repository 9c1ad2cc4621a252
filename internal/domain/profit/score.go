package profit

import "fmt"

// NeutralRate is returned when price, distance or weight is missing or zero.
const NeutralRate = 50

// thresholds map price per km per ton to a score, checked top-down.
var thresholds = []struct {
	minPerKmTon float64
	rate        int
}{
	{200, 95},
	{150, 85},
	{100, 75},
	{75, 65},
	{50, 55},
	{30, 45},
	{20, 35},
	{10, 25},
}

const floorRate = 15

// Rate scores an offer from its formatted price, distance and weight strings.
func Rate(price, distance, weight string) int {
	return RateValues(ParseAmount(price), ParseAmount(distance), ParseAmount(weight))
}

// RateValues scores an offer from already-parsed numbers.
func RateValues(price, distanceKM, weightT float64) int {
	if price <= 0 || distanceKM <= 0 || weightT <= 0 {
		return NeutralRate
	}

	perKmTon := price / (distanceKM * weightT)
	for _, t := range thresholds {
		if perKmTon >= t.minPerKmTon {
			return t.rate
		}
	}
	return floorRate
}

// PerKmTon returns price / (distance * weight), or 0 when any input is missing.
func PerKmTon(price, distance, weight string) float64 {
	p, d, w := ParseAmount(price), ParseAmount(distance), ParseAmount(weight)
	if p <= 0 || d <= 0 || w <= 0 {
		return 0
	}
	return p / (d * w)
}

// Color maps a score to an HSL color from red (0) to green (100).
func Color(rate int) string {
	r := clamp(rate)
	hue := float64(r) / 100 * 120

	saturation := 70
	if r < 20 || r > 80 {
		saturation = 85
	}

	return fmt.Sprintf("hsl(%s, %d%%, 50%%)", formatHue(hue), saturation)
}

func clamp(rate int) int {
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}

// formatHue prints whole hues without a fractional part, e.g. 114 rather than 114.0.
func formatHue(h float64) string {
	if h == float64(int(h)) {
		return fmt.Sprintf("%d", int(h))
	}
	return fmt.Sprintf("%g", h)
}
