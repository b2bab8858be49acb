package view

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// FormatPercentage renders a percentage value fixed to one decimal place.
// Non-numeric values pass through unformatted; the persona contract is loose
// enough that a label can show up where a number was expected.
func FormatPercentage(value any) string {
	if f, ok := asFloat(value); ok {
		return fmt.Sprintf("%.1f%%", roundTenth(f))
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// FormatTime renders a duration given in hours, switching to days once the
// value passes 24 and dropping the hours clause when the remainder is zero.
func FormatTime(hours float64) string {
	if hours == 0 {
		return "0 hours"
	}
	if hours < 24 {
		return fmt.Sprintf("%.1f hours", roundTenth(hours))
	}

	days := int(hours / 24)
	label := "days"
	if days == 1 {
		label = "day"
	}

	remainder := strconv.FormatFloat(roundTenth(math.Mod(hours, 24)), 'f', 1, 64)
	if remainder == "0.0" {
		return fmt.Sprintf("%d %s", days, label)
	}
	return fmt.Sprintf("%d %s %s hours", days, label, remainder)
}

// roundTenth rounds to one decimal place with halves going away from zero, so
// a value like 5.25 shows as 5.3 rather than the banker's-rounded 5.2.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// BarWidth converts a percentage value into a bar width clamped to [0, 100].
// Values the map delivered as non-numeric collapse to an empty bar.
func BarWidth(value any) float64 {
	f, ok := asFloat(value)
	if !ok {
		return 0
	}
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return f
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
