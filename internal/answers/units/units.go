package units

import (
	"errors"
	"fmt"
	"math"
)

// Category names a family of units sharing a base unit.
type Category string

const (
	Distance    Category = "distance"
	Temperature Category = "temperature"
	Weight      Category = "weight"
	Volume      Category = "volume"
)

// ErrUnknownUnit is returned for a unit or category name that is not in the
// tables. The UI only ever offers valid names, so hitting this is a programmer
// error rather than a user-recoverable one.
var ErrUnknownUnit = errors.New("unknown unit")

// factors maps each unit to its scale relative to the category base unit
// (kilometers, kilograms, liters). Conversion between any two units of a
// category is value / factors[from] * factors[to].
//
// Temperature has no shared scale factor (the scales are affine, not
// multiplicative) and is special-cased in Convert.
var factors = map[Category]map[string]float64{
	Distance: {
		"kilometers":  1,
		"meters":      1000,
		"centimeters": 100000,
		"miles":       0.621371,
		"yards":       1093.61,
		"feet":        3280.84,
		"inches":      39370.1,
	},
	Weight: {
		"kilograms": 1,
		"grams":     1000,
		"tonnes":    0.001,
		"pounds":    2.20462,
		"ounces":    35.274,
		"stone":     0.157473,
	},
	Volume: {
		"liters":       1,
		"milliliters":  1000,
		"gallons":      0.264172,
		"quarts":       1.05669,
		"pints":        2.11338,
		"cups":         4.22675,
		"fluid ounces": 33.814,
	},
}

// Names returns the unit names available for a category, or ErrUnknownUnit for
// a category outside the tables. Temperature is fixed.
func Names(category Category) ([]string, error) {
	if category == Temperature {
		return []string{"celsius", "fahrenheit", "kelvin"}, nil
	}
	table, ok := factors[category]
	if !ok {
		return nil, fmt.Errorf("%w: category %q", ErrUnknownUnit, category)
	}
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	return names, nil
}

// Convert converts value between two units of the same category.
func Convert(value float64, from, to string, category Category) (float64, error) {
	if category == Temperature {
		return convertTemperature(value, from, to)
	}
	table, ok := factors[category]
	if !ok {
		return 0, fmt.Errorf("%w: category %q", ErrUnknownUnit, category)
	}
	fromFactor, ok := table[from]
	if !ok {
		return 0, fmt.Errorf("%w: %q in category %q", ErrUnknownUnit, from, category)
	}
	toFactor, ok := table[to]
	if !ok {
		return 0, fmt.Errorf("%w: %q in category %q", ErrUnknownUnit, to, category)
	}
	return value / fromFactor * toFactor, nil
}

// convertTemperature keeps the four canonical formulas literal and derives
// every remaining pair through the Celsius intermediate, so e.g.
// fahrenheit -> kelvin is computed instead of passed through.
func convertTemperature(value float64, from, to string) (float64, error) {
	// Both names must be known before any recursion; an unknown unit would
	// otherwise re-enter with the same arguments forever.
	if !validTemperatureUnit(from) {
		return 0, fmt.Errorf("%w: %q in category temperature", ErrUnknownUnit, from)
	}
	if !validTemperatureUnit(to) {
		return 0, fmt.Errorf("%w: %q in category temperature", ErrUnknownUnit, to)
	}
	if from == to {
		return value, nil
	}
	switch {
	case from == "celsius" && to == "fahrenheit":
		return value*9/5 + 32, nil
	case from == "fahrenheit" && to == "celsius":
		return (value - 32) * 5 / 9, nil
	case from == "celsius" && to == "kelvin":
		return value + 273.15, nil
	case from == "kelvin" && to == "celsius":
		return value - 273.15, nil
	}
	c, err := convertTemperature(value, from, "celsius")
	if err != nil {
		return 0, err
	}
	return convertTemperature(c, "celsius", to)
}

func validTemperatureUnit(name string) bool {
	return name == "celsius" || name == "fahrenheit" || name == "kelvin"
}

// Lookup reports which category, if any, contains both unit names. Used when
// parsing free-text conversion queries where the category is not spelled out.
func Lookup(from, to string) (Category, bool) {
	if validTemperatureUnit(from) && validTemperatureUnit(to) {
		return Temperature, true
	}
	for category, table := range factors {
		_, okFrom := table[from]
		_, okTo := table[to]
		if okFrom && okTo {
			return category, true
		}
	}
	return "", false
}

// State is the live converter's input; Recompute is the pure function the
// presentation layer calls on any field change instead of a hidden reactive
// effect.
type State struct {
	Value    float64
	From     string
	To       string
	Category Category
}

type Result struct {
	Value     float64
	Formatted string
}

func Recompute(s State) (Result, error) {
	v, err := Convert(s.Value, s.From, s.To, s.Category)
	if err != nil {
		return Result{}, err
	}
	// 4 decimal places, matching the converter card's display.
	rounded := math.Round(v*10000) / 10000
	return Result{Value: v, Formatted: fmt.Sprintf("%.4f", rounded)}, nil
}
