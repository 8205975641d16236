package intent

import (
	"regexp"
	"strings"
)

// Intent is the classified purpose of a free-text query.
type Intent int

const (
	None Intent = iota
	Calculator
	Clock
	Date
	Translate
	CurrencyConvert
	UnitConvert
)

func (i Intent) String() string {
	switch i {
	case Calculator:
		return "calculator"
	case Clock:
		return "clock"
	case Date:
		return "date"
	case Translate:
		return "translate"
	case CurrencyConvert:
		return "currency"
	case UnitConvert:
		return "unit"
	default:
		return "none"
	}
}

var (
	// A query consisting only of digits, whitespace and arithmetic symbols is
	// treated as a calculator expression. A bare number like "100" matches too;
	// that is intentional: it opens the calculator pre-filled with the value.
	arithmeticRe = regexp.MustCompile(`^[0-9\s+\-*/().%]+$`)

	// Matches patterns like "usd to eur" anywhere in the (lowercased) query.
	currencyPairRe = regexp.MustCompile(`\b[a-z]{3}\s+to\s+[a-z]{3}\b`)
)

var calculatorKeywords = []string{"calculator", "calc", "calculate"}

var clockKeywords = []string{"time", "clock", "what time is it", "current time"}

var dateKeywords = []string{"date", "today", "what day is it", "current date", "today's date"}

var translateKeywords = []string{"translate", "translation"}

var currencyKeywords = []string{
	"usd to", "eur to", "gbp to", "jpy to", "cad to", "aud to",
	"currency", "exchange rate",
}

var unitKeywords = []string{
	"convert",
	"km to miles", "miles to km",
	"celsius to fahrenheit", "fahrenheit to celsius",
	"kg to pounds", "pounds to kg",
	"liters to gallons", "gallons to liters",
}

// Classify normalizes a raw query and maps it to at most one Intent. Predicates
// are evaluated in a fixed priority order and the first match wins, so earlier
// intents shadow later ones on overlapping triggers. Pure and deterministic.
func Classify(query string) Intent {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return None
	}

	switch {
	case containsAny(q, calculatorKeywords) || arithmeticRe.MatchString(q):
		return Calculator
	case containsAny(q, clockKeywords):
		return Clock
	case containsAny(q, dateKeywords):
		return Date
	case containsAny(q, translateKeywords):
		return Translate
	case containsAny(q, currencyKeywords) || currencyPairRe.MatchString(q):
		return CurrencyConvert
	case containsAny(q, unitKeywords):
		return UnitConvert
	default:
		return None
	}
}

func containsAny(q string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
