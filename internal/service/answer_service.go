package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"searchhub/backend/internal/answers/calc"
	"searchhub/backend/internal/answers/clock"
	"searchhub/backend/internal/answers/units"
	"searchhub/backend/internal/currency"
	app_errors "searchhub/backend/internal/errors"
	"searchhub/backend/internal/intent"
	"searchhub/backend/internal/model"
)

var (
	// "150 usd to eur", "usd to eur" (amount defaults to 1)
	currencyQueryRe = regexp.MustCompile(`(?:(\d+(?:\.\d+)?)\s*)?\b([a-z]{3})\s+to\s+([a-z]{3})\b`)

	// "convert 5 km to miles", "5 kilometers to miles"
	unitQueryRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([a-z]+)\s+to\s+([a-z]+)`)

	pureExpressionRe = regexp.MustCompile(`^[0-9\s+\-*/().%]+$`)
)

// unitAliases maps the short unit spellings people type into the table names.
var unitAliases = map[string]string{
	"km":  "kilometers",
	"m":   "meters",
	"cm":  "centimeters",
	"mi":  "miles",
	"ft":  "feet",
	"in":  "inches",
	"kg":  "kilograms",
	"g":   "grams",
	"lb":  "pounds",
	"lbs": "pounds",
	"oz":  "ounces",
	"l":   "liters",
	"ml":  "milliliters",
	"gal": "gallons",
	"c":   "celsius",
	"f":   "fahrenheit",
	"k":   "kelvin",
}

// AnswerService turns a free-text query into a rendering decision: the
// classified intent plus an instant answer where the query carries enough
// information to compute one. Parse failures degrade to intent-only answers;
// ambiguity is never an error.
type AnswerService struct {
	converter *currency.Converter
	now       func() time.Time
}

func NewAnswerService(converter *currency.Converter) *AnswerService {
	return &AnswerService{converter: converter, now: time.Now}
}

// Calculate evaluates an arithmetic expression for the calculator endpoint.
func (s *AnswerService) Calculate(expression string) (float64, error) {
	result, err := calc.Evaluate(expression)
	if err != nil {
		return 0, fmt.Errorf("%w: could not evaluate expression", app_errors.ErrValidation)
	}
	return result, nil
}

// ConvertUnits runs one unit conversion through the same pure function the
// live converter widget uses.
func (s *AnswerService) ConvertUnits(value float64, from, to string, category string) (units.Result, error) {
	result, err := units.Recompute(units.State{
		Value:    value,
		From:     canonicalUnit(from),
		To:       canonicalUnit(to),
		Category: units.Category(category),
	})
	if err != nil {
		return units.Result{}, fmt.Errorf("%w: %s", app_errors.ErrValidation, err)
	}
	return result, nil
}

// ConvertCurrency converts an amount between two currency codes, hitting the
// rate cache first.
func (s *AnswerService) ConvertCurrency(ctx context.Context, amount float64, from, to string) (float64, error) {
	return s.converter.Convert(ctx, amount, from, to)
}

// Currencies exposes the converter's catalogue for the currency picker.
func (s *AnswerService) Currencies(ctx context.Context) map[string]currency.Currency {
	return s.converter.Currencies(ctx)
}

func (s *AnswerService) Answer(ctx context.Context, query string) *model.Answer {
	classified := intent.Classify(query)
	answer := &model.Answer{Query: query, Intent: classified.String()}
	q := strings.ToLower(strings.TrimSpace(query))

	switch classified {
	case intent.Calculator:
		s.fillCalc(answer, q)
	case intent.Clock, intent.Date:
		snapshot := clock.Take(s.now())
		answer.Clock = &model.ClockAnswer{
			Time:      snapshot.Time,
			Date:      snapshot.Date,
			DayOfYear: snapshot.DayOfYear,
			ISOWeek:   snapshot.ISOWeek,
		}
	case intent.CurrencyConvert:
		s.fillCurrency(ctx, answer, q)
	case intent.UnitConvert:
		s.fillUnit(answer, q)
	}
	return answer
}

func (s *AnswerService) fillCalc(answer *model.Answer, q string) {
	if !pureExpressionRe.MatchString(q) {
		// Keyword-triggered: the calculator opens empty.
		return
	}
	result, err := calc.Evaluate(q)
	if err != nil {
		return
	}
	answer.Calc = &model.CalcAnswer{Expression: q, Result: result}
}

func (s *AnswerService) fillCurrency(ctx context.Context, answer *model.Answer, q string) {
	m := currencyQueryRe.FindStringSubmatch(q)
	if m == nil {
		return
	}
	amount := 1.0
	if m[1] != "" {
		parsed, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return
		}
		amount = parsed
	}
	from, to := m[2], m[3]
	result, err := s.converter.Convert(ctx, amount, from, to)
	if err != nil {
		// The widget still opens; the conversion surface shows its own error.
		return
	}
	answer.Currency = &model.CurrencyAnswer{
		Amount: amount,
		From:   strings.ToUpper(from),
		To:     strings.ToUpper(to),
		Result: result,
	}
}

func (s *AnswerService) fillUnit(answer *model.Answer, q string) {
	m := unitQueryRe.FindStringSubmatch(q)
	if m == nil {
		return
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return
	}
	from := canonicalUnit(m[2])
	to := canonicalUnit(m[3])
	category, ok := units.Lookup(from, to)
	if !ok {
		return
	}
	result, err := units.Convert(value, from, to, category)
	if err != nil {
		return
	}
	answer.Unit = &model.UnitAnswer{
		Value:    value,
		From:     from,
		To:       to,
		Category: string(category),
		Result:   result,
	}
}

func canonicalUnit(name string) string {
	if alias, ok := unitAliases[name]; ok {
		return alias
	}
	return name
}
