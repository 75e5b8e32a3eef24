// Package values converts textual magnitudes, percentages and time periods
// into numbers. Every parser reports failure through its bool result and
// never substitutes zero for an unparseable input.
package values

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	magnitudeRe = regexp.MustCompile(`^([-+]?\d+(?:\.\d+)?)([KMBT])?$`)
	periodRe    = regexp.MustCompile(`(?i)^(\d+)\s*(years?|yrs?|y|months?|mos?|mths?|m|weeks?|wks?|w|days?|d)$`)
)

var suffixExp = map[string]int32{
	"K": 3,
	"M": 6,
	"B": 9,
	"T": 12,
}

// ParseMagnitude parses "5B", "₹100M", "1,200" and friends.
func ParseMagnitude(text string) (float64, bool) {
	s := strings.ToUpper(strings.TrimSpace(text))
	s = strings.NewReplacer(
		"$", "", "₹", "", "€", "", "£", "", "RS.", "", "RS", "", "INR", "", "USD", "",
		",", "", "_", "", " ", "",
	).Replace(s)
	m := magnitudeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil {
		return 0, false
	}
	if exp, ok := suffixExp[m[2]]; ok {
		d = d.Shift(exp)
	}
	f, _ := d.Float64()
	return f, true
}

// ParsePercentage parses "6%", "6 percent" or "6.5".
func ParsePercentage(text string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.HasSuffix(s, "%"):
		s = strings.TrimSuffix(s, "%")
	case strings.HasSuffix(s, "percent"):
		s = strings.TrimSuffix(s, "percent")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Unit is a calendar unit of a Period.
type Unit string

const (
	Year  Unit = "year"
	Month Unit = "month"
	Week  Unit = "week"
	Day   Unit = "day"
)

// Period is a count of calendar units, e.g. 3 years.
type Period struct {
	Value int  `json:"value"`
	Unit  Unit `json:"unit"`
}

// Years expresses the period as a fractional number of years.
func (p Period) Years() float64 {
	switch p.Unit {
	case Year:
		return float64(p.Value)
	case Month:
		return float64(p.Value) / 12
	case Week:
		return float64(p.Value) / 52
	case Day:
		return float64(p.Value) / 365
	}
	return 0
}

// ParseTimePeriod parses "3 years", "6m", "2 wks".
func ParseTimePeriod(text string) (Period, bool) {
	m := periodRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Period{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Period{}, false
	}
	var unit Unit
	switch u := strings.ToLower(m[2]); {
	case strings.HasPrefix(u, "y"):
		unit = Year
	case strings.HasPrefix(u, "m"):
		unit = Month
	case strings.HasPrefix(u, "w"):
		unit = Week
	default:
		unit = Day
	}
	return Period{Value: n, Unit: unit}, true
}

// ParseNumber applies the number-field coercion order: magnitude first,
// then percentage, then a plain float.
func ParseNumber(text string) (float64, bool) {
	if v, ok := ParseMagnitude(text); ok {
		return v, true
	}
	if v, ok := ParsePercentage(text); ok {
		return v, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var magnitudes = []struct {
	exp    int32
	suffix string
}{{12, "T"}, {9, "B"}, {6, "M"}}

// Format renders v for display: percentages get two decimals and a "%",
// amounts of a million or more get a T, B or M suffix.
func Format(v float64, unit string) string {
	d := decimal.NewFromFloat(v)
	if unit == "%" {
		return d.StringFixed(2) + "%"
	}
	abs := d.Abs()
	for _, m := range magnitudes {
		if abs.GreaterThanOrEqual(decimal.New(1, m.exp)) {
			return d.Shift(-m.exp).StringFixed(2) + m.suffix
		}
	}
	return d.Round(2).String()
}
