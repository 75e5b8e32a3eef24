package models

import (
	"math"
	"strings"
)

// Stock is one entity record of the screening universe. Text attributes are
// plain fields; every numeric attribute lives in Metrics keyed by its
// canonical field name, and an absent key means the value is unknown.
type Stock struct {
	Symbol          string             `json:"symbol"`
	Name            string             `json:"name"`
	Exchange        string             `json:"exchange"`
	Sector          string             `json:"sector"`           // e.g., "Banking", "Technology", "Energy"
	Industry        string             `json:"industry"`         // e.g., "Software Services", "Private Banks"
	PopularityScore float64            `json:"popularity_score"` // 0.0 to 1.0, used for suggestion ranking
	Metrics         map[string]float64 `json:"metrics"`
}

// Number returns the numeric attribute stored under field.
// NaN and infinities are reported as absent.
func (s Stock) Number(field string) (float64, bool) {
	v, ok := s.Metrics[field]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Text returns one of the string attributes by canonical field name.
func (s Stock) Text(field string) (string, bool) {
	switch field {
	case "symbol":
		return s.Symbol, s.Symbol != ""
	case "name":
		return s.Name, s.Name != ""
	case "exchange":
		return s.Exchange, s.Exchange != ""
	case "sector":
		return s.Sector, s.Sector != ""
	case "industry":
		return s.Industry, s.Industry != ""
	}
	return "", false
}

// Value returns the attribute under field as either a float64 or a string.
func (s Stock) Value(field string) (any, bool) {
	if v, ok := s.Text(field); ok {
		return v, true
	}
	if v, ok := s.Number(field); ok {
		return v, true
	}
	return nil, false
}

// Row flattens the stock into a generic column map for the numeric pipeline.
func (s Stock) Row() map[string]any {
	row := make(map[string]any, len(s.Metrics)+5)
	row["symbol"] = s.Symbol
	row["name"] = s.Name
	row["sector"] = s.Sector
	if s.Industry != "" {
		row["industry"] = s.Industry
	}
	if s.Exchange != "" {
		row["exchange"] = s.Exchange
	}
	for k := range s.Metrics {
		if v, ok := s.Number(k); ok {
			row[k] = v
		}
	}
	return row
}

// InSector reports whether the stock's sector and name overlap in either
// direction, ignoring case.
func (s Stock) InSector(sector string) bool {
	a := strings.ToLower(s.Sector)
	b := strings.ToLower(strings.TrimSpace(sector))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Sanitize drops non-finite metrics so that every stored number is valid.
func (s *Stock) Sanitize() {
	for k, v := range s.Metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			delete(s.Metrics, k)
		}
	}
}
