// Package pipeline is a library of composable operators over row sets plus
// a Builder that chains them into a plan. Operators never mutate their
// input rows: every operator that adds a column returns copies.
package pipeline

import (
	"math"
	"sort"

	"stock-screener/models"
)

// Row is one record of a row set, keyed by column name. Numeric columns
// hold float64, text columns hold string.
type Row map[string]any

// Number returns the finite float64 stored under field.
func (r Row) Number(field string) (float64, bool) {
	switch v := r[field].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// with returns a copy of r with field set to v, or removed when v is nil.
func (r Row) with(field string, v any) Row {
	out := r.Clone()
	if v == nil {
		delete(out, field)
	} else {
		out[field] = v
	}
	return out
}

// FromStocks converts stocks into rows.
func FromStocks(stocks []models.Stock) []Row {
	rows := make([]Row, len(stocks))
	for i, s := range stocks {
		rows[i] = Row(s.Row())
	}
	return rows
}

// Columns returns the sorted union of column names across rows.
func Columns(rows []Row) []string {
	seen := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func numbers(rows []Row, field string) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.Number(field); ok {
			out = append(out, v)
		}
	}
	return out
}

func minMax(xs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		std += (x - mean) * (x - mean)
	}
	std = math.Sqrt(std / float64(len(xs)))
	return mean, std
}
