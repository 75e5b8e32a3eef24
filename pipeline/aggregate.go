package pipeline

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// AggFunc names an aggregation over one numeric field.
type AggFunc string

const (
	AggSum    AggFunc = "sum"
	AggAvg    AggFunc = "avg"
	AggMin    AggFunc = "min"
	AggMax    AggFunc = "max"
	AggCount  AggFunc = "count"
	AggMedian AggFunc = "median"
	AggStdDev AggFunc = "stddev"
	AggP25    AggFunc = "p25"
	AggP50    AggFunc = "p50"
	AggP75    AggFunc = "p75"
)

// Aggregation is one reduction of a field, stored under As.
type Aggregation struct {
	Field string
	Func  AggFunc
	As    string
}

func (a Aggregation) name() string {
	if a.As != "" {
		return a.As
	}
	return string(a.Func) + "_" + a.Field
}

// Aggregate reduces field over rows. Count counts rows that have the
// field; every other function reports false on an empty pool.
func Aggregate(rows []Row, field string, fn AggFunc) (float64, bool) {
	xs := numbers(rows, field)
	if fn == AggCount {
		return float64(len(xs)), true
	}
	if len(xs) == 0 {
		return 0, false
	}
	switch fn {
	case AggSum:
		var s float64
		for _, x := range xs {
			s += x
		}
		return s, true
	case AggAvg:
		m, _ := meanStd(xs)
		return m, true
	case AggMin:
		lo, _ := minMax(xs)
		return lo, true
	case AggMax:
		_, hi := minMax(xs)
		return hi, true
	case AggStdDev:
		_, sd := meanStd(xs)
		return sd, true
	case AggMedian, AggP50:
		return percentile(xs, 50), true
	case AggP25:
		return percentile(xs, 25), true
	case AggP75:
		return percentile(xs, 75), true
	}
	return 0, false
}

// percentile uses linear interpolation between closest ranks.
func percentile(xs []float64, p float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	if len(s) == 1 {
		return s[0]
	}
	pos := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return s[lo] + (s[hi]-s[lo])*(pos-float64(lo))
}

// Group partitions rows by the value of field. Rows without the field fall
// into the "" group. Keys keeps first-seen order.
type Group struct {
	Keys       []string
	Partitions map[string][]Row
}

// GroupBy partitions rows by field.
func GroupBy(rows []Row, field string) Group {
	g := Group{Partitions: make(map[string][]Row)}
	for _, r := range rows {
		k := groupKey(r[field])
		if _, ok := g.Partitions[k]; !ok {
			g.Keys = append(g.Keys, k)
		}
		g.Partitions[k] = append(g.Partitions[k], r)
	}
	return g
}

// Summarize reduces each partition to one row holding the group key under
// field, the partition size under "count" and one column per aggregation.
func (g Group) Summarize(field string, aggs []Aggregation) []Row {
	out := make([]Row, 0, len(g.Keys))
	for _, k := range g.Keys {
		part := g.Partitions[k]
		row := Row{field: k, "count": float64(len(part))}
		for _, a := range aggs {
			if v, ok := Aggregate(part, a.Field, a.Func); ok {
				row[a.name()] = v
			}
		}
		out = append(out, row)
	}
	return out
}

func groupKey(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatKey(t)
	}
	return ""
}

func formatKey(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// PivotAgg selects how Pivot combines values that share a cell.
type PivotAgg string

const (
	PivotSum PivotAgg = "sum"
	PivotAvg PivotAgg = "avg"
)

// Matrix is a row-by-column table of numeric cells. A nil cell has no data.
type Matrix struct {
	RowKeys []string     `json:"rows"`
	ColKeys []string     `json:"columns"`
	Cells   [][]*float64 `json:"cells"`
}

// Pivot builds a matrix of valueField keyed by the values of rowField and
// colField. Keys are sorted.
func Pivot(rows []Row, rowField, colField, valueField string, agg PivotAgg) Matrix {
	type cell struct {
		sum float64
		n   int
	}
	cells := make(map[[2]string]*cell)
	rowSet, colSet := map[string]bool{}, map[string]bool{}
	for _, r := range rows {
		v, ok := r.Number(valueField)
		if !ok {
			continue
		}
		rk, ck := groupKey(r[rowField]), groupKey(r[colField])
		rowSet[rk], colSet[ck] = true, true
		c := cells[[2]string{rk, ck}]
		if c == nil {
			c = &cell{}
			cells[[2]string{rk, ck}] = c
		}
		c.sum += v
		c.n++
	}

	m := Matrix{RowKeys: sortedKeys(rowSet), ColKeys: sortedKeys(colSet)}
	m.Cells = make([][]*float64, len(m.RowKeys))
	for i, rk := range m.RowKeys {
		m.Cells[i] = make([]*float64, len(m.ColKeys))
		for j, ck := range m.ColKeys {
			c := cells[[2]string{rk, ck}]
			if c == nil {
				continue
			}
			v := c.sum
			if agg == PivotAvg {
				v /= float64(c.n)
			}
			m.Cells[i][j] = &v
		}
	}
	return m
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
