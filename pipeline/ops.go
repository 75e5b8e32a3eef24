package pipeline

import (
	"math"
	"sort"
	"strings"

	"stock-screener/query"
)

// Filter keeps rows that satisfy every condition. A row without a value for
// a condition's field fails that condition.
func Filter(rows []Row, conds []query.Filter) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		keep := true
		for _, c := range conds {
			v, ok := r[c.Field]
			if !c.Match(v, ok) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

// SortKey is one key of a multi-key sort.
type SortKey struct {
	Field string
	Order query.Order
}

// Sort stable-sorts rows by keys in priority order. Rows missing a key's
// value sort after rows that have it, whatever the direction.
func Sort(rows []Row, keys ...SortKey) []Row {
	out := append([]Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			if c := compareRows(out[i], out[j], k); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return out
}

// compareRows orders a before b (negative) or after (positive) for one key.
func compareRows(a, b Row, k SortKey) int {
	av, aok := a[k.Field]
	bv, bok := b[k.Field]
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}
	var c int
	af, aNum := a.Number(k.Field)
	bf, bNum := b.Number(k.Field)
	switch {
	case aNum && bNum:
		switch {
		case af < bf:
			c = -1
		case af > bf:
			c = 1
		}
	case aNum != bNum:
		// numbers before text
		if aNum {
			return -1
		}
		return 1
	default:
		c = strings.Compare(strings.ToLower(asString(av)), strings.ToLower(asString(bv)))
	}
	if k.Order == query.Desc {
		c = -c
	}
	return c
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// Limit returns at most n rows starting at offset. n <= 0 means no limit.
func Limit(rows []Row, n, offset int) []Row {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []Row{}
	}
	rows = rows[offset:]
	if n > 0 && n < len(rows) {
		rows = rows[:n]
	}
	return append([]Row(nil), rows...)
}

// Rank sorts rows by field and writes the 1-based position into as.
func Rank(rows []Row, field string, order query.Order, as string) []Row {
	sorted := Sort(rows, SortKey{Field: field, Order: order})
	out := make([]Row, len(sorted))
	for i, r := range sorted {
		out[i] = r.with(as, float64(i+1))
	}
	return out
}

// Factor is one scoring input.
type Factor struct {
	Field         string   `json:"field" yaml:"field"`
	Weight        float64  `json:"weight" yaml:"weight"`
	LowerIsBetter bool     `json:"lowerIsBetter,omitempty" yaml:"lower_is_better"`
	Min           *float64 `json:"min,omitempty" yaml:"min"`
	Max           *float64 `json:"max,omitempty" yaml:"max"`
}

// Score min-max normalizes each factor over the current rows to 0-100,
// inverts lower-is-better factors, halves the value when the raw number
// breaches Min or Max, and writes the weighted average into as. Factors a
// row has no value for are left out of that row's average; a row with no
// scorable factor scores 0. A zero weight counts as 1.
func Score(rows []Row, factors []Factor, as string) []Row {
	type bounds struct{ lo, hi float64 }
	b := make([]bounds, len(factors))
	for i, f := range factors {
		lo, hi := minMax(numbers(rows, f.Field))
		b[i] = bounds{lo, hi}
	}

	out := make([]Row, len(rows))
	for ri, r := range rows {
		var sum, weights float64
		for i, f := range factors {
			w := f.Weight
			if w <= 0 {
				w = 1
			}
			v, ok := r.Number(f.Field)
			if !ok {
				continue
			}
			n := 50.0
			if span := b[i].hi - b[i].lo; span > 0 {
				n = (v - b[i].lo) / span * 100
			}
			if f.LowerIsBetter {
				n = 100 - n
			}
			if (f.Min != nil && v < *f.Min) || (f.Max != nil && v > *f.Max) {
				n *= 0.5
			}
			sum += n * w
			weights += w
		}
		if weights == 0 {
			out[ri] = r.with(as, 0.0)
			continue
		}
		out[ri] = r.with(as, clamp(sum/weights, 0, 100))
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Calculate evaluates formula per row and writes the result into as. Rows
// where evaluation fails get no value.
func Calculate(rows []Row, formula, as string) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		if v, ok := Evaluate(formula, r); ok {
			out[i] = r.with(as, v)
		} else {
			out[i] = r.with(as, nil)
		}
	}
	return out
}

// CompareMode selects how Compare relates a value to its benchmark.
type CompareMode string

const (
	CompareAbsolute   CompareMode = "absolute"
	CompareRelative   CompareMode = "relative"
	ComparePercentile CompareMode = "percentile"
	CompareZScore     CompareMode = "zscore"
)

// Compare writes the row's field value relative to a benchmark into as.
// Absolute and relative modes use benchmark when given, otherwise the pool
// mean; percentile and zscore always use the pool.
func Compare(rows []Row, field string, mode CompareMode, benchmark *float64, as string) []Row {
	pool := numbers(rows, field)
	mean, std := meanStd(pool)
	ref := mean
	if benchmark != nil {
		ref = *benchmark
	}

	out := make([]Row, len(rows))
	for i, r := range rows {
		v, ok := r.Number(field)
		if !ok || len(pool) == 0 {
			out[i] = r.with(as, nil)
			continue
		}
		var res any
		switch mode {
		case CompareAbsolute:
			res = v - ref
		case CompareRelative:
			if ref != 0 {
				res = (v - ref) / math.Abs(ref) * 100
			}
		case ComparePercentile:
			below := 0
			for _, p := range pool {
				if p < v {
					below++
				}
			}
			res = float64(below) / float64(len(pool)) * 100
		case CompareZScore:
			if std > 0 {
				res = (v - mean) / std
			} else {
				res = 0.0
			}
		}
		out[i] = r.with(as, res)
	}
	return out
}

// JoinKind selects the rows Merge keeps.
type JoinKind string

const (
	InnerJoin JoinKind = "inner"
	LeftJoin  JoinKind = "left"
	OuterJoin JoinKind = "outer"
)

// Merge joins two row sets on key. Columns of right overwrite columns of
// left on conflict. Left row order is kept; unmatched right rows of an
// outer join follow in their own order.
func Merge(left, right []Row, key string, kind JoinKind) []Row {
	index := make(map[string][]Row)
	var order []string
	for _, r := range right {
		k := keyOf(r, key)
		if _, seen := index[k]; !seen {
			order = append(order, k)
		}
		index[k] = append(index[k], r)
	}

	matched := make(map[string]bool)
	var out []Row
	for _, l := range left {
		k := keyOf(l, key)
		rs, ok := index[k]
		if !ok {
			if kind != InnerJoin {
				out = append(out, l.Clone())
			}
			continue
		}
		matched[k] = true
		for _, r := range rs {
			m := l.Clone()
			for c, v := range r {
				m[c] = v
			}
			out = append(out, m)
		}
	}
	if kind == OuterJoin {
		for _, k := range order {
			if matched[k] {
				continue
			}
			for _, r := range index[k] {
				out = append(out, r.Clone())
			}
		}
	}
	return out
}

func keyOf(r Row, key string) string {
	switch v := r[key].(type) {
	case string:
		return strings.ToUpper(v)
	case float64:
		return formatKey(v)
	}
	return ""
}

// TransformKind names a unary numeric function.
type TransformKind string

const (
	TransformLog     TransformKind = "log"
	TransformSqrt    TransformKind = "sqrt"
	TransformSquare  TransformKind = "square"
	TransformAbs     TransformKind = "abs"
	TransformRound   TransformKind = "round"
	TransformCeil    TransformKind = "ceil"
	TransformFloor   TransformKind = "floor"
	TransformPercent TransformKind = "percent"
)

// Transform applies a unary function to field and writes the result into
// as. Inputs outside the function's domain produce no value.
func Transform(rows []Row, field string, kind TransformKind, as string) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		v, ok := r.Number(field)
		if !ok {
			out[i] = r.with(as, nil)
			continue
		}
		var res float64
		switch kind {
		case TransformLog:
			res = math.Log(v)
		case TransformSqrt:
			res = math.Sqrt(v)
		case TransformSquare:
			res = v * v
		case TransformAbs:
			res = math.Abs(v)
		case TransformRound:
			res = math.Round(v)
		case TransformCeil:
			res = math.Ceil(v)
		case TransformFloor:
			res = math.Floor(v)
		case TransformPercent:
			res = v * 100
		default:
			res = v
		}
		if math.IsNaN(res) || math.IsInf(res, 0) {
			out[i] = r.with(as, nil)
			continue
		}
		out[i] = r.with(as, res)
	}
	return out
}

// NormalizeMode selects a normalization. MinMax, Percentile and Rank are
// bounded to 0-100; ZScore is unbounded and centred on 0.
type NormalizeMode string

const (
	NormalizeMinMax     NormalizeMode = "minmax"
	NormalizeZScore     NormalizeMode = "zscore"
	NormalizePercentile NormalizeMode = "percentile"
	NormalizeRank       NormalizeMode = "rank"
)

// Normalize rescales field over the pool of rows that have it.
func Normalize(rows []Row, field string, mode NormalizeMode, as string) []Row {
	pool := numbers(rows, field)
	lo, hi := minMax(pool)
	mean, std := meanStd(pool)
	sorted := append([]float64(nil), pool...)
	sort.Float64s(sorted)

	out := make([]Row, len(rows))
	for i, r := range rows {
		v, ok := r.Number(field)
		if !ok {
			out[i] = r.with(as, nil)
			continue
		}
		var res float64
		switch mode {
		case NormalizeZScore:
			if std > 0 {
				res = (v - mean) / std
			}
		case NormalizePercentile:
			less := sort.SearchFloat64s(sorted, v)
			equal := sort.Search(len(sorted), func(k int) bool { return sorted[k] > v }) - less
			res = (float64(less) + 0.5*float64(equal)) / float64(len(sorted)) * 100
		case NormalizeRank:
			if len(sorted) > 1 {
				res = float64(sort.SearchFloat64s(sorted, v)) / float64(len(sorted)-1) * 100
			} else {
				res = 50
			}
		default:
			if hi > lo {
				res = (v - lo) / (hi - lo) * 100
			} else {
				res = 50
			}
		}
		out[i] = r.with(as, res)
	}
	return out
}
