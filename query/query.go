// Package query holds the structured query types shared by the translator,
// executor and conversation context, plus the condition evaluator.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"stock-screener/fields"
)

// Operator is a filter comparison operator.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpBetween      Operator = "between"
	OpIn           Operator = "in"
	OpNotIn        Operator = "not_in"
	OpContains     Operator = "contains"
)

// Known reports whether op is one of the supported operators.
func (op Operator) Known() bool {
	switch op {
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpEqual, OpNotEqual,
		OpBetween, OpIn, OpNotIn, OpContains:
		return true
	}
	return false
}

// Filter is a single condition on a field. Value holds a float64, a string
// or a []string depending on the operator and field type.
type Filter struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
	ValueEnd any      `json:"valueEnd,omitempty"`
}

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sort orders results by one field.
type Sort struct {
	Field string `json:"field"`
	Order Order  `json:"order"`
}

// Selection names sectors and symbols to include or exclude.
type Selection struct {
	Sectors []string `json:"sectors,omitempty"`
	Symbols []string `json:"symbols,omitempty"`
}

// Empty reports whether the selection names nothing.
func (s *Selection) Empty() bool {
	return s == nil || (len(s.Sectors) == 0 && len(s.Symbols) == 0)
}

// ScreenerQuery is the single unit of "what to compute".
type ScreenerQuery struct {
	Filters []Filter   `json:"filters"`
	Sort    *Sort      `json:"sort,omitempty"`
	Limit   int        `json:"limit,omitempty"`
	Offset  int        `json:"offset,omitempty"`
	Include *Selection `json:"include,omitempty"`
	Exclude *Selection `json:"exclude,omitempty"`
	// Dropped lists phrases whose field or value could not be resolved.
	Dropped []string `json:"dropped,omitempty"`
}

// Clone returns a deep copy so refinements never alias a prior query.
func (q *ScreenerQuery) Clone() *ScreenerQuery {
	if q == nil {
		return &ScreenerQuery{}
	}
	out := &ScreenerQuery{
		Filters: append([]Filter(nil), q.Filters...),
		Limit:   q.Limit,
		Offset:  q.Offset,
		Dropped: append([]string(nil), q.Dropped...),
	}
	if q.Sort != nil {
		s := *q.Sort
		out.Sort = &s
	}
	out.Include = q.Include.clone()
	out.Exclude = q.Exclude.clone()
	return out
}

func (s *Selection) clone() *Selection {
	if s == nil {
		return nil
	}
	return &Selection{
		Sectors: append([]string(nil), s.Sectors...),
		Symbols: append([]string(nil), s.Symbols...),
	}
}

// String renders a filter the way the interpretation sentence shows it.
func (f Filter) String() string {
	label := fields.Label(f.Field)
	unit := ""
	if d, ok := fields.Lookup(f.Field); ok && d.Unit == "%" {
		unit = "%"
	}
	switch f.Operator {
	case OpBetween:
		return fmt.Sprintf("%s between %s%s and %s%s", label, formatValue(f.Value), unit, formatValue(f.ValueEnd), unit)
	case OpIn:
		return fmt.Sprintf("%s in (%s)", label, formatValue(f.Value))
	case OpNotIn:
		return fmt.Sprintf("%s not in (%s)", label, formatValue(f.Value))
	case OpContains:
		return fmt.Sprintf("%s contains %q", label, formatValue(f.Value))
	}
	return fmt.Sprintf("%s %s %s%s", label, f.Operator, formatValue(f.Value), unit)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case float64:
		return formatNumber(t)
	case []string:
		return strings.Join(t, ", ")
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func formatNumber(f float64) string {
	abs := f
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e12:
		return strconv.FormatFloat(f/1e12, 'f', -1, 64) + "T"
	case abs >= 1e9:
		return strconv.FormatFloat(f/1e9, 'f', -1, 64) + "B"
	case abs >= 1e6:
		return strconv.FormatFloat(f/1e6, 'f', -1, 64) + "M"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
