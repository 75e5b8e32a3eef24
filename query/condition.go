package query

import (
	"strconv"
	"strings"
)

// Match evaluates the filter against one attribute value. present is false
// when the row has no value for the field; such rows never pass. Unknown
// operators pass every row, callers detect them with Operator.Known.
func (f Filter) Match(v any, present bool) bool {
	if !present || v == nil {
		return false
	}
	if !f.Operator.Known() {
		return true
	}

	switch f.Operator {
	case OpIn, OpNotIn:
		found := inList(v, f.Value)
		if f.Operator == OpIn {
			return found
		}
		return !found
	case OpContains:
		return strings.Contains(strings.ToLower(toString(v)), strings.ToLower(toString(f.Value)))
	case OpBetween:
		x, ok := toFloat(v)
		lo, ok1 := toFloat(f.Value)
		hi, ok2 := toFloat(f.ValueEnd)
		if !ok || !ok1 || !ok2 {
			return false
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		return x >= lo && x <= hi
	}

	x, xNum := toFloat(v)
	y, yNum := toFloat(f.Value)
	if xNum && yNum {
		switch f.Operator {
		case OpGreater:
			return x > y
		case OpLess:
			return x < y
		case OpGreaterEqual:
			return x >= y
		case OpLessEqual:
			return x <= y
		case OpEqual:
			return x == y
		case OpNotEqual:
			return x != y
		}
		return false
	}

	a := strings.ToLower(toString(v))
	b := strings.ToLower(toString(f.Value))
	switch f.Operator {
	case OpEqual:
		return a == b
	case OpNotEqual:
		return a != b
	case OpGreater:
		return a > b
	case OpLess:
		return a < b
	case OpGreaterEqual:
		return a >= b
	case OpLessEqual:
		return a <= b
	}
	return false
}

// Malformed reports a filter that cannot be evaluated at all.
func (f Filter) Malformed() bool {
	if f.Field == "" {
		return true
	}
	switch f.Operator {
	case OpBetween:
		return f.Value == nil || f.ValueEnd == nil
	case OpIn, OpNotIn:
		_, ok := listOf(f.Value)
		return !ok
	}
	return f.Value == nil
}

func inList(v any, list any) bool {
	items, ok := listOf(list)
	if !ok {
		return false
	}
	s := strings.ToLower(toString(v))
	for _, it := range items {
		if strings.ToLower(strings.TrimSpace(it)) == s {
			return true
		}
	}
	return false
}

// listOf accepts both []string and the []any produced by encoding/json.
func listOf(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			out = append(out, toString(it))
		}
		return out, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	}
	return formatValue(v)
}
