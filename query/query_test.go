package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		v       any
		present bool
		want    bool
	}{
		{"greater", Filter{"pe", OpGreater, 10.0, nil}, 12.0, true, true},
		{"greater equal boundary", Filter{"pe", OpGreaterEqual, 12.0, nil}, 12.0, true, true},
		{"less fails", Filter{"pe", OpLess, 10.0, nil}, 12.0, true, false},
		{"less equal", Filter{"pe", OpLessEqual, 12.0, nil}, 12, true, true},
		{"equal", Filter{"pe", OpEqual, 12.0, nil}, 12.0, true, true},
		{"not equal", Filter{"pe", OpNotEqual, 12.0, nil}, 11.0, true, true},
		{"missing value never passes", Filter{"pe", OpNotEqual, 12.0, nil}, nil, false, false},
		{"nil value never passes", Filter{"pe", OpGreater, 0.0, nil}, nil, true, false},
		{"between", Filter{"pe", OpBetween, 10.0, 20.0}, 15.0, true, true},
		{"between inclusive", Filter{"pe", OpBetween, 10.0, 20.0}, 20.0, true, true},
		{"between reversed bounds", Filter{"pe", OpBetween, 20.0, 10.0}, 15.0, true, true},
		{"between outside", Filter{"pe", OpBetween, 10.0, 20.0}, 25.0, true, false},
		{"between missing end", Filter{"pe", OpBetween, 10.0, nil}, 15.0, true, false},
		{"in", Filter{"sector", OpIn, []string{"Banking", "Energy"}, nil}, "energy", true, true},
		{"in json list", Filter{"sector", OpIn, []any{"Banking"}, nil}, "Banking", true, true},
		{"not in", Filter{"sector", OpNotIn, []string{"Banking"}, nil}, "Energy", true, true},
		{"in with scalar list", Filter{"sector", OpIn, "Banking", nil}, "Banking", true, false},
		{"contains", Filter{"name", OpContains, "tata", nil}, "Tata Steel", true, true},
		{"string equal folds case", Filter{"sector", OpEqual, "banking", nil}, "Banking", true, true},
		{"string not equal", Filter{"sector", OpNotEqual, "Banking", nil}, "Energy", true, true},
		{"unknown operator passes", Filter{"pe", Operator("~"), 1.0, nil}, 5.0, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(tt.v, tt.present))
		})
	}
}

func TestFilterMalformed(t *testing.T) {
	assert.True(t, Filter{Operator: OpGreater, Value: 1.0}.Malformed())
	assert.True(t, Filter{Field: "pe", Operator: OpGreater}.Malformed())
	assert.True(t, Filter{Field: "pe", Operator: OpBetween, Value: 1.0}.Malformed())
	assert.True(t, Filter{Field: "sector", Operator: OpIn, Value: "Banking"}.Malformed())
	assert.False(t, Filter{Field: "sector", Operator: OpIn, Value: []string{"Banking"}}.Malformed())
	assert.False(t, Filter{Field: "pe", Operator: OpLess, Value: 15.0}.Malformed())
}

func TestOperatorKnown(t *testing.T) {
	for _, op := range []Operator{OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpEqual, OpNotEqual, OpBetween, OpIn, OpNotIn, OpContains} {
		assert.True(t, op.Known(), op)
	}
	assert.False(t, Operator("like").Known())
}

func TestFilterString(t *testing.T) {
	tests := []struct {
		filter Filter
		want   string
	}{
		{Filter{Field: "pe", Operator: OpLess, Value: 15.0}, "P/E < 15"},
		{Filter{Field: "roe", Operator: OpGreater, Value: 20.0}, "ROE > 20%"},
		{Filter{Field: "marketCap", Operator: OpGreater, Value: 1e12}, "Market Cap > 1T"},
		{Filter{Field: "pe", Operator: OpBetween, Value: 10.0, ValueEnd: 20.0}, "P/E between 10 and 20"},
		{Filter{Field: "sector", Operator: OpIn, Value: []string{"Banking", "Energy"}}, "Sector in (Banking, Energy)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.filter.String())
	}
}

func TestCloneIsDeep(t *testing.T) {
	q := &ScreenerQuery{
		Filters: []Filter{{Field: "pe", Operator: OpLess, Value: 15.0}},
		Sort:    &Sort{Field: "roe", Order: Desc},
		Limit:   20,
		Exclude: &Selection{Sectors: []string{"Energy"}},
	}
	c := q.Clone()
	require.Equal(t, q, c)

	c.Filters[0].Value = 30.0
	c.Sort.Order = Asc
	c.Exclude.Sectors[0] = "Banking"
	assert.Equal(t, 15.0, q.Filters[0].Value)
	assert.Equal(t, Desc, q.Sort.Order)
	assert.Equal(t, "Energy", q.Exclude.Sectors[0])

	assert.NotNil(t, (*ScreenerQuery)(nil).Clone())
	assert.True(t, (*Selection)(nil).Empty())
	assert.True(t, (&Selection{}).Empty())
}
