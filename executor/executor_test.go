package executor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-screener/models"
	"stock-screener/query"
)

func fixture() []models.Stock {
	return []models.Stock{
		{Symbol: "TCS", Sector: "Technology", Metrics: map[string]float64{"pe": 30, "roe": 45, "marketCap": 14e12}},
		{Symbol: "ONGC", Sector: "Energy", Metrics: map[string]float64{"pe": 7, "roe": 15, "marketCap": 3e12}},
		{Symbol: "COALINDIA", Sector: "Energy", Metrics: map[string]float64{"pe": 8.4, "roe": 52.3, "marketCap": 2.6e12}},
		{Symbol: "VEDL", Sector: "Metals & Mining", Metrics: map[string]float64{"pe": 11.3, "roe": 25.7}},
		{Symbol: "SBIN", Sector: "Banking", Metrics: map[string]float64{"pe": 9.5, "marketCap": 7e12}},
		{Symbol: "ICICIBANK", Sector: "Banking", Metrics: map[string]float64{"pe": 18, "roe": 17, "marketCap": 8e12}},
	}
}

func symbols(stocks []models.Stock) []string {
	out := make([]string, len(stocks))
	for i, s := range stocks {
		out[i] = s.Symbol
	}
	return out
}

func TestExecuteFilters(t *testing.T) {
	q := &query.ScreenerQuery{
		Filters: []query.Filter{
			{Field: "pe", Operator: query.OpLess, Value: 15.0},
			{Field: "roe", Operator: query.OpGreater, Value: 20.0},
		},
		Limit: 20,
	}
	res := Execute(q, fixture())
	require.True(t, res.Success)
	assert.Equal(t, []string{"COALINDIA", "VEDL"}, symbols(res.Data))
	assert.Equal(t, 2, res.Total)
	assert.GreaterOrEqual(t, res.ExecutionTime, 0.0)
}

func TestExecuteSectorsAndSymbols(t *testing.T) {
	q := &query.ScreenerQuery{
		Include: &query.Selection{Sectors: []string{"energy", "BANK"}},
		Exclude: &query.Selection{Symbols: []string{"sbin"}},
	}
	res := Execute(q, fixture())
	require.True(t, res.Success)
	assert.Equal(t, []string{"ONGC", "COALINDIA", "ICICIBANK"}, symbols(res.Data))

	q = &query.ScreenerQuery{Exclude: &query.Selection{Sectors: []string{"Energy"}}}
	res = Execute(q, fixture())
	assert.NotContains(t, symbols(res.Data), "ONGC")
	assert.NotContains(t, symbols(res.Data), "COALINDIA")
	assert.Equal(t, 4, res.Total)
}

func TestExecuteSortAndPaging(t *testing.T) {
	q := &query.ScreenerQuery{
		Sort:   &query.Sort{Field: "marketCap", Order: query.Desc},
		Limit:  2,
		Offset: 1,
	}
	res := Execute(q, fixture())
	require.True(t, res.Success)
	assert.Equal(t, 6, res.Total, "total is counted before limiting")
	assert.Equal(t, []string{"ICICIBANK", "SBIN"}, symbols(res.Data))

	q = &query.ScreenerQuery{Sort: &query.Sort{Field: "marketCap", Order: query.Asc}}
	res = Execute(q, fixture())
	assert.Equal(t, "VEDL", res.Data[len(res.Data)-1].Symbol, "missing values sort last")
	assert.Equal(t, "COALINDIA", res.Data[0].Symbol)

	q = &query.ScreenerQuery{Offset: 10}
	res = Execute(q, fixture())
	assert.Empty(t, res.Data)
	assert.Equal(t, 6, res.Total)
}

func TestExecuteDoesNotMutateUniverse(t *testing.T) {
	universe := fixture()
	Execute(&query.ScreenerQuery{Sort: &query.Sort{Field: "pe", Order: query.Asc}}, universe)
	assert.Equal(t, symbols(fixture()), symbols(universe))
}

func TestExecuteMalformedFilter(t *testing.T) {
	q := &query.ScreenerQuery{Filters: []query.Filter{{Field: "pe", Operator: query.OpBetween, Value: 1.0}}}
	res := Execute(q, fixture())
	assert.False(t, res.Success)
	assert.True(t, errors.Is(res.Err, ErrMalformedFilter))
	assert.NotEmpty(t, res.Message)
}

func TestExecuteUnknownOperatorIsIgnored(t *testing.T) {
	q := &query.ScreenerQuery{Filters: []query.Filter{{Field: "pe", Operator: "roughly", Value: 10.0}}}
	res := Execute(q, fixture())
	require.True(t, res.Success)
	assert.Equal(t, 6, res.Total)
	require.Len(t, res.Ignored, 1)
	assert.Equal(t, query.Operator("roughly"), res.Ignored[0].Operator)
}

func TestTotalNonIncreasingAsFiltersAreAdded(t *testing.T) {
	all := []query.Filter{
		{Field: "pe", Operator: query.OpLess, Value: 20.0},
		{Field: "roe", Operator: query.OpGreater, Value: 10.0},
		{Field: "marketCap", Operator: query.OpGreaterEqual, Value: 1e12},
		{Field: "sector", Operator: query.OpNotEqual, Value: "Banking"},
		{Field: "pe", Operator: query.OpBetween, Value: 5.0, ValueEnd: 8.0},
	}
	prev := len(fixture())
	for i := range all {
		res := Execute(&query.ScreenerQuery{Filters: all[:i+1]}, fixture())
		require.True(t, res.Success)
		assert.LessOrEqual(t, res.Total, prev, "after %d filters", i+1)
		prev = res.Total
	}
	assert.Equal(t, 1, prev)
}
