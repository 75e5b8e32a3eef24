package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-screener/query"
)

func TestClassificationOrder(t *testing.T) {
	var names []string
	for _, r := range Rules {
		names = append(names, string(r.Type))
	}
	assert.Equal(t, []string{"watchlist", "alert", "comparison", "single_stock", "screener"}, names)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want query.Type
	}{
		{"add TCS to my watchlist", query.TypeWatchlist},
		{"alert me when INFY drops below 1400", query.TypeAlert},
		{"compare TCS vs INFY", query.TypeComparison},
		{"compare stocks with PE < 15", query.TypeComparison},
		{"TCS", query.TypeSingleStock},
		{"reliance", query.TypeSingleStock},
		{"how is HDFCBANK doing", query.TypeSingleStock},
		{"stocks with PE < 15 and ROE > 20%", query.TypeScreener},
		{"show me banking companies", query.TypeScreener},
		{"hello there", query.TypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestTranslateScreener(t *testing.T) {
	pq := New().Translate("stocks with PE < 15 and ROE > 20%", nil)

	require.Equal(t, query.TypeScreener, pq.Type)
	require.NotNil(t, pq.Screener)
	assert.False(t, pq.Refinement)
	assert.Equal(t, []query.Filter{
		{Field: "pe", Operator: query.OpLess, Value: 15.0},
		{Field: "roe", Operator: query.OpGreater, Value: 20.0},
	}, pq.Screener.Filters)
	assert.Equal(t, DefaultLimit, pq.Screener.Limit)
	assert.Nil(t, pq.Screener.Sort)
	assert.Nil(t, pq.Screener.Include)
	assert.Nil(t, pq.Screener.Exclude)
	assert.Empty(t, pq.Screener.Dropped)
}

func TestTranslateWordOperators(t *testing.T) {
	pq := New().Translate("show me stocks with pe at least 10 and roe above 15", nil)
	require.NotNil(t, pq.Screener)
	assert.Equal(t, []query.Filter{
		{Field: "pe", Operator: query.OpGreaterEqual, Value: 10.0},
		{Field: "roe", Operator: query.OpGreater, Value: 15.0},
	}, pq.Screener.Filters)
	assert.Nil(t, pq.Screener.Sort, "at least is an operator, not a superlative")
}

func TestTranslateMagnitudeAndBetween(t *testing.T) {
	pq := New().Translate("companies with market cap > 5B", nil)
	require.NotNil(t, pq.Screener)
	require.Len(t, pq.Screener.Filters, 1)
	assert.Equal(t, "marketCap", pq.Screener.Filters[0].Field)
	assert.Equal(t, 5e9, pq.Screener.Filters[0].Value)

	pq = New().Translate("stocks with pe between 10 and 20", nil)
	require.NotNil(t, pq.Screener)
	require.Len(t, pq.Screener.Filters, 1)
	f := pq.Screener.Filters[0]
	assert.Equal(t, query.OpBetween, f.Operator)
	assert.Equal(t, 10.0, f.Value)
	assert.Equal(t, 20.0, f.ValueEnd)
}

func TestTranslatePeriodReturns(t *testing.T) {
	tests := []struct {
		text  string
		field string
	}{
		{"stocks with 15% return in 3 years", "cagr3y"},
		{"stocks with 20% return in 1 year", "return1y"},
		{"stocks with 12% cagr over the last 5 years", "cagr3y"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			pq := New().Translate(tt.text, nil)
			require.NotNil(t, pq.Screener)
			require.Len(t, pq.Screener.Filters, 1)
			assert.Equal(t, tt.field, pq.Screener.Filters[0].Field)
			assert.Equal(t, query.OpGreaterEqual, pq.Screener.Filters[0].Operator)
		})
	}
}

func TestTranslateDropsUnresolvedField(t *testing.T) {
	pq := New().Translate("stocks with foo > 10", nil)
	require.NotNil(t, pq.Screener)
	assert.Empty(t, pq.Screener.Filters)
	assert.Equal(t, []string{"stocks with foo > 10"}, pq.Screener.Dropped)
}

func TestTranslateSectorsAndExclusions(t *testing.T) {
	pq := New().Translate("top 10 technology stocks sorted by market cap", nil)
	require.NotNil(t, pq.Screener)
	assert.Equal(t, 10, pq.Screener.Limit)
	require.NotNil(t, pq.Screener.Include)
	assert.Equal(t, []string{"Technology"}, pq.Screener.Include.Sectors)
	assert.Equal(t, &query.Sort{Field: "marketCap", Order: query.Desc}, pq.Screener.Sort)

	pq = New().Translate("banking stocks excluding HDFCBANK and ICICIBANK", nil)
	require.NotNil(t, pq.Screener)
	require.NotNil(t, pq.Screener.Include)
	assert.Equal(t, []string{"Banking"}, pq.Screener.Include.Sectors)
	require.NotNil(t, pq.Screener.Exclude)
	assert.Equal(t, []string{"HDFCBANK", "ICICIBANK"}, pq.Screener.Exclude.Symbols)
	assert.Empty(t, pq.Screener.Exclude.Sectors)
}

func TestTranslateVolumeTrend(t *testing.T) {
	pq := New().Translate("stocks with declining volume", nil)
	require.NotNil(t, pq.Screener)
	assert.Equal(t, []query.Filter{{Field: "volumeChange5d", Operator: query.OpLess, Value: 0.0}}, pq.Screener.Filters)
}

func TestInferSort(t *testing.T) {
	tests := []struct {
		text string
		want *query.Sort
	}{
		{"biggest companies", &query.Sort{Field: "marketCap", Order: query.Desc}},
		{"top gainers today", &query.Sort{Field: "return1d", Order: query.Desc}},
		{"worst losers", &query.Sort{Field: "return1d", Order: query.Asc}},
		{"lowest pe stocks", &query.Sort{Field: "pe", Order: query.Asc}},
		{"stocks sorted by pe", &query.Sort{Field: "pe", Order: query.Asc}},
		{"stocks sorted by roe ascending", &query.Sort{Field: "roe", Order: query.Asc}},
		{"top 10 stocks", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, inferSort(tt.text))
		})
	}
}

func TestRefinementMergesOntoPrior(t *testing.T) {
	tr := New()
	prior := tr.Translate("stocks with PE < 15 and ROE > 20%", nil)

	pq := tr.Translate("+1 exclude energy", &prior)
	require.Equal(t, query.TypeScreener, pq.Type)
	assert.True(t, pq.Refinement)
	require.NotNil(t, pq.Screener)
	assert.Equal(t, prior.Screener.Filters, pq.Screener.Filters)
	require.NotNil(t, pq.Screener.Exclude)
	assert.Equal(t, []string{"Energy"}, pq.Screener.Exclude.Sectors)
	assert.Equal(t, DefaultLimit, pq.Screener.Limit)

	// the prior query is not mutated
	assert.Nil(t, prior.Screener.Exclude)

	next := tr.Translate("+2 top 5 with debt < 1", &pq)
	assert.Len(t, next.Screener.Filters, 3)
	assert.Equal(t, []string{"Energy"}, next.Screener.Exclude.Sectors)
	assert.Equal(t, 5, next.Screener.Limit)
}

func TestRefinementDropsPriorOffset(t *testing.T) {
	tr := New()
	prior := tr.Translate("stocks with pe < 100 offset 3", nil)
	require.Equal(t, 3, prior.Screener.Offset)

	pq := tr.Translate("+1 exclude chemicals", &prior)
	assert.Zero(t, pq.Screener.Offset)
	assert.Equal(t, 3, prior.Screener.Offset)

	pq = tr.Translate("+1 skip 2", &prior)
	assert.Equal(t, 2, pq.Screener.Offset)
}

func TestRankedBySort(t *testing.T) {
	tests := []struct {
		text string
		want *query.Sort
	}{
		{"top 5 IT stocks by market cap", &query.Sort{Field: "marketCap", Order: query.Desc}},
		{"top 5 banking stocks by roe", &query.Sort{Field: "roe", Order: query.Desc}},
		{"lowest 3 stocks by pe", &query.Sort{Field: "pe", Order: query.Asc}},
		{"first 10 stocks by dividend yield ascending", &query.Sort{Field: "dividendYield", Order: query.Asc}},
		{"top 3 by roe", &query.Sort{Field: "roe", Order: query.Desc}},
		{"top 5 stocks by sector", nil},
		{"banking stocks by roe", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, inferSort(tt.text))
		})
	}

	pq := New().Translate("top 5 IT stocks by market cap", nil)
	require.NotNil(t, pq.Screener)
	assert.Equal(t, 5, pq.Screener.Limit)
	assert.Equal(t, &query.Sort{Field: "marketCap", Order: query.Desc}, pq.Screener.Sort)
	require.NotNil(t, pq.Screener.Include)
	assert.Equal(t, []string{"Technology"}, pq.Screener.Include.Sectors)

	prior := New().Translate("stocks with pe < 30", nil)
	pq = New().Translate("+1 top 3 by roe", &prior)
	assert.Equal(t, 3, pq.Screener.Limit)
	assert.Equal(t, &query.Sort{Field: "roe", Order: query.Desc}, pq.Screener.Sort)
}

func TestRefinementWithoutPrior(t *testing.T) {
	pq := New(WithDefaultLimit(50)).Translate("+1 roe > 10", nil)
	require.NotNil(t, pq.Screener)
	assert.True(t, pq.Refinement)
	assert.Equal(t, 50, pq.Screener.Limit)
	assert.Len(t, pq.Screener.Filters, 1)
}

func TestTranslatePayloads(t *testing.T) {
	tr := New()

	pq := tr.Translate("compare TCS vs INFY", nil)
	assert.Equal(t, []string{"TCS", "INFY"}, pq.Symbols)

	pq = tr.Translate("tcs versus infy", nil)
	assert.Equal(t, []string{"TCS", "INFY"}, pq.Symbols)

	pq = tr.Translate("TCS", nil)
	assert.Equal(t, query.TypeSingleStock, pq.Type)
	assert.Equal(t, []string{"TCS"}, pq.Symbols)

	pq = tr.Translate("add TCS and INFY to my watchlist", nil)
	require.NotNil(t, pq.Watchlist)
	assert.Equal(t, query.WatchlistAdd, pq.Watchlist.Action)
	assert.Equal(t, []string{"TCS", "INFY"}, pq.Watchlist.Symbols)

	pq = tr.Translate("remove INFY from watchlist", nil)
	require.NotNil(t, pq.Watchlist)
	assert.Equal(t, query.WatchlistRemove, pq.Watchlist.Action)

	pq = tr.Translate("show my watchlist", nil)
	require.NotNil(t, pq.Watchlist)
	assert.Equal(t, query.WatchlistShow, pq.Watchlist.Action)
	assert.Empty(t, pq.Watchlist.Symbols)

	pq = tr.Translate("alert me when INFY price drops below 1400", nil)
	require.NotNil(t, pq.Alert)
	assert.Equal(t, []string{"INFY"}, pq.Alert.Symbols)
	assert.Equal(t, []query.Filter{{Field: "price", Operator: query.OpLess, Value: 1400.0}}, pq.Alert.Conditions)

	pq = tr.Translate("hello there", nil)
	assert.Equal(t, query.TypeUnknown, pq.Type)
	assert.Nil(t, pq.Screener)
	assert.Equal(t, "hello there", pq.Raw)
}

func TestNormalizeOperator(t *testing.T) {
	assert.Equal(t, query.OpGreater, NormalizeOperator("greater than"))
	assert.Equal(t, query.OpGreaterEqual, NormalizeOperator("AT  LEAST"))
	assert.Equal(t, query.OpLess, NormalizeOperator("below"))
	assert.Equal(t, query.Operator("~~"), NormalizeOperator("~~"))
}
