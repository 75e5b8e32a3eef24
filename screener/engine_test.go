package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stock-screener/intent"
	"stock-screener/loader"
	"stock-screener/models"
	"stock-screener/query"
	"stock-screener/search"
)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	universe, err := loader.Sample()
	require.NoError(t, err)
	e, err := New(universe, append([]Option{WithLogger(zap.NewNop())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func symbols(stocks []models.Stock) []string {
	out := make([]string, len(stocks))
	for i, s := range stocks {
		out[i] = s.Symbol
	}
	return out
}

func TestScreenerQuery(t *testing.T) {
	s := newEngine(t).NewSession()

	resp := s.Query("stocks with PE < 15 and ROE > 20%")
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, query.TypeScreener, resp.Type)
	assert.Equal(t, []string{"COALINDIA", "VEDL"}, symbols(resp.Data))
	assert.Equal(t, 2, resp.Total)
	for _, st := range resp.Data {
		pe, _ := st.Number("pe")
		roe, _ := st.Number("roe")
		assert.Less(t, pe, 15.0)
		assert.Greater(t, roe, 20.0)
	}
	assert.Equal(t, "Stocks where P/E < 15 and ROE > 20%. Found 2 matches.", resp.Interpretation)
	assert.Equal(t, []string{"symbol", "name", "sector", "pe", "roe", "price", "marketCap"}, resp.Columns)
	require.NotNil(t, resp.Intent)
	assert.Equal(t, intent.Screen, resp.Intent.Intent)
	assert.Nil(t, resp.Analysis)
	assert.GreaterOrEqual(t, resp.ExecutionTime, 0.0)

	last := s.Context().LastQuery()
	require.NotNil(t, last)
	assert.Equal(t, 20, last.Screener.Limit)
}

func TestRefinementExcludesSector(t *testing.T) {
	s := newEngine(t).NewSession()
	first := s.Query("stocks with PE < 15 and ROE > 20%")
	require.True(t, first.Success)

	resp := s.Query("+1 exclude energy")
	require.True(t, resp.Success, resp.Error)
	assert.True(t, resp.Refinement)
	assert.Equal(t, []string{"VEDL"}, symbols(resp.Data))
	assert.Contains(t, resp.Interpretation, "Refining previous results: ")
	for _, st := range resp.Data {
		assert.NotEqual(t, "Energy", st.Sector)
	}

	last := s.Context().LastQuery()
	require.NotNil(t, last)
	assert.Len(t, last.Screener.Filters, 2, "prior filters survive the refinement")
	assert.Equal(t, []string{"Energy"}, last.Screener.Exclude.Sectors)
}

func TestRefinementIsSubset(t *testing.T) {
	refinements := []string{
		"+1 exclude banking",
		"+1 with dividend yield above 2%",
		"+1 exclude TCS and INFY",
		"+1 pe below 20",
	}
	for _, r := range refinements {
		t.Run(r, func(t *testing.T) {
			s := newEngine(t).NewSession()
			base := s.Query("stocks with market cap above 1T")
			require.True(t, base.Success)
			before := map[string]bool{}
			for _, sym := range symbols(base.Data) {
				before[sym] = true
			}

			resp := s.Query(r)
			require.True(t, resp.Success, resp.Error)
			assert.LessOrEqual(t, resp.Total, base.Total)
			for _, sym := range symbols(resp.Data) {
				assert.True(t, before[sym], "%s was not in the prior results", sym)
			}
		})
	}
}

func TestRefinementAfterOffsetKeepsPage(t *testing.T) {
	s := newEngine(t).NewSession()
	base := s.Query("stocks with pe < 100 offset 3")
	require.True(t, base.Success, base.Error)
	require.NotEmpty(t, base.Data)

	var want []string
	for _, st := range base.Data {
		if st.Sector != "Chemicals" {
			want = append(want, st.Symbol)
		}
	}

	resp := s.Query("+1 exclude chemicals")
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, want, symbols(resp.Data), "only Chemicals rows leave the prior page")
}

func TestTopNBySortsDescending(t *testing.T) {
	s := newEngine(t).NewSession()
	resp := s.Query("top 5 banking stocks by market cap")
	require.True(t, resp.Success, resp.Error)
	require.NotEmpty(t, resp.Data)
	assert.LessOrEqual(t, len(resp.Data), 5)
	for i := 1; i < len(resp.Data); i++ {
		prev, _ := resp.Data[i-1].Number("marketCap")
		cur, _ := resp.Data[i].Number("marketCap")
		assert.GreaterOrEqual(t, prev, cur)
	}

	resp = s.Query("+1 top 2 by roe")
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, []string{"ICICIBANK", "SBIN"}, symbols(resp.Data))
}

func TestRefinementAfterOtherQueries(t *testing.T) {
	s := newEngine(t).NewSession()
	require.True(t, s.Query("stocks with PE < 15 and ROE > 20%").Success)
	require.True(t, s.Query("RELIANCE").Success)

	resp := s.Query("+1 exclude energy")
	assert.Equal(t, []string{"VEDL"}, symbols(resp.Data), "refinement builds on the last screener query")
}

func TestHelp(t *testing.T) {
	s := newEngine(t).NewSession()
	require.True(t, s.Query("stocks with PE < 15").Success)
	before := s.Context().History()

	for _, text := range []string{"help", "?", "syntax", "How do I filter by sector", "  HELP  "} {
		t.Run(text, func(t *testing.T) {
			resp := s.Query(text)
			assert.True(t, resp.Success)
			assert.Equal(t, query.TypeHelp, resp.Type)
			assert.Empty(t, resp.Data)
			assert.NotNil(t, resp.Data)
			assert.Zero(t, resp.Total)
			assert.Contains(t, resp.Interpretation, "P/E")
			assert.Contains(t, resp.Interpretation, "Metals & Mining")
			assert.Equal(t, Examples, resp.Suggestions)
		})
	}
	assert.Equal(t, before, s.Context().History(), "help leaves the conversation untouched")
	assert.False(t, IsHelp("helpful stocks"))
}

func TestSingleStock(t *testing.T) {
	s := newEngine(t).NewSession()

	resp := s.Query("RELIANCE")
	require.True(t, resp.Success)
	assert.Equal(t, query.TypeSingleStock, resp.Type)
	assert.Equal(t, []string{"RELIANCE"}, symbols(resp.Data))
	assert.Equal(t, 1, resp.Total)
	assert.Contains(t, resp.Columns, "pe")
	assert.NotContains(t, resp.Columns, "sma50")

	resp = s.Query("infy")
	require.True(t, resp.Success)
	assert.Equal(t, "INFY", resp.Data[0].Symbol)
}

func TestSingleStockMissing(t *testing.T) {
	s := newEngine(t).NewSession()

	resp := s.Query("INFOSYS")
	assert.False(t, resp.Success)
	assert.Equal(t, query.TypeSingleStock, resp.Type)
	assert.Empty(t, resp.Data)
	assert.Contains(t, resp.Error, "INFOSYS")
	assert.Contains(t, resp.Suggestions, "INFY")
	assert.LessOrEqual(t, len(resp.Suggestions), 5)

	resp = s.Query("TATA")
	assert.False(t, resp.Success)
	assert.LessOrEqual(t, len(resp.Suggestions), 5)
	assert.Contains(t, resp.Suggestions, "TATASTEEL")
}

func TestSuggestionCountClamped(t *testing.T) {
	e := newEngine(t, WithSuggestionCount(50))
	assert.Equal(t, DefaultSuggestionCount, e.suggestions)

	e = newEngine(t, WithSuggestionCount(1))
	resp := e.NewSession().Query("TATA")
	assert.Len(t, resp.Suggestions, 1)
}

func TestComparison(t *testing.T) {
	s := newEngine(t).NewSession()

	resp := s.Query("compare TCS vs INFY")
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, query.TypeComparison, resp.Type)
	assert.Equal(t, []string{"TCS", "INFY"}, symbols(resp.Data))
	assert.Equal(t, "Comparing TCS, INFY on ROE, P/E, Revenue Growth, Debt/Equity.", resp.Interpretation)
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, []string{"score(4)", "rank:score"}, resp.Analysis.Metadata.OperationsApplied)
	assert.Equal(t, "TCS", resp.Analysis.Data[0]["symbol"])
	assert.InDelta(t, 75.0, resp.Analysis.Data[0]["score"], 1e-9)
	assert.Equal(t, 1.0, resp.Analysis.Data[0]["rank"])

	resp = s.Query("compare TCS vs NOPE")
	require.True(t, resp.Success)
	assert.Equal(t, []string{"TCS"}, symbols(resp.Data))
	assert.Contains(t, resp.Interpretation, "Not found: NOPE.")
}

func TestRankAnalysis(t *testing.T) {
	s := newEngine(t).NewSession()

	resp := s.Query("top 5 banking stocks by roe")
	require.True(t, resp.Success, resp.Error)
	assert.ElementsMatch(t, []string{"HDFCBANK", "ICICIBANK", "SBIN"}, symbols(resp.Data))
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, "ICICIBANK", resp.Analysis.Data[0]["symbol"])
	assert.Contains(t, resp.Analysis.Metadata.OperationsApplied, "rank:score")
}

func TestWatchlist(t *testing.T) {
	s := newEngine(t).NewSession()

	resp := s.Query("show my watchlist")
	require.True(t, resp.Success)
	assert.Equal(t, "Your watchlist is empty.", resp.Interpretation)

	resp = s.Query("add TCS and NOPE to my watchlist")
	require.True(t, resp.Success)
	assert.Equal(t, "Added TCS. Not found: NOPE.", resp.Interpretation)
	assert.Equal(t, []string{"TCS"}, symbols(resp.Data))

	resp = s.Query("add TCS to my watchlist")
	assert.Equal(t, "Watchlist unchanged.", resp.Interpretation)

	resp = s.Query("show my watchlist")
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "Your watchlist has 1 stock.", resp.Interpretation)

	s.Reset()
	resp = s.Query("remove TCS from watchlist")
	assert.Equal(t, "Removed TCS.", resp.Interpretation, "reset keeps the watchlist")
	assert.Empty(t, resp.Data)
}

func TestAlert(t *testing.T) {
	s := newEngine(t).NewSession()

	resp := s.Query("alert me when INFY price drops below 1800")
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, query.TypeAlert, resp.Type)
	assert.Equal(t, []string{"INFY"}, symbols(resp.Data))
	assert.Equal(t, "Alert for INFY when Price < 1800: currently met by 1 stock. Alerts are checked once and not scheduled.", resp.Interpretation)

	resp = s.Query("alert me when INFY price drops below 1400")
	require.True(t, resp.Success)
	assert.Zero(t, resp.Total)

	resp = s.Query("remind me about INFY")
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Suggestions)
}

func TestUnknown(t *testing.T) {
	s := newEngine(t).NewSession()
	resp := s.Query("hello there")
	assert.True(t, resp.Success)
	assert.Equal(t, query.TypeUnknown, resp.Type)
	assert.NotNil(t, resp.Data)
	assert.Zero(t, resp.Total)
	assert.Equal(t, Examples, resp.Suggestions)
}

func TestSessionsAreIndependent(t *testing.T) {
	e := newEngine(t)
	a, b := e.NewSession(), e.NewSession()
	require.True(t, a.Query("stocks with PE < 15 and ROE > 20%").Success)

	resp := b.Query("+1 exclude energy")
	require.True(t, resp.Success)
	assert.Equal(t, 12, resp.Total, "b has no prior results, so the whole universe is refined")
	assert.Nil(t, a.Context().LastQuery().Screener.Exclude)
}

func TestNewCopiesUniverse(t *testing.T) {
	universe := []models.Stock{
		{Symbol: "AAA", Sector: "Energy", Metrics: map[string]float64{"pe": 10}},
		{Symbol: "BBB", Sector: "Banking", Metrics: map[string]float64{"pe": 20}},
	}
	e, err := New(universe, WithIndex(search.NewInMemoryEngine(universe)))
	require.NoError(t, err)

	universe[0].Metrics["pe"] = 99
	resp := e.NewSession().Query("stocks with pe < 15")
	assert.Equal(t, []string{"AAA"}, symbols(resp.Data))

	_, err = New([]models.Stock{{Symbol: "AAA"}, {Symbol: "aaa"}})
	assert.ErrorContains(t, err, "duplicate symbol")
	_, err = New([]models.Stock{{Name: "nameless"}})
	assert.Error(t, err)
}
