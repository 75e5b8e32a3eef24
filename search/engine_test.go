package search

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stock-screener/models"
)

func fixture() []models.Stock {
	return []models.Stock{
		{Symbol: "TCS", Name: "Tata Consultancy Services Limited", Exchange: "NSE", Sector: "Technology", PopularityScore: 0.98},
		{Symbol: "INFY", Name: "Infosys Limited", Exchange: "NSE", Sector: "Technology", PopularityScore: 0.95},
		{Symbol: "HDFCBANK", Name: "HDFC Bank Limited", Exchange: "NSE", Sector: "Banking", PopularityScore: 0.96},
		{Symbol: "TATASTEEL", Name: "Tata Steel Limited", Exchange: "NSE", Sector: "Metals & Mining", PopularityScore: 0.73},
		{Symbol: "SBIN", Name: "State Bank of India", Exchange: "NSE", Sector: "Banking", PopularityScore: 0.91,
			Metrics: map[string]float64{"pe": 9.8}},
	}
}

func engines(t *testing.T) map[string]SearchEngine {
	t.Helper()
	b, err := NewBleveEngine(fixture(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return map[string]SearchEngine{
		"bleve":  b,
		"memory": NewInMemoryEngine(fixture()),
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		query string
		first string
	}{
		{"TCS", "TCS"},
		{"tcs", "TCS"},
		{"INFOSYS", "INFY"},
		{"hdfc", "HDFCBANK"},
		{"state bank", "SBIN"},
	}
	for name, e := range engines(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.query, func(t *testing.T) {
				hits, err := e.Search(tt.query, 5)
				require.NoError(t, err)
				require.NotEmpty(t, hits)
				assert.Equal(t, tt.first, hits[0].Symbol)
			})
		}
	}
}

func TestSearchLimitAndEmpty(t *testing.T) {
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			hits, err := e.Search("tata", 1)
			require.NoError(t, err)
			assert.Len(t, hits, 1)

			hits, err = e.Search("   ", 5)
			require.NoError(t, err)
			assert.Empty(t, hits)
		})
	}
}

func TestGetBySymbolKeepsMetrics(t *testing.T) {
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			s := e.GetBySymbol("sbin")
			require.NotNil(t, s)
			assert.Equal(t, "SBIN", s.Symbol)
			assert.Equal(t, 9.8, s.Metrics["pe"])

			assert.Nil(t, e.GetBySymbol("NOPE"))

			s = e.GetStock("infy", "nse")
			require.NotNil(t, s)
			assert.Equal(t, "INFY", s.Symbol)
			assert.NotNil(t, e.GetStock("INFY", ""))
			assert.Nil(t, e.GetStock("INFY", "BSE"), "listed on NSE only")
			assert.Nil(t, e.GetStock("NOPE", "NSE"))
		})
	}
}

func TestSuggest(t *testing.T) {
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, []string{"INFY"}, Suggest(e, "INFOSYS", 5))
		})
	}
}

func TestBleveClosed(t *testing.T) {
	e, err := NewBleveEngine(fixture(), nil)
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err = e.Search("TCS", 5)
	assert.ErrorIs(t, err, ErrIndexClosed)
	assert.Nil(t, e.GetBySymbol("TCS"))
	assert.Nil(t, e.GetStock("TCS", "NSE"))
	assert.Empty(t, Suggest(e, "TCS", 5))
}

func TestBleveLookupsDuringClose(t *testing.T) {
	e, err := NewBleveEngine(fixture(), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				e.GetStock("TCS", "NSE")
				e.GetBySymbol("INFY")
			}
		}()
	}
	require.NoError(t, e.Close())
	wg.Wait()
	assert.Nil(t, e.GetStock("TCS", ""))
}
