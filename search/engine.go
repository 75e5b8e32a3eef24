// Package search finds stocks by symbol or company name. It backs
// single-stock lookups and the "did you mean" suggestions offered when a
// symbol is not in the universe.
package search

import (
	"errors"
	"sort"
	"strings"

	"stock-screener/models"
)

// ErrIndexClosed is returned by operations on a closed index.
var ErrIndexClosed = errors.New("search: index closed")

// SearchEngine is a symbol and name index over the universe.
type SearchEngine interface {
	// Search returns up to limit stocks ranked by relevance to query.
	Search(query string, limit int) ([]models.Stock, error)
	GetBySymbol(symbol string) *models.Stock
	GetStock(symbol, exchange string) *models.Stock
	Close() error
}

type InMemoryEngine struct {
	stocks []models.Stock
}

func NewInMemoryEngine(stocks []models.Stock) *InMemoryEngine {
	return &InMemoryEngine{stocks: stocks}
}

// Search ranks exact symbols first, then symbol prefixes, then name and
// sector matches, breaking ties by popularity.
func (e *InMemoryEngine) Search(query string, limit int) ([]models.Stock, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	type scored struct {
		stock models.Stock
		score float64
	}
	var hits []scored
	for _, stock := range e.stocks {
		sym := strings.ToLower(stock.Symbol)
		name := strings.ToLower(stock.Name)
		var s float64
		switch {
		case sym == q:
			s = 10
		case strings.HasPrefix(sym, q):
			s = 5
		case strings.HasPrefix(q, sym) && len(sym) >= 3:
			s = 4
		case strings.Contains(name, q):
			s = 3
		case strings.Contains(sym, q):
			s = 2
		case strings.Contains(strings.ToLower(stock.Sector), q):
			s = 1
		default:
			continue
		}
		hits = append(hits, scored{stock, s*0.7 + stock.PopularityScore*0.3})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	var results []models.Stock
	for _, h := range hits {
		if limit > 0 && len(results) == limit {
			break
		}
		results = append(results, h.stock)
	}
	return results, nil
}

func (e *InMemoryEngine) GetBySymbol(symbol string) *models.Stock {
	for _, stock := range e.stocks {
		if strings.EqualFold(stock.Symbol, symbol) {
			return &stock
		}
	}
	return nil
}

// GetStock returns the stock only when it is listed on exchange. An empty
// exchange matches any listing.
func (e *InMemoryEngine) GetStock(symbol, exchange string) *models.Stock {
	stock := e.GetBySymbol(symbol)
	if stock == nil || (exchange != "" && !strings.EqualFold(stock.Exchange, exchange)) {
		return nil
	}
	return stock
}

func (e *InMemoryEngine) Close() error { return nil }

// Suggest returns up to n symbols resembling text, best match first.
func Suggest(engine SearchEngine, text string, n int) []string {
	hits, err := engine.Search(text, n)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Symbol)
	}
	return out
}
