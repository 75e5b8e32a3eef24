package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"

	"stock-screener/models"
)

// BleveEngine is an in-memory bleve index over symbol, name, sector and
// industry. Hits are hydrated from the stocks it was built from, so results
// carry their metrics.
type BleveEngine struct {
	index  bleve.Index
	byID   map[string]models.Stock
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// indexDoc is what gets indexed for each stock.
type indexDoc struct {
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name"`
	Exchange        string  `json:"exchange"`
	Sector          string  `json:"sector"`
	Industry        string  `json:"industry"`
	PopularityScore float64 `json:"popularity_score"`
}

// docID keys documents by symbol, which is unique in the universe.
func docID(symbol string) string {
	return strings.ToUpper(symbol)
}

// NewBleveEngine indexes stocks in memory.
func NewBleveEngine(stocks []models.Stock, logger *zap.Logger) (*BleveEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	e := &BleveEngine{index: index, byID: make(map[string]models.Stock, len(stocks)), logger: logger}
	batch := index.NewBatch()
	for _, stock := range stocks {
		id := docID(stock.Symbol)
		e.byID[id] = stock
		doc := indexDoc{
			Symbol:          stock.Symbol,
			Name:            stock.Name,
			Exchange:        stock.Exchange,
			Sector:          stock.Sector,
			Industry:        stock.Industry,
			PopularityScore: stock.PopularityScore,
		}
		if err := batch.Index(id, doc); err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to add %s to batch: %w", stock.Symbol, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return nil, fmt.Errorf("failed to execute batch: %w", err)
	}
	logger.Debug("symbol index built", zap.Int("stocks", len(stocks)))
	return e, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	stockMapping := bleve.NewDocumentMapping()

	// Popularity is stored so hits can be re-ranked by it.
	popularityFieldMapping := bleve.NewNumericFieldMapping()
	popularityFieldMapping.Store = true
	popularityFieldMapping.Index = true
	stockMapping.AddFieldMappingsAt("popularity_score", popularityFieldMapping)

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Store = true
	textFieldMapping.Index = true
	stockMapping.AddFieldMappingsAt("symbol", textFieldMapping)
	stockMapping.AddFieldMappingsAt("name", textFieldMapping)
	stockMapping.AddFieldMappingsAt("exchange", textFieldMapping)
	stockMapping.AddFieldMappingsAt("sector", textFieldMapping)
	stockMapping.AddFieldMappingsAt("industry", textFieldMapping)

	indexMapping.DefaultMapping = stockMapping
	return indexMapping
}

// Search combines exact, prefix, fuzzy and wildcard symbol queries with
// name and sector matches, then blends the text score with popularity.
func (e *BleveEngine) Search(query string, limit int) ([]models.Stock, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrIndexClosed
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	exactQuery := bleve.NewTermQuery(q)
	exactQuery.SetField("symbol")
	exactQuery.SetBoost(10.0)

	prefixQuery := bleve.NewPrefixQuery(q)
	prefixQuery.SetField("symbol")
	prefixQuery.SetBoost(5.0)

	fuzzyQuery := bleve.NewFuzzyQuery(q)
	fuzzyQuery.SetField("symbol")
	fuzzyQuery.SetFuzziness(2)
	fuzzyQuery.SetBoost(4.0)

	nameMatchQuery := bleve.NewMatchQuery(query)
	nameMatchQuery.SetField("name")
	nameMatchQuery.SetBoost(3.0)

	nameFuzzyQuery := bleve.NewFuzzyQuery(q)
	nameFuzzyQuery.SetField("name")
	nameFuzzyQuery.SetFuzziness(1)
	nameFuzzyQuery.SetBoost(2.5)

	wildcardSymbol := bleve.NewWildcardQuery("*" + q + "*")
	wildcardSymbol.SetField("symbol")
	wildcardSymbol.SetBoost(2.0)

	wildcardName := bleve.NewWildcardQuery("*" + q + "*")
	wildcardName.SetField("name")
	wildcardName.SetBoost(1.5)

	sectorQuery := bleve.NewMatchQuery(query)
	sectorQuery.SetField("sector")
	sectorQuery.SetBoost(1.0)

	searchQuery := bleve.NewDisjunctionQuery(
		exactQuery,
		prefixQuery,
		fuzzyQuery,
		nameMatchQuery,
		nameFuzzyQuery,
		wildcardSymbol,
		wildcardName,
		sectorQuery,
	)

	searchRequest := bleve.NewSearchRequest(searchQuery)
	searchRequest.Fields = []string{"popularity_score"}
	searchRequest.Size = 100

	searchResults, err := e.index.Search(searchRequest)
	if err != nil {
		e.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	type scoredStock struct {
		stock      models.Stock
		finalScore float64
	}
	var scored []scoredStock
	for _, hit := range searchResults.Hits {
		stock, ok := e.byID[hit.ID]
		if !ok {
			continue
		}
		popularity, _ := hit.Fields["popularity_score"].(float64)
		// relevance first, popularity as a tie breaker
		scored = append(scored, scoredStock{stock: stock, finalScore: hit.Score*0.7 + popularity*0.3})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].finalScore > scored[j].finalScore })

	var results []models.Stock
	for _, s := range scored {
		if limit > 0 && len(results) == limit {
			break
		}
		results = append(results, s.stock)
	}
	return results, nil
}

func (e *BleveEngine) GetBySymbol(symbol string) *models.Stock {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil
	}

	termQuery := bleve.NewTermQuery(strings.ToLower(symbol))
	termQuery.SetField("symbol")
	searchRequest := bleve.NewSearchRequest(termQuery)
	searchRequest.Size = 10

	searchResults, err := e.index.Search(searchRequest)
	if err != nil {
		return nil
	}
	// The analyzer may split symbols such as "M&M"; confirm the match.
	for _, hit := range searchResults.Hits {
		if stock, ok := e.byID[hit.ID]; ok && strings.EqualFold(stock.Symbol, symbol) {
			return &stock
		}
	}
	if stock, ok := e.byID[docID(symbol)]; ok {
		return &stock
	}
	return nil
}

// GetStock returns the stock only when it is listed on exchange. An empty
// exchange matches any listing.
func (e *BleveEngine) GetStock(symbol, exchange string) *models.Stock {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil
	}
	stock, ok := e.byID[docID(symbol)]
	if !ok || (exchange != "" && !strings.EqualFold(stock.Exchange, exchange)) {
		return nil
	}
	return &stock
}

// Close releases the index. Further searches return ErrIndexClosed.
func (e *BleveEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.index.Close()
}
