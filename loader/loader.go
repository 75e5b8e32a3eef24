// Package loader builds the screening universe from CSV or JSON files, or
// from the embedded sample, and optionally refreshes prices from a live
// quote feed.
package loader

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"stock-screener/fields"
	"stock-screener/models"
	"stock-screener/values"
)

// ErrDuplicateSymbol is returned when a symbol appears twice on the same
// exchange.
var ErrDuplicateSymbol = errors.New("loader: duplicate symbol")

// CalculatePopularityScore assigns a popularity score based on well-known stocks
// Score ranges from 0.2 (unknown) to 1.0 (highly popular)
func CalculatePopularityScore(symbol string) float64 {
	symbol = strings.ToUpper(symbol)

	// Tier 1: Most popular stocks (0.9-1.0)
	tier1 := map[string]float64{
		"RELIANCE":   1.0,
		"TCS":        0.98,
		"HDFCBANK":   0.96,
		"INFY":       0.95,
		"ICICIBANK":  0.94,
		"HINDUNILVR": 0.93,
		"ITC":        0.92,
		"SBIN":       0.91,
		"BHARTIARTL": 0.90,
		"KOTAKBANK":  0.90,
	}

	// Tier 2: Well-known large caps (0.7-0.89)
	tier2 := map[string]float64{
		"BAJFINANCE": 0.85,
		"LT":         0.84,
		"ASIANPAINT": 0.83,
		"AXISBANK":   0.82,
		"MARUTI":     0.81,
		"SUNPHARMA":  0.80,
		"TITAN":      0.79,
		"NESTLEIND":  0.78,
		"ULTRACEMCO": 0.77,
		"WIPRO":      0.76,
		"TATAMOTORS": 0.75,
		"TATAPOWER":  0.74,
		"TATASTEEL":  0.73,
		"ADANIPORTS": 0.72,
		"ADANIENT":   0.71,
		"ONGC":       0.70,
	}

	// Tier 3: Mid-caps and sector leaders (0.4-0.69)
	tier3 := map[string]float64{
		"DIVISLAB":   0.65,
		"DRREDDY":    0.64,
		"CIPLA":      0.63,
		"TECHM":      0.62,
		"HCLTECH":    0.61,
		"POWERGRID":  0.60,
		"NTPC":       0.59,
		"COALINDIA":  0.58,
		"BPCL":       0.57,
		"IOC":        0.56,
		"GRASIM":     0.55,
		"JSWSTEEL":   0.54,
		"HINDALCO":   0.53,
		"VEDL":       0.52,
		"INDUSINDBK": 0.51,
		"BAJAJFINSV": 0.50,
		"M&M":        0.49,
		"EICHERMOT":  0.48,
		"HEROMOTOCO": 0.47,
		"BRITANNIA":  0.46,
		"SHREECEM":   0.45,
		"UPL":        0.44,
		"APOLLOHOSP": 0.43,
		"PIDILITIND": 0.42,
		"GODREJCP":   0.41,
		"DABUR":      0.40,
	}

	if score, ok := tier1[symbol]; ok {
		return score
	}
	if score, ok := tier2[symbol]; ok {
		return score
	}
	if score, ok := tier3[symbol]; ok {
		return score
	}

	// Default score for other stocks
	return 0.2
}

// LoadStocks reads a universe file. The format is taken from the extension
// unless format is "csv" or "json".
func LoadStocks(filePath, format string, logger *zap.Logger) ([]models.Stock, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")
	}
	switch format {
	case "csv":
		return ReadCSV(f, logger)
	case "json":
		return ReadJSON(f)
	}
	return nil, fmt.Errorf("unsupported universe format %q", format)
}

// ReadCSV reads one stock per row. Header cells are resolved through the
// field registry, so "P/E", "pe ratio" and "pe" all land in Metrics["pe"].
// Unknown columns and unparseable cells are skipped; an empty cell means
// the value is unknown.
func ReadCSV(r io.Reader, logger *zap.Logger) ([]models.Stock, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	columns := make([]string, len(records[0]))
	for i, h := range records[0] {
		name, ok := fields.ResolveField(h)
		if !ok {
			logger.Warn("skipping unknown column", zap.String("column", h))
			continue
		}
		columns[i] = name
	}

	var stocks []models.Stock
	for line, record := range records[1:] {
		stock := models.Stock{Metrics: map[string]float64{}}
		for i, cell := range record {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if !setField(&stock, columns[i], cell) {
				logger.Warn("skipping unparseable value",
					zap.Int("row", line+2),
					zap.String("column", columns[i]),
					zap.String("value", cell))
			}
		}
		if stock.Symbol == "" {
			logger.Warn("skipping row without symbol", zap.Int("row", line+2))
			continue
		}
		stocks = append(stocks, stock)
	}
	return finish(stocks)
}

func setField(s *models.Stock, field, cell string) bool {
	switch field {
	case "symbol":
		s.Symbol = strings.ToUpper(cell)
	case "name":
		s.Name = cell
	case "exchange":
		s.Exchange = strings.ToUpper(cell)
	case "sector":
		s.Sector = cell
	case "industry":
		s.Industry = cell
	default:
		if !fields.IsNumeric(field) {
			return false
		}
		v, ok := values.ParseNumber(cell)
		if !ok {
			return false
		}
		s.Metrics[field] = v
	}
	return true
}

// ReadJSON reads an array of stocks. Metric keys may use any registered
// alias.
func ReadJSON(r io.Reader) ([]models.Stock, error) {
	var raw []models.Stock
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	for i := range raw {
		metrics := make(map[string]float64, len(raw[i].Metrics))
		for k, v := range raw[i].Metrics {
			if name, ok := fields.ResolveField(k); ok && fields.IsNumeric(name) {
				metrics[name] = v
			}
		}
		raw[i].Metrics = metrics
		raw[i].Symbol = strings.ToUpper(strings.TrimSpace(raw[i].Symbol))
		raw[i].Exchange = strings.ToUpper(strings.TrimSpace(raw[i].Exchange))
	}
	return finish(raw)
}

// finish canonicalizes sectors, fills popularity and defaults, and rejects
// duplicates.
func finish(stocks []models.Stock) ([]models.Stock, error) {
	seen := make(map[string]bool, len(stocks))
	for i := range stocks {
		s := &stocks[i]
		if s.Symbol == "" {
			return nil, fmt.Errorf("stock %d: missing symbol", i)
		}
		if s.Exchange == "" {
			s.Exchange = "NSE"
		}
		// symbols are unique across exchanges
		key := strings.ToUpper(s.Symbol)
		if seen[key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSymbol, key)
		}
		seen[key] = true

		if s.Name == "" {
			s.Name = s.Symbol
		}
		if sector, ok := fields.ExactSector(s.Sector); ok {
			s.Sector = sector
		}
		if s.PopularityScore == 0 {
			s.PopularityScore = CalculatePopularityScore(s.Symbol)
		}
		if s.Metrics == nil {
			s.Metrics = map[string]float64{}
		}
		s.Sanitize()
	}
	return stocks, nil
}
