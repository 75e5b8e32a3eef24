package loader

import (
	"context"
	"strings"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stock-screener/models"
)

// QuoteFunc fetches one live quote by feed symbol.
type QuoteFunc func(symbol string) (*finance.Quote, error)

// QuoteOptions control RefreshQuotes.
type QuoteOptions struct {
	// Fetch defaults to quote.Get.
	Fetch QuoteFunc
	// Concurrency bounds in-flight requests; 4 when zero.
	Concurrency int
	Logger      *zap.Logger
}

// FeedSymbol maps a listing to the quote feed's symbol, e.g. RELIANCE on
// NSE becomes RELIANCE.NS.
func FeedSymbol(s models.Stock) string {
	switch strings.ToUpper(s.Exchange) {
	case "BSE":
		return s.Symbol + ".BO"
	case "NSE", "":
		return s.Symbol + ".NS"
	}
	return s.Symbol
}

// RefreshQuotes overwrites price, volume and trading-range metrics of
// stocks in place with live quotes. A failed or empty quote leaves the
// stock untouched. It returns how many stocks were updated.
func RefreshQuotes(ctx context.Context, stocks []models.Stock, opts QuoteOptions) (int, error) {
	fetch := opts.Fetch
	if fetch == nil {
		fetch = quote.Get
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}

	quotes := make([]*finance.Quote, len(stocks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range stocks {
		i := i
		symbol := FeedSymbol(stocks[i])
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			q, err := fetch(symbol)
			if err != nil {
				logger.Warn("quote fetch failed", zap.String("symbol", symbol), zap.Error(err))
				return nil
			}
			quotes[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	updated := 0
	for i, q := range quotes {
		if q == nil || q.RegularMarketPrice <= 0 {
			continue
		}
		applyQuote(&stocks[i], q)
		updated++
	}
	logger.Info("quotes refreshed", zap.Int("updated", updated), zap.Int("stocks", len(stocks)))
	return updated, nil
}

func applyQuote(s *models.Stock, q *finance.Quote) {
	if s.Metrics == nil {
		s.Metrics = map[string]float64{}
	}
	set := func(field string, v float64) {
		if v > 0 {
			s.Metrics[field] = v
		}
	}
	set("price", q.RegularMarketPrice)
	set("volume", float64(q.RegularMarketVolume))
	set("avgVolume", float64(q.AverageDailyVolume3Month))
	set("high52w", q.FiftyTwoWeekHigh)
	set("low52w", q.FiftyTwoWeekLow)
	set("sma50", q.FiftyDayAverage)
	set("sma200", q.TwoHundredDayAverage)
	s.Metrics["return1d"] = q.RegularMarketChangePercent
	s.Sanitize()
}
