// Package screener ties the translator, executor, conversation context and
// intent analyzer together behind one call: Session.Query(text).
//
// An Engine owns the read-only universe and the symbol index and may be
// shared. Every conversation gets its own Session.
package screener

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"stock-screener/conversation"
	"stock-screener/models"
	"stock-screener/search"
	"stock-screener/translator"
)

// DefaultSuggestionCount caps "did you mean" lists.
const DefaultSuggestionCount = 5

// Engine holds what all sessions share. It is safe for concurrent use once
// constructed.
type Engine struct {
	universe     []models.Stock
	index        search.SearchEngine
	ownsIndex    bool
	memoryIndex  bool
	logger       *zap.Logger
	defaultLimit int
	historySize  int
	suggestions  int
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDefaultLimit sets the limit applied when a query names none.
func WithDefaultLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

// WithHistorySize bounds each session's query history.
func WithHistorySize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historySize = n
		}
	}
}

// WithSuggestionCount caps symbol suggestions; values above
// DefaultSuggestionCount are clamped to it.
func WithSuggestionCount(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.suggestions = min(n, DefaultSuggestionCount)
		}
	}
}

// WithMemoryIndex builds the plain substring index instead of bleve.
func WithMemoryIndex() Option {
	return func(e *Engine) {
		e.memoryIndex = true
	}
}

// WithIndex supplies a prebuilt symbol index. The engine does not close it.
func WithIndex(index search.SearchEngine) Option {
	return func(e *Engine) {
		e.index = index
	}
}

// New validates and copies universe, then builds a bleve symbol index over
// it unless one was supplied. If bleve cannot build, the plain in-memory
// index is used instead.
func New(universe []models.Stock, opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:       zap.NewNop(),
		defaultLimit: translator.DefaultLimit,
		historySize:  conversation.DefaultHistorySize,
		suggestions:  DefaultSuggestionCount,
	}
	for _, opt := range opts {
		opt(e)
	}

	seen := make(map[string]bool, len(universe))
	e.universe = make([]models.Stock, len(universe))
	for i, s := range universe {
		key := strings.ToUpper(s.Symbol)
		if key == "" {
			return nil, fmt.Errorf("universe entry %d has no symbol", i)
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate symbol %s in universe", key)
		}
		seen[key] = true

		metrics := make(map[string]float64, len(s.Metrics))
		for k, v := range s.Metrics {
			metrics[k] = v
		}
		s.Metrics = metrics
		s.Sanitize()
		e.universe[i] = s
	}

	switch {
	case e.index != nil:
	case e.memoryIndex:
		e.index = search.NewInMemoryEngine(e.universe)
		e.ownsIndex = true
	default:
		idx, err := search.NewBleveEngine(e.universe, e.logger)
		if err != nil {
			e.logger.Warn("bleve index unavailable, using in-memory index", zap.Error(err))
			e.index = search.NewInMemoryEngine(e.universe)
		} else {
			e.index = idx
		}
		e.ownsIndex = true
	}

	e.logger.Info("screener engine ready", zap.Int("stocks", len(e.universe)))
	return e, nil
}

// Universe returns a copy of the stock universe.
func (e *Engine) Universe() []models.Stock {
	return append([]models.Stock(nil), e.universe...)
}

// Index returns the symbol index.
func (e *Engine) Index() search.SearchEngine {
	return e.index
}

// Stock looks up one stock by symbol.
func (e *Engine) Stock(symbol string) (models.Stock, bool) {
	if s := e.index.GetBySymbol(symbol); s != nil {
		return *s, true
	}
	return models.Stock{}, false
}

// Suggest returns symbols resembling text, at most the configured count.
func (e *Engine) Suggest(text string) []string {
	return search.Suggest(e.index, text, e.suggestions)
}

// NewSession starts a conversation.
func (e *Engine) NewSession() *Session {
	return &Session{
		engine:     e,
		translator: translator.New(translator.WithDefaultLimit(e.defaultLimit)),
		context:    conversation.New(conversation.WithHistorySize(e.historySize)),
	}
}

// Close releases the index if the engine built it.
func (e *Engine) Close() error {
	if e.ownsIndex {
		return e.index.Close()
	}
	return nil
}
