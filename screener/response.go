package screener

import (
	"stock-screener/intent"
	"stock-screener/models"
	"stock-screener/pipeline"
	"stock-screener/query"
)

// Response is the answer to one query. Failures are reported in Success and
// Error; Query never returns a Go error.
type Response struct {
	Success        bool             `json:"success"`
	Type           query.Type       `json:"type"`
	Data           []models.Stock   `json:"data"`
	Total          int              `json:"total"`
	Interpretation string           `json:"interpretation"`
	Suggestions    []string         `json:"suggestions,omitempty"`
	Columns        []string         `json:"columns,omitempty"`
	ExecutionTime  float64          `json:"executionTime"`
	Error          string           `json:"error,omitempty"`
	Refinement     bool             `json:"refinement,omitempty"`
	Intent         *intent.Analysis `json:"intent,omitempty"`

	// Analysis holds scored, ranked or grouped rows for comparison, rank,
	// analyze and sector-analysis requests.
	Analysis *pipeline.Result `json:"analysis,omitempty"`
}

func failure(t query.Type, msg string) Response {
	return Response{Type: t, Data: []models.Stock{}, Error: msg, Interpretation: msg}
}
