package intent

import (
	"strconv"

	"stock-screener/fields"
	"stock-screener/pipeline"
	"stock-screener/query"
	"stock-screener/translator"
)

// Step is one entry of an explanatory plan.
type Step struct {
	Op          string         `json:"op"`
	Description string         `json:"description"`
	Params      map[string]any `json:"params,omitempty"`
}

// DefaultFactors score quality at a reasonable price when a request names
// no metrics.
func DefaultFactors() []pipeline.Factor {
	return []pipeline.Factor{
		{Field: "roe", Weight: 0.3},
		{Field: "pe", Weight: 0.25, LowerIsBetter: true},
		{Field: "revenueGrowth", Weight: 0.25},
		{Field: "debtToEquity", Weight: 0.2, LowerIsBetter: true},
	}
}

// FactorsFor weights the given metrics equally, or returns DefaultFactors
// when there are none.
func FactorsFor(metrics []string) []pipeline.Factor {
	var out []pipeline.Factor
	for _, m := range metrics {
		d, ok := fields.Lookup(m)
		if !ok || d.Type != fields.Number {
			continue
		}
		out = append(out, pipeline.Factor{Field: m, Weight: 1, LowerIsBetter: d.LowerIsBetter})
	}
	if len(out) == 0 {
		return DefaultFactors()
	}
	return out
}

// Scores reports whether the intent calls for a scoring step.
func (a Analysis) Scores() bool {
	switch a.Intent {
	case AnalyzeIntent, Compare, Rank:
		return true
	}
	return false
}

// Factors returns the scoring factors the plan uses, or nil when the plan
// does not score.
func (a Analysis) Factors() []pipeline.Factor {
	for _, s := range a.Pipeline {
		if s.Op == "score" {
			f, _ := s.Params["factors"].([]pipeline.Factor)
			return f
		}
	}
	return nil
}

func buildPlan(text string, a Analysis) []Step {
	plan := []Step{{Op: "load", Description: "Load the stock universe"}}

	if len(a.Symbols) > 0 && (a.Intent == Compare || a.Intent == AnalyzeIntent || a.OutputType == OutputCards) {
		plan = append(plan, Step{
			Op:          "select",
			Description: "Select " + joinList(a.Symbols),
			Params:      map[string]any{"symbols": a.Symbols},
		})
	}
	if len(a.Sectors) > 0 {
		plan = append(plan, Step{
			Op:          "filter_sector",
			Description: "Keep stocks in " + joinList(a.Sectors),
			Params:      map[string]any{"sectors": a.Sectors},
		})
	}
	if conds := translator.ExtractFilters(text); len(conds) > 0 {
		descs := make([]string, len(conds))
		for i, c := range conds {
			descs[i] = c.String()
		}
		plan = append(plan, Step{
			Op:          "filter",
			Description: "Apply " + joinList(descs),
			Params:      map[string]any{"conditions": conds},
		})
	}
	if a.Scores() {
		factors := FactorsFor(a.Metrics)
		labels := make([]string, len(factors))
		for i, f := range factors {
			labels[i] = fields.Label(f.Field)
		}
		plan = append(plan,
			Step{
				Op:          "score",
				Description: "Score on " + joinList(labels),
				Params:      map[string]any{"factors": factors, "as": "score"},
			},
			Step{
				Op:          "rank",
				Description: "Rank by score, highest first",
				Params:      map[string]any{"field": "score", "order": query.Desc, "as": "rank"},
			})
	}

	limit := 20
	switch {
	case a.Intent == Compare && len(a.Symbols) > 0:
		limit = len(a.Symbols)
	case a.Intent == Rank:
		limit = 10
	}
	if m := topNRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			limit = n
		}
	}
	plan = append(plan, Step{
		Op:          "limit",
		Description: "Keep the first " + strconv.Itoa(limit),
		Params:      map[string]any{"limit": limit},
	})

	if a.Intent == SectorAnalysis {
		metrics := a.Metrics
		if len(metrics) == 0 {
			metrics = []string{"pe", "roe", "marketCap"}
		}
		aggs := make([]pipeline.Aggregation, len(metrics))
		for i, m := range metrics {
			aggs[i] = pipeline.Aggregation{Field: m, Func: pipeline.AggAvg}
		}
		plan = append(plan, Step{
			Op:          "group",
			Description: "Group by sector and average " + joinList(metrics),
			Params:      map[string]any{"field": "sector", "aggregations": aggs},
		})
	}
	return plan
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	out := items[0]
	for _, s := range items[1 : len(items)-1] {
		out += ", " + s
	}
	return out + " and " + items[len(items)-1]
}

// Builder turns the numeric steps of the plan (score, rank, limit, group)
// into a pipeline. Selection and filter steps are left to the caller, which
// is expected to have applied them already.
func (a Analysis) Builder() *pipeline.Builder {
	b := pipeline.NewBuilder()
	for _, s := range a.Pipeline {
		switch s.Op {
		case "score":
			factors, _ := s.Params["factors"].([]pipeline.Factor)
			b.Score(factors, "score")
		case "rank":
			b.Rank("score", query.Desc, "rank")
		case "limit":
			n, _ := s.Params["limit"].(int)
			b.Limit(n, 0)
		case "group":
			aggs, _ := s.Params["aggregations"].([]pipeline.Aggregation)
			b.Group("sector", aggs...)
		}
	}
	return b
}
