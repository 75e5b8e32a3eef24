package pipeline

import (
	"fmt"

	"stock-screener/query"
)

// Metadata describes one pipeline execution.
type Metadata struct {
	InputCount        int                `json:"inputCount"`
	OutputCount       int                `json:"outputCount"`
	OperationsApplied []string           `json:"operationsApplied"`
	Columns           []string           `json:"columns"`
	Aggregates        map[string]float64 `json:"aggregates,omitempty"`
	Groups            map[string][]Row   `json:"groups,omitempty"`
	GroupSummary      []Row              `json:"groupSummary,omitempty"`
}

// Result is the output of Builder.Execute.
type Result struct {
	Data     []Row    `json:"data"`
	Metadata Metadata `json:"metadata"`
}

type state struct {
	rows []Row
	meta *Metadata
}

type step struct {
	name string
	run  func(*state)
}

// Builder accumulates named operators and runs them in registration order.
// Aggregate and Group record side results in the metadata and leave the
// row stream untouched.
type Builder struct {
	steps []step
}

// NewBuilder returns an empty plan.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) add(name string, fn func([]Row) []Row) *Builder {
	b.steps = append(b.steps, step{name: name, run: func(s *state) { s.rows = fn(s.rows) }})
	return b
}

// Apply adds a custom row operator.
func (b *Builder) Apply(name string, fn func([]Row) []Row) *Builder {
	return b.add(name, fn)
}

func (b *Builder) Filter(conds ...query.Filter) *Builder {
	return b.add(fmt.Sprintf("filter(%d)", len(conds)), func(rows []Row) []Row { return Filter(rows, conds) })
}

func (b *Builder) Sort(keys ...SortKey) *Builder {
	return b.add("sort", func(rows []Row) []Row { return Sort(rows, keys...) })
}

func (b *Builder) Limit(n, offset int) *Builder {
	return b.add(fmt.Sprintf("limit(%d)", n), func(rows []Row) []Row { return Limit(rows, n, offset) })
}

func (b *Builder) Rank(field string, order query.Order, as string) *Builder {
	return b.add("rank:"+field, func(rows []Row) []Row { return Rank(rows, field, order, as) })
}

func (b *Builder) Score(factors []Factor, as string) *Builder {
	return b.add(fmt.Sprintf("score(%d)", len(factors)), func(rows []Row) []Row { return Score(rows, factors, as) })
}

func (b *Builder) Calculate(formula, as string) *Builder {
	return b.add("calculate:"+as, func(rows []Row) []Row { return Calculate(rows, formula, as) })
}

func (b *Builder) Compare(field string, mode CompareMode, benchmark *float64, as string) *Builder {
	return b.add("compare:"+string(mode), func(rows []Row) []Row { return Compare(rows, field, mode, benchmark, as) })
}

func (b *Builder) Merge(right []Row, key string, kind JoinKind) *Builder {
	return b.add("merge:"+string(kind), func(rows []Row) []Row { return Merge(rows, right, key, kind) })
}

func (b *Builder) Transform(field string, kind TransformKind, as string) *Builder {
	return b.add("transform:"+string(kind), func(rows []Row) []Row { return Transform(rows, field, kind, as) })
}

func (b *Builder) Normalize(field string, mode NormalizeMode, as string) *Builder {
	return b.add("normalize:"+string(mode), func(rows []Row) []Row { return Normalize(rows, field, mode, as) })
}

// Aggregate records fn(field) under as in Metadata.Aggregates.
func (b *Builder) Aggregate(field string, fn AggFunc, as string) *Builder {
	if as == "" {
		as = string(fn) + "_" + field
	}
	b.steps = append(b.steps, step{name: "aggregate:" + as, run: func(s *state) {
		if v, ok := Aggregate(s.rows, field, fn); ok {
			if s.meta.Aggregates == nil {
				s.meta.Aggregates = make(map[string]float64)
			}
			s.meta.Aggregates[as] = v
		}
	}})
	return b
}

// Group records the partitions of field in Metadata.Groups and, when aggs
// are given, one summary row per group in Metadata.GroupSummary.
func (b *Builder) Group(field string, aggs ...Aggregation) *Builder {
	b.steps = append(b.steps, step{name: "group:" + field, run: func(s *state) {
		g := GroupBy(s.rows, field)
		s.meta.Groups = g.Partitions
		if len(aggs) > 0 {
			s.meta.GroupSummary = g.Summarize(field, aggs)
		}
	}})
	return b
}

// Steps returns the registered operation names in order.
func (b *Builder) Steps() []string {
	out := make([]string, len(b.steps))
	for i, s := range b.steps {
		out[i] = s.name
	}
	return out
}

// Execute runs the plan over rows. A panicking operator stops the run and is
// returned as an error.
func (b *Builder) Execute(rows []Row) (res Result, err error) {
	meta := Metadata{InputCount: len(rows), OperationsApplied: []string{}}
	st := &state{rows: rows, meta: &meta}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline step %d: %v", len(meta.OperationsApplied), r)
		}
	}()

	for _, s := range b.steps {
		s.run(st)
		meta.OperationsApplied = append(meta.OperationsApplied, s.name)
	}
	meta.OutputCount = len(st.rows)
	meta.Columns = Columns(st.rows)
	return Result{Data: st.rows, Metadata: meta}, nil
}
