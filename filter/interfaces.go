package filter

import (
	"context"

	"github.com/s0up4200/tokenmgmt/models"
)

// Filter decides whether a record matches
type Filter interface {
	// Evaluate reports a match. Records that fail to evaluate do not match.
	Evaluate(rec models.Record) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Check evaluates rec and reports evaluation failures
	Check(rec models.Record) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// Evaluator applies a filter to a list of records
type Evaluator interface {
	Evaluate(ctx context.Context, filter CompiledFilter, recs []models.Record) ([]models.Record, error)
}
