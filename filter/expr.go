package filter

import (
	"encoding/json"
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/tokenmgmt/models"
)

// Timestamp layouts accepted by parseTime, tried in order
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*ExprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *ExprCompiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *ExprCompiler) {
		maps.Copy(c.helpers, funcs)
	}
}

// ExprCompiler compiles expr-lang expressions over API records.
//
// Record fields are top-level variables (status == 1 and mlocation_id == 2),
// JSON numbers become int64 or float64, and fields that are missing
// evaluate to nil. The whole record is also available as record.
type ExprCompiler struct {
	helpers map[string]any
	cache   *lruCache
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) *ExprCompiler {
	c := &ExprCompiler{helpers: helperFunctions()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles an expression into an executable filter
func (c *ExprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.get(expression); ok {
			return cached, nil
		}
	}

	env := make(map[string]any, len(c.helpers)+3)
	maps.Copy(env, c.helpers)
	addRecordHelpers(env, nil)

	program, err := expr.Compile(expression,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	f := &exprFilter{
		expression: expression,
		program:    program,
		helpers:    c.helpers,
	}
	if c.cache != nil {
		c.cache.put(expression, f)
	}
	return f, nil
}

// Clear removes all cached filters
func (c *ExprCompiler) Clear() {
	if c.cache != nil {
		c.cache.clear()
	}
}

// Size returns the number of cached filters
func (c *ExprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.len()
	}
	return 0
}

// Evaluate reports whether rec matches; evaluation failures count as no match
func (f *exprFilter) Evaluate(rec models.Record) bool {
	ok, err := f.Check(rec)
	return err == nil && ok
}

// Check evaluates the filter against rec
func (f *exprFilter) Check(rec models.Record) (bool, error) {
	result, err := expr.Run(f.program, f.environment(rec))
	if err != nil {
		id, _ := rec.String(models.FieldID)
		return false, &EvaluationError{
			Expression: f.expression,
			RecordID:   id,
			Reason:     "failed to run expression",
			Err:        err,
		}
	}
	// AsBool guarantees the type
	return result.(bool), nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

func (f *exprFilter) environment(rec models.Record) map[string]any {
	fields := normalizeRecord(rec)

	env := make(map[string]any, len(fields)+len(f.helpers)+3)
	maps.Copy(env, fields)
	// helpers win over fields with the same name
	maps.Copy(env, f.helpers)
	addRecordHelpers(env, fields)
	return env
}

// addRecordHelpers installs the helpers bound to one record. With a nil
// record they serve as typed placeholders for compilation.
func addRecordHelpers(env map[string]any, fields map[string]any) {
	env["record"] = fields
	env["has"] = func(key string) bool {
		v, ok := fields[key]
		return ok && v != nil
	}
	env["field"] = func(key string) any {
		return fields[key]
	}
}

func helperFunctions() map[string]any {
	funcs := make(map[string]any, 16)

	// Time helpers
	funcs["now"] = time.Now
	funcs["parseTime"] = parseTime
	funcs["minutesSince"] = func(t time.Time) int {
		return int(time.Since(t).Minutes())
	}
	funcs["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	funcs["minutesAgo"] = func(minutes int) time.Time {
		return time.Now().Add(-time.Duration(minutes) * time.Minute)
	}
	funcs["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}

	// String helpers, case-insensitive
	funcs["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	funcs["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	funcs["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	funcs["lower"] = strings.ToLower
	funcs["upper"] = strings.ToUpper
	return funcs
}

// parseTime reads the timestamp formats the API emits. Unparseable input
// yields the zero time.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// normalizeRecord converts JSON numbers to int64 or float64 so that
// expressions can compare them with literals
func normalizeRecord(rec models.Record) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case models.Record:
		return normalizeRecord(t)
	case map[string]any:
		return normalizeRecord(models.Record(t))
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
