package filter

import (
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/cinesearch/tmdb"
)

// DefaultCacheSize is the number of compiled expressions a Compiler keeps
const DefaultCacheSize = 100

const dateLayout = "2006-01-02"

// Filter is a compiled expression that narrows a page of movies
type Filter struct {
	expression string
	program    *vm.Program
	env        func(tmdb.Movie) map[string]any
}

// Expression returns the original expression
func (f *Filter) Expression() string {
	return f.expression
}

// Match reports whether movie satisfies the filter
func (f *Filter) Match(movie tmdb.Movie) (bool, error) {
	result, err := expr.Run(f.program, f.env(movie))
	if err != nil {
		return false, &EvaluationError{Expression: f.expression, MovieTitle: movie.Title, Err: err}
	}
	// AsBool at compile time guarantees the type
	return result.(bool), nil
}

// Apply returns the movies matching the filter in their original order
func (f *Filter) Apply(movies []tmdb.Movie) ([]tmdb.Movie, error) {
	matches := make([]tmdb.Movie, 0, len(movies))
	for _, movie := range movies {
		ok, err := f.Match(movie)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, movie)
		}
	}
	return matches, nil
}

// CompilerOption configures a Compiler
type CompilerOption func(*Compiler)

// WithCache sets the number of compiled expressions kept. Zero disables caching.
func WithCache(size int) CompilerOption {
	return func(c *Compiler) {
		if size > 0 {
			c.cache = newProgramCache(size)
		} else {
			c.cache = nil
		}
	}
}

// WithFunctions adds helper functions available to every expression
func WithFunctions(funcs map[string]any) CompilerOption {
	return func(c *Compiler) {
		maps.Copy(c.funcs, funcs)
	}
}

// withClock replaces time.Now in tests
func withClock(now func() time.Time) CompilerOption {
	return func(c *Compiler) {
		c.now = now
	}
}

// Compiler turns expressions into filters, caching compiled programs
type Compiler struct {
	funcs map[string]any
	cache *programCache
	now   func() time.Time
}

// NewCompiler creates a compiler with a cache of DefaultCacheSize expressions
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{
		funcs: make(map[string]any),
		cache: newProgramCache(DefaultCacheSize),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

var defaultCompiler = NewCompiler()

// Compile compiles expression with the package's shared compiler
func Compile(expression string) (*Filter, error) {
	return defaultCompiler.Compile(expression)
}

// Compile parses and type checks expression against the movie environment
func (c *Compiler) Compile(expression string) (*Filter, error) {
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

	// The zero movie gives every variable its static type
	program, err := expr.Compile(expression,
		expr.Env(c.environment(tmdb.Movie{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	f := &Filter{
		expression: expression,
		program:    program,
		env:        c.environment,
	}

	if c.cache != nil {
		c.cache.put(f)
	}

	return f, nil
}

// Clear removes all cached filters
func (c *Compiler) Clear() {
	if c.cache != nil {
		c.cache.clear()
	}
}

// Size returns the number of cached filters
func (c *Compiler) Size() int {
	if c.cache != nil {
		return c.cache.len()
	}
	return 0
}

// environment exposes movie to an expression
func (c *Compiler) environment(movie tmdb.Movie) map[string]any {
	env := make(map[string]any, 24+len(c.funcs))

	addHelperFunctions(env, c.now)

	released := parseDate(movie.ReleaseDate)

	env["Movie"] = movie
	env["ID"] = int(movie.ID)
	env["Title"] = movie.Title
	env["Overview"] = movie.Overview
	env["ReleaseDate"] = movie.ReleaseDate
	env["Released"] = released
	env["Year"] = movie.Year()
	env["Rating"] = movie.VoteAverage
	env["HasPoster"] = movie.PosterPath != ""
	env["HasBackdrop"] = movie.BackdropPath != ""

	env["releasedBefore"] = func(date string) bool {
		return !released.IsZero() && released.Before(parseDate(date))
	}
	env["releasedAfter"] = func(date string) bool {
		return !released.IsZero() && released.After(parseDate(date))
	}
	env["mentions"] = func(word string) bool {
		word = strings.ToLower(word)
		return strings.Contains(strings.ToLower(movie.Title), word) ||
			strings.Contains(strings.ToLower(movie.Overview), word)
	}

	maps.Copy(env, c.funcs)

	return env
}

func addHelperFunctions(env map[string]any, now func() time.Time) {
	// Date helpers
	env["daysSince"] = func(t time.Time) int {
		return int(now().Sub(t).Hours() / 24)
	}
	env["yearsAgo"] = func(years int) time.Time {
		return now().AddDate(-years, 0, 0)
	}
	env["parseDate"] = parseDate
	env["now"] = now
	// String helpers
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
}

// parseDate returns the zero time for dates TMDB leaves empty or malformed
func parseDate(s string) time.Time {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
