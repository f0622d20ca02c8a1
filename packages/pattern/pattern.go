// Package pattern turns search targets into matchers over response text.
package pattern

import (
	"fmt"
	"regexp"
)

// Matcher searches text and returns the match followed by its submatches,
// or nil when there is no match.
type Matcher func(text string) []string

// Searcher is anything with a regexp-style search, *regexp.Regexp included.
type Searcher interface {
	FindStringSubmatch(s string) []string
}

// PatternError reports a value that cannot be used as a pattern.
type PatternError struct {
	Value any
	Err   error
}

func (e *PatternError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot make a pattern out of %#v: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("cannot make a pattern out of %#v", e.Value)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// MakePattern normalizes v into a Matcher. A nil v yields a nil Matcher,
// meaning no constraint.
func MakePattern(v any) (Matcher, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return compile(string(p))
	case string:
		return compile(p)
	case Searcher:
		if isNilSearcher(p) {
			return nil, &PatternError{Value: v}
		}
		return p.FindStringSubmatch, nil
	case Matcher:
		if p == nil {
			return nil, nil
		}
		return p, nil
	case func(string) []string:
		if p == nil {
			return nil, nil
		}
		return p, nil
	case func(string) bool:
		if p == nil {
			return nil, nil
		}
		return func(text string) []string {
			if p(text) {
				return []string{text}
			}
			return nil
		}, nil
	default:
		return nil, &PatternError{Value: v}
	}
}

// MustMakePattern is MakePattern that panics on error.
func MustMakePattern(v any) Matcher {
	m, err := MakePattern(v)
	if err != nil {
		panic(err)
	}
	return m
}

// Matches reports whether m finds anything in text. A nil Matcher matches
// everything.
func (m Matcher) Matches(text string) bool {
	if m == nil {
		return true
	}
	return m(text) != nil
}

func compile(expr string) (Matcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &PatternError{Value: expr, Err: err}
	}
	return re.FindStringSubmatch, nil
}

func isNilSearcher(s Searcher) bool {
	re, ok := s.(*regexp.Regexp)
	return ok && re == nil
}
