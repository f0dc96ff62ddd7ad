// Package ladder implements ordered threshold rule tables: a list of
// predicate/score pairs evaluated top to bottom, first match wins, with
// an explicit fallback. Every scoring rule in the engine is one of these
// so thresholds stay independently testable and re-orderable.
package ladder

// Rule is one rung of a ladder.
type Rule[T any] struct {
	When  func(T) bool
	Score float64
}

// Table is an ordered ladder with a fallback score.
type Table[T any] struct {
	Rules    []Rule[T]
	Fallback float64
}

// Eval walks the ladder once and returns the first matching score,
// or the fallback when no rung matches.
func (t Table[T]) Eval(v T) float64 {
	for _, rule := range t.Rules {
		if rule.When != nil && rule.When(v) {
			return rule.Score
		}
	}
	return t.Fallback
}
