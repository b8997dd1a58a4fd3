package director

import "github.com/openfroyo/plancore/pkg/core"

// ScoreCalculator computes the score of a whole working solution.
type ScoreCalculator[S any] interface {
	CalculateScore(solution S) (core.Score, error)
}

// CalculatorFunc adapts a function to ScoreCalculator.
type CalculatorFunc[S any] func(solution S) (core.Score, error)

// CalculateScore calls f(solution).
func (f CalculatorFunc[S]) CalculateScore(solution S) (core.Score, error) {
	return f(solution)
}

// IncrementalScoreCalculator keeps its own score state up to date from notifications.
// It receives every before- and after-call as it happens, including the shadow
// variable pairs opened by listeners, after ResetWorkingSolution has run once.
type IncrementalScoreCalculator[S any] interface {
	ScoreCalculator[S]

	ResetWorkingSolution(solution S) error
	Notify(n Notification) error
}
