// Package supply implements the Demand/Supply contract: a reference-counted cache
// that maps value-equal demands to one lazily built derived artifact.
//
// Demands are map keys. Two demands are equal when they compare equal with ==,
// so a demand is usually a small struct value holding the descriptor pointers that
// identify what it derives. Pointer demands are only equal to themselves.
package supply

import (
	"fmt"

	"github.com/openfroyo/plancore/pkg/core"
)

// Supply is a derived artifact built for a Demand, such as an inverse index.
type Supply any

// Demand identifies a Supply by value equality and knows how to build it.
type Demand interface {
	// CreateExternalizedSupply builds the supply. Called at most once per cached entry.
	// It may demand other supplies from m, but never its own demand.
	CreateExternalizedSupply(m Manager) Supply
}

// Destroyable is implemented by supplies that release resources when the cache drops them.
type Destroyable interface {
	Destroy()
}

// Manager hands out shared supplies and tracks how many consumers hold each one.
type Manager interface {
	// Demand returns the supply for d, creating it on first demand.
	// Equal demands yield the identical supply while either remains active.
	Demand(d Demand) (Supply, error)

	// Cancel releases one hold on d. It reports whether a hold was released.
	Cancel(d Demand) bool

	// ActiveCount returns the number of holds on d, or 0 when d is unknown.
	ActiveCount(d Demand) int
}

// DemandAs demands d and asserts the supply type.
func DemandAs[S any](m Manager, d Demand) (S, error) {
	var zero S
	s, err := m.Demand(d)
	if err != nil {
		return zero, err
	}
	typed, ok := s.(S)
	if !ok {
		m.Cancel(d)
		return zero, core.NewUsageError(fmt.Sprintf("demand %T produced supply %T", d, s), nil).
			WithCode(core.ErrCodeTypeMismatch).
			WithOperation("demand")
	}
	return typed, nil
}
