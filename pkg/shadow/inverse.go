// Package shadow provides the built-in supplies and listeners that derive
// values from genuine variables: inverse relations and list element state.
package shadow

import (
	"fmt"

	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/descriptor"
	"github.com/openfroyo/plancore/pkg/listener"
	"github.com/openfroyo/plancore/pkg/supply"
)

// Sourced is implemented by supplies that must observe a source variable.
// The score director registers them as listeners when the supply is created.
type Sourced interface {
	SourceVariableDescriptor() *descriptor.VariableDescriptor
}

// SingletonInverseDemand demands the inverse of a scalar variable: for each value,
// the one entity whose variable holds it.
type SingletonInverseDemand struct {
	Variable *descriptor.VariableDescriptor
}

// CreateExternalizedSupply implements supply.Demand.
func (d SingletonInverseDemand) CreateExternalizedSupply(supply.Manager) supply.Supply {
	return NewSingletonInverse(d.Variable)
}

// String identifies the demand in logs.
func (d SingletonInverseDemand) String() string {
	return "SingletonInverse(" + d.Variable.String() + ")"
}

// SingletonInverse maps each value of a scalar variable to the entity holding it.
// Two entities holding the same value is a usage error.
type SingletonInverse struct {
	listener.Base

	variable *descriptor.VariableDescriptor
	inverse  map[any]any
}

var (
	_ listener.VariableListener = (*SingletonInverse)(nil)
	_ Sourced                   = (*SingletonInverse)(nil)
)

// NewSingletonInverse creates an empty inverse for variable. ResetWorkingSolution fills it.
func NewSingletonInverse(variable *descriptor.VariableDescriptor) *SingletonInverse {
	return &SingletonInverse{variable: variable, inverse: make(map[any]any)}
}

// SourceVariableDescriptor implements Sourced.
func (s *SingletonInverse) SourceVariableDescriptor() *descriptor.VariableDescriptor {
	return s.variable
}

// Inverse returns the entity whose variable holds value.
func (s *SingletonInverse) Inverse(value any) (any, bool) {
	if core.IsNil(value) || !core.IsComparable(value) {
		return nil, false
	}
	e, ok := s.inverse[value]
	return e, ok
}

// Len returns the number of values held by some entity.
func (s *SingletonInverse) Len() int { return len(s.inverse) }

// ResetWorkingSolution implements listener.Listener.
func (s *SingletonInverse) ResetWorkingSolution(d listener.ScoreDirector) error {
	s.inverse = make(map[any]any)
	entities, err := d.WorkingEntities()
	if err != nil {
		return err
	}
	for _, e := range entities {
		if s.variable.EntityDescriptor().Accepts(e) {
			if err := s.insert(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *SingletonInverse) BeforeEntityAdded(listener.ScoreDirector, any) error { return nil }

func (s *SingletonInverse) AfterEntityAdded(_ listener.ScoreDirector, entity any) error {
	return s.insert(entity)
}

func (s *SingletonInverse) BeforeEntityRemoved(_ listener.ScoreDirector, entity any) error {
	return s.retract(entity)
}

func (s *SingletonInverse) AfterEntityRemoved(listener.ScoreDirector, any) error { return nil }

func (s *SingletonInverse) BeforeVariableChanged(_ listener.ScoreDirector, entity any, _ string) error {
	return s.retract(entity)
}

func (s *SingletonInverse) AfterVariableChanged(_ listener.ScoreDirector, entity any, _ string) error {
	return s.insert(entity)
}

func (s *SingletonInverse) insert(entity any) error {
	value, err := s.variable.Get(entity)
	if err != nil || core.IsNil(value) {
		return err
	}
	if !core.IsComparable(value) {
		return core.NewUsageError(fmt.Sprintf("value %T of %s cannot key an inverse", value, s.variable), nil).
			WithCode(core.ErrCodeNonComparable).
			WithVariable(s.variable.Name())
	}
	if existing, ok := s.inverse[value]; ok && !core.SameObject(existing, entity) {
		return core.NewUsageError(fmt.Sprintf("value %v of %s is held by both %v and %v", value, s.variable, existing, entity), nil).
			WithCode(core.ErrCodeDuplicateKey).
			WithEntity(fmt.Sprintf("%v", entity)).
			WithVariable(s.variable.Name())
	}
	s.inverse[value] = entity
	return nil
}

func (s *SingletonInverse) retract(entity any) error {
	value, err := s.variable.Get(entity)
	if err != nil || core.IsNil(value) || !core.IsComparable(value) {
		return err
	}
	if existing, ok := s.inverse[value]; ok && core.SameObject(existing, entity) {
		delete(s.inverse, value)
	}
	return nil
}
