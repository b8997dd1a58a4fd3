package descriptor

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/openfroyo/plancore/pkg/accessor"
	"github.com/openfroyo/plancore/pkg/core"
)

// EntityDescriptor describes one planning entity type.
type EntityDescriptor struct {
	name     string
	typ      reflect.Type
	solution *SolutionDescriptor
	parent   *EntityDescriptor

	id     accessor.MemberAccessor
	pinned accessor.MemberAccessor

	pinningFilter PinningFilter
	comparator    DifficultyComparator
	weightFactory DifficultyWeightFactory

	// variables holds declared and inherited variables, parents first.
	variables  []*VariableDescriptor
	byName     map[string]*VariableDescriptor
	declared   []*VariableDescriptor
	valueRange map[string]*ValueRangeDescriptor
}

// Name returns the entity type name.
func (e *EntityDescriptor) Name() string { return e.name }

// Type returns the bound Go type. It is an interface type for abstract parents.
func (e *EntityDescriptor) Type() reflect.Type { return e.typ }

// Parent returns the extended entity type, or nil.
func (e *EntityDescriptor) Parent() *EntityDescriptor { return e.parent }

// SolutionDescriptor returns the owning solution descriptor.
func (e *EntityDescriptor) SolutionDescriptor() *SolutionDescriptor { return e.solution }

// IDAccessor returns the planning id accessor, declared or inherited.
func (e *EntityDescriptor) IDAccessor() (accessor.MemberAccessor, bool) {
	return e.id, e.id != nil
}

// Variables returns every variable, inherited ones first.
func (e *EntityDescriptor) Variables() []*VariableDescriptor { return e.variables }

// DeclaredVariables returns the variables declared on this type only.
func (e *EntityDescriptor) DeclaredVariables() []*VariableDescriptor { return e.declared }

// GenuineVariables returns the variables assigned by the search layer.
func (e *EntityDescriptor) GenuineVariables() []*VariableDescriptor {
	var out []*VariableDescriptor
	for _, v := range e.variables {
		if v.IsGenuine() {
			out = append(out, v)
		}
	}
	return out
}

// ShadowVariables returns the derived variables.
func (e *EntityDescriptor) ShadowVariables() []*VariableDescriptor {
	var out []*VariableDescriptor
	for _, v := range e.variables {
		if v.IsShadow() {
			out = append(out, v)
		}
	}
	return out
}

// Variable returns the variable called name.
func (e *EntityDescriptor) Variable(name string) (*VariableDescriptor, bool) {
	v, ok := e.byName[name]
	return v, ok
}

// HasDifficulty reports whether a comparator or weight factory is declared or inherited.
func (e *EntityDescriptor) HasDifficulty() bool {
	c, w := e.difficulty()
	return c != nil || w != nil
}

// IsMovable evaluates the effective movable filter: the entity is movable unless its
// pinned flag is set, its own pinning filter pins it, or a parent's filter does.
// Evaluation short-circuits in that order. Without any declaration it is true.
func (e *EntityDescriptor) IsMovable(solution, entity any) (bool, error) {
	if e.pinned != nil {
		v, err := e.pinned.Get(entity)
		if err != nil {
			return false, err
		}
		// the pinned property may have any bool kind
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Bool && rv.Bool() {
			return false, nil
		}
	}
	if e.pinningFilter != nil && e.pinningFilter(solution, entity) {
		return false, nil
	}
	if e.parent != nil {
		return e.parent.IsMovable(solution, entity)
	}
	return true, nil
}

// IsInitialized reports whether every genuine scalar variable is assigned.
func (e *EntityDescriptor) IsInitialized(entity any) (bool, error) {
	for _, v := range e.variables {
		ok, err := v.IsInitialized(entity)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// SortByDifficulty sorts entities ascending by difficulty, easiest first. The sort is
// stable. Without a comparator or weight factory the order is left unchanged.
func (e *EntityDescriptor) SortByDifficulty(solution any, entities []any) {
	comparator, weightFactory := e.difficulty()
	switch {
	case comparator != nil:
		slices.SortStableFunc(entities, comparator)
	case weightFactory != nil:
		weights := make(map[int]int64, len(entities))
		order := make([]int, len(entities))
		for i, entity := range entities {
			order[i] = i
			weights[i] = weightFactory(solution, entity)
		}
		slices.SortStableFunc(order, func(a, b int) int {
			switch {
			case weights[a] < weights[b]:
				return -1
			case weights[a] > weights[b]:
				return 1
			}
			return 0
		})
		sorted := make([]any, len(entities))
		for i, idx := range order {
			sorted[i] = entities[idx]
		}
		copy(entities, sorted)
	}
}

func (e *EntityDescriptor) difficulty() (DifficultyComparator, DifficultyWeightFactory) {
	for d := e; d != nil; d = d.parent {
		if d.comparator != nil || d.weightFactory != nil {
			return d.comparator, d.weightFactory
		}
	}
	return nil, nil
}

// Accepts reports whether entity is an instance of this entity type.
func (e *EntityDescriptor) Accepts(entity any) bool {
	if entity == nil {
		return false
	}
	return reflect.TypeOf(entity).AssignableTo(e.typ)
}

// String returns the entity type name.
func (e *EntityDescriptor) String() string { return e.name }

func (e *EntityDescriptor) lookupValueRange(id string) (*ValueRangeDescriptor, bool) {
	for d := e; d != nil; d = d.parent {
		if r, ok := d.valueRange[id]; ok {
			return r, true
		}
	}
	return nil, false
}

func (e *EntityDescriptor) unknownVariable(name string) error {
	return core.NewUsageError(fmt.Sprintf("entity type %s declares no variable %q", e.name, name), nil).
		WithCode(core.ErrCodeUnknownVariable).
		WithVariable(name)
}

// FactDescriptor describes one problem fact type.
type FactDescriptor struct {
	name string
	typ  reflect.Type
	id   accessor.MemberAccessor
}

// Name returns the fact type name.
func (f *FactDescriptor) Name() string { return f.name }

// Type returns the bound Go type.
func (f *FactDescriptor) Type() reflect.Type { return f.typ }

// IDAccessor returns the planning id accessor.
func (f *FactDescriptor) IDAccessor() (accessor.MemberAccessor, bool) {
	return f.id, f.id != nil
}
