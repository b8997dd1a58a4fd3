package descriptor

import (
	"fmt"
	"reflect"

	"github.com/openfroyo/plancore/pkg/accessor"
	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/lookup"
)

type memberCollection struct {
	accessor accessor.MemberAccessor
	singular bool
}

func (c memberCollection) members(solution any) ([]any, error) {
	if col, ok := c.accessor.(accessor.Collection); ok && !c.singular {
		return col.Elements(solution)
	}
	v, err := c.accessor.Get(solution)
	if err != nil {
		return nil, err
	}
	if core.IsNil(v) {
		return nil, nil
	}
	return []any{v}, nil
}

// SolutionDescriptor is the immutable descriptor table of one solution type.
// It is safe for concurrent use by any number of score directors.
type SolutionDescriptor struct {
	name           string
	typ            reflect.Type
	lookupStrategy lookup.StrategyType

	score             accessor.MemberAccessor
	entityCollections []memberCollection
	factCollections   []memberCollection
	valueRanges       map[string]*ValueRangeDescriptor

	entities     []*EntityDescriptor
	entityByName map[string]*EntityDescriptor
	entityByType map[reflect.Type]*EntityDescriptor

	facts      []*FactDescriptor
	factByName map[string]*FactDescriptor

	ids map[reflect.Type]accessor.MemberAccessor
}

// Name returns the solution type name.
func (s *SolutionDescriptor) Name() string { return s.name }

// Type returns the bound solution Go type.
func (s *SolutionDescriptor) Type() reflect.Type { return s.typ }

// LookupStrategy returns the configured lookup strategy type.
func (s *SolutionDescriptor) LookupStrategy() lookup.StrategyType { return s.lookupStrategy }

// NewLookupResolver creates a lookup strategy resolver backed by this descriptor's ids.
func (s *SolutionDescriptor) NewLookupResolver() *lookup.Resolver {
	return lookup.NewResolver(s.lookupStrategy, s)
}

// IDAccessor implements lookup.IDAccessorProvider.
func (s *SolutionDescriptor) IDAccessor(t reflect.Type) (accessor.MemberAccessor, bool) {
	a, ok := s.ids[t]
	return a, ok
}

// EntityDescriptors returns every entity type, in declaration order.
func (s *SolutionDescriptor) EntityDescriptors() []*EntityDescriptor { return s.entities }

// EntityDescriptorByName returns the entity type called name.
func (s *SolutionDescriptor) EntityDescriptorByName(name string) (*EntityDescriptor, bool) {
	e, ok := s.entityByName[name]
	return e, ok
}

// EntityDescriptorFor returns the entity type of entity's dynamic type.
func (s *SolutionDescriptor) EntityDescriptorFor(entity any) (*EntityDescriptor, bool) {
	if entity == nil {
		return nil, false
	}
	e, ok := s.entityByType[reflect.TypeOf(entity)]
	return e, ok
}

// VariableDescriptorFor returns the variable called name on entity's type.
func (s *SolutionDescriptor) VariableDescriptorFor(entity any, name string) (*VariableDescriptor, error) {
	e, ok := s.EntityDescriptorFor(entity)
	if !ok {
		return nil, core.NewUsageError(fmt.Sprintf("%T is not a planning entity of %s", entity, s.name), nil).
			WithCode(core.ErrCodeUnknownEntityType).
			WithVariable(name)
	}
	v, ok := e.Variable(name)
	if !ok {
		return nil, e.unknownVariable(name)
	}
	return v, nil
}

// FactDescriptors returns every declared fact type.
func (s *SolutionDescriptor) FactDescriptors() []*FactDescriptor { return s.facts }

// FactDescriptorByName returns the fact type called name.
func (s *SolutionDescriptor) FactDescriptorByName(name string) (*FactDescriptor, bool) {
	f, ok := s.factByName[name]
	return f, ok
}

// ValueRangeDescriptor returns the solution-level provider with id.
func (s *SolutionDescriptor) ValueRangeDescriptor(id string) (*ValueRangeDescriptor, bool) {
	r, ok := s.valueRanges[id]
	return r, ok
}

// Entities returns every entity of solution, collection by collection.
func (s *SolutionDescriptor) Entities(solution any) ([]any, error) {
	var out []any
	for _, c := range s.entityCollections {
		members, err := c.members(solution)
		if err != nil {
			return nil, err
		}
		out = append(out, members...)
	}
	return out, nil
}

// Facts returns every problem fact of solution.
func (s *SolutionDescriptor) Facts(solution any) ([]any, error) {
	var out []any
	for _, c := range s.factCollections {
		members, err := c.members(solution)
		if err != nil {
			return nil, err
		}
		out = append(out, members...)
	}
	return out, nil
}

// WorkingObjects returns every fact and entity of solution, facts first.
func (s *SolutionDescriptor) WorkingObjects(solution any) ([]any, error) {
	facts, err := s.Facts(solution)
	if err != nil {
		return nil, err
	}
	entities, err := s.Entities(solution)
	if err != nil {
		return nil, err
	}
	return append(facts, entities...), nil
}

// HasScore reports whether a score property is declared.
func (s *SolutionDescriptor) HasScore() bool { return s.score != nil }

// Score reads the score property. It returns nil when none is declared or set.
func (s *SolutionDescriptor) Score(solution any) (core.Score, error) {
	if s.score == nil {
		return nil, nil
	}
	v, err := s.score.Get(solution)
	if err != nil || core.IsNil(v) {
		return nil, err
	}
	score, ok := v.(core.Score)
	if !ok {
		return nil, core.NewUsageError(fmt.Sprintf("score property holds %T, not a core.Score", v), nil).
			WithCode(core.ErrCodeTypeMismatch).
			WithVariable(s.score.Name())
	}
	return score, nil
}

// SetScore writes the score property. It is a no-op when none is declared.
func (s *SolutionDescriptor) SetScore(solution any, score core.Score) error {
	if s.score == nil {
		return nil
	}
	return s.score.Set(solution, score)
}

// IsInitialized reports whether every genuine scalar variable of every entity is assigned.
func (s *SolutionDescriptor) IsInitialized(solution any) (bool, error) {
	entities, err := s.Entities(solution)
	if err != nil {
		return false, err
	}
	for _, entity := range entities {
		e, ok := s.EntityDescriptorFor(entity)
		if !ok {
			continue
		}
		initialized, err := e.IsInitialized(entity)
		if err != nil || !initialized {
			return false, err
		}
	}
	return true, nil
}
