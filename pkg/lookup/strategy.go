// Package lookup maps external (detached) objects to their canonical working
// counterparts in the working solution.
//
// A StrategyType is configured once per solution. The Resolver turns it into a
// concrete Strategy per Go type, and the Manager keeps the registry every
// strategy reads and writes.
package lookup

import (
	"fmt"
	"reflect"

	"github.com/openfroyo/plancore/pkg/accessor"
	"github.com/openfroyo/plancore/pkg/core"
)

// StrategyType selects how external objects are matched to working objects.
type StrategyType string

const (
	// StrategyPlanningIDOrNone matches by planning id; types without an id accessor
	// have lookup disabled.
	StrategyPlanningIDOrNone StrategyType = "PLANNING_ID_OR_NONE"

	// StrategyPlanningIDOrFailFast matches by planning id; a type without an id accessor
	// is a configuration error at descriptor-build time.
	StrategyPlanningIDOrFailFast StrategyType = "PLANNING_ID_OR_FAIL_FAST"

	// StrategyEquality matches by the object's own value equality.
	StrategyEquality StrategyType = "EQUALITY"

	// StrategyNone disallows lookup entirely.
	StrategyNone StrategyType = "NONE"
)

// Valid reports whether t names a known strategy.
func (t StrategyType) Valid() bool {
	switch t {
	case StrategyPlanningIDOrNone, StrategyPlanningIDOrFailFast, StrategyEquality, StrategyNone:
		return true
	}
	return false
}

// Equatable is implemented by types that provide real value equality.
// Two objects with equal keys are the same object for EQUALITY lookups.
type Equatable interface {
	EqualityKey() any
}

// Strategy adds, removes and resolves objects of one Go type against the registry.
type Strategy interface {
	// Name identifies the strategy in logs and errors.
	Name() string

	AddWorkingObject(registry map[any]any, workingObject any) error
	RemoveWorkingObject(registry map[any]any, workingObject any) error

	// LookUpWorkingObject fails with a lookup miss when nothing is registered.
	LookUpWorkingObject(registry map[any]any, externalObject any) (any, error)

	// LookUpWorkingObjectIfExists returns nil instead of a lookup miss.
	LookUpWorkingObjectIfExists(registry map[any]any, externalObject any) (any, error)
}

// registryKey scopes keys per Go type so distinct types may reuse an id value.
type registryKey struct {
	typ reflect.Type
	key any
}

func describe(object any) string {
	return fmt.Sprintf("%T(%v)", object, object)
}

// keyedStrategy implements registry bookkeeping for strategies that derive a key per object.
type keyedStrategy struct {
	name   string
	keyFor func(object any) (any, error)
}

func (s *keyedStrategy) Name() string { return s.name }

func (s *keyedStrategy) key(object any) (registryKey, error) {
	k, err := s.keyFor(object)
	if err != nil {
		return registryKey{}, err
	}
	if k != nil && !core.IsComparable(k) {
		return registryKey{}, core.NewUsageError(fmt.Sprintf("lookup key of type %T is not comparable", k), nil).
			WithCode(core.ErrCodeNonComparable).
			WithEntity(describe(object))
	}
	return registryKey{typ: reflect.TypeOf(object), key: k}, nil
}

func (s *keyedStrategy) AddWorkingObject(registry map[any]any, workingObject any) error {
	k, err := s.key(workingObject)
	if err != nil {
		return err
	}
	if existing, ok := registry[k]; ok && !core.SameObject(existing, workingObject) {
		return core.NewUsageError(fmt.Sprintf("working objects %s and %s share the lookup key %v",
			describe(existing), describe(workingObject), k.key), nil).
			WithCode(core.ErrCodeDuplicateKey).
			WithOperation("add_working_object").
			WithEntity(describe(workingObject))
	}
	registry[k] = workingObject
	return nil
}

func (s *keyedStrategy) RemoveWorkingObject(registry map[any]any, workingObject any) error {
	k, err := s.key(workingObject)
	if err != nil {
		return err
	}
	existing, ok := registry[k]
	if !ok || !core.SameObject(existing, workingObject) {
		return core.NewUsageError(fmt.Sprintf("working object %s is not the registered object for key %v",
			describe(workingObject), k.key), nil).
			WithCode(core.ErrCodeNotRegistered).
			WithOperation("remove_working_object").
			WithEntity(describe(workingObject))
	}
	delete(registry, k)
	return nil
}

func (s *keyedStrategy) LookUpWorkingObject(registry map[any]any, externalObject any) (any, error) {
	working, err := s.LookUpWorkingObjectIfExists(registry, externalObject)
	if err != nil {
		return nil, err
	}
	if working == nil {
		return nil, core.NewLookupMissError(fmt.Sprintf("no working object matches external object %s", describe(externalObject)), nil).
			WithOperation("look_up_working_object").
			WithEntity(describe(externalObject)).
			WithDetail("strategy", s.name)
	}
	return working, nil
}

func (s *keyedStrategy) LookUpWorkingObjectIfExists(registry map[any]any, externalObject any) (any, error) {
	k, err := s.key(externalObject)
	if err != nil {
		return nil, err
	}
	return registry[k], nil
}

// newPlanningIDStrategy matches objects by the value of their id accessor.
func newPlanningIDStrategy(idAccessor accessor.MemberAccessor) Strategy {
	return &keyedStrategy{
		name: "planning_id",
		keyFor: func(object any) (any, error) {
			id, err := idAccessor.Get(object)
			if err != nil {
				return nil, err
			}
			if core.IsNil(id) {
				return nil, core.NewUsageError(fmt.Sprintf("object %s has a nil planning id", describe(object)), nil).
					WithCode(core.ErrCodeNilPlanningID).
					WithVariable(idAccessor.Name()).
					WithEntity(describe(object))
			}
			// nullable ids key on the pointed-to value
			if rv := reflect.ValueOf(id); rv.Kind() == reflect.Pointer {
				return rv.Elem().Interface(), nil
			}
			return id, nil
		},
	}
}

// newEqualityStrategy matches objects by EqualityKey or by their own comparable value.
func newEqualityStrategy() Strategy {
	return &keyedStrategy{
		name: "equality",
		keyFor: func(object any) (any, error) {
			if e, ok := object.(Equatable); ok {
				return e.EqualityKey(), nil
			}
			return object, nil
		},
	}
}

// immutableStrategy resolves immutable values to themselves; they are never registered.
type immutableStrategy struct{}

func (immutableStrategy) Name() string                               { return "immutable" }
func (immutableStrategy) AddWorkingObject(map[any]any, any) error    { return nil }
func (immutableStrategy) RemoveWorkingObject(map[any]any, any) error { return nil }

func (immutableStrategy) LookUpWorkingObject(_ map[any]any, externalObject any) (any, error) {
	return externalObject, nil
}

func (immutableStrategy) LookUpWorkingObjectIfExists(_ map[any]any, externalObject any) (any, error) {
	return externalObject, nil
}

// disabledStrategy ignores registration and fails every lookup.
type disabledStrategy struct {
	reason string
}

func (s *disabledStrategy) Name() string                               { return "none" }
func (s *disabledStrategy) AddWorkingObject(map[any]any, any) error    { return nil }
func (s *disabledStrategy) RemoveWorkingObject(map[any]any, any) error { return nil }

func (s *disabledStrategy) LookUpWorkingObject(_ map[any]any, externalObject any) (any, error) {
	return nil, core.NewUsageError(fmt.Sprintf("lookup of %s is disabled: %s", describe(externalObject), s.reason), nil).
		WithCode(core.ErrCodeLookupDisabled).
		WithOperation("look_up_working_object").
		WithEntity(describe(externalObject))
}

func (s *disabledStrategy) LookUpWorkingObjectIfExists(registry map[any]any, externalObject any) (any, error) {
	return s.LookUpWorkingObject(registry, externalObject)
}
