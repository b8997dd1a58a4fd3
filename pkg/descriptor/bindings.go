package descriptor

import (
	"reflect"

	"github.com/openfroyo/plancore/pkg/accessor"
	"github.com/openfroyo/plancore/pkg/listener"
)

// PinningFilter reports whether entity is pinned in solution and must not move.
type PinningFilter func(solution, entity any) bool

// DifficultyComparator orders entities by difficulty: negative when a is easier than b.
type DifficultyComparator func(a, b any) int

// DifficultyWeightFactory computes an entity's difficulty weight. Higher is more difficult.
type DifficultyWeightFactory func(solution, entity any) int64

// ListenerFactory creates the listener that maintains a custom shadow variable.
// The listener must implement listener.VariableListener or listener.ListVariableListener,
// matching the kind of its source variables.
type ListenerFactory func(shadow *VariableDescriptor) listener.Listener

type boundType struct {
	typ       reflect.Type
	accessors map[string]accessor.MemberAccessor
}

// Bindings holds the code-side capabilities that a SolutionConfig references by name:
// domain types with their property accessors, filters, comparators and listener factories.
type Bindings struct {
	types       map[string]*boundType
	filters     map[string]PinningFilter
	comparators map[string]DifficultyComparator
	weights     map[string]DifficultyWeightFactory
	listeners   map[string]ListenerFactory
}

// NewBindings creates empty bindings.
func NewBindings() *Bindings {
	return &Bindings{
		types:       make(map[string]*boundType),
		filters:     make(map[string]PinningFilter),
		comparators: make(map[string]DifficultyComparator),
		weights:     make(map[string]DifficultyWeightFactory),
		listeners:   make(map[string]ListenerFactory),
	}
}

// Bind registers the Go type T under name together with its property accessors.
// T may be an interface type for an abstract parent entity. Binding the same name
// again adds accessors.
func Bind[T any](b *Bindings, name string, accessors ...accessor.MemberAccessor) *Bindings {
	bt, ok := b.types[name]
	if !ok {
		bt = &boundType{typ: reflect.TypeFor[T](), accessors: make(map[string]accessor.MemberAccessor)}
		b.types[name] = bt
	}
	for _, a := range accessors {
		bt.accessors[a.Name()] = a
	}
	return b
}

// PinningFilter registers a pinning filter.
func (b *Bindings) PinningFilter(name string, f PinningFilter) *Bindings {
	b.filters[name] = f
	return b
}

// DifficultyComparator registers a difficulty comparator.
func (b *Bindings) DifficultyComparator(name string, c DifficultyComparator) *Bindings {
	b.comparators[name] = c
	return b
}

// DifficultyWeightFactory registers a difficulty weight factory.
func (b *Bindings) DifficultyWeightFactory(name string, f DifficultyWeightFactory) *Bindings {
	b.weights[name] = f
	return b
}

// ListenerFactory registers a custom shadow listener factory.
func (b *Bindings) ListenerFactory(name string, f ListenerFactory) *Bindings {
	b.listeners[name] = f
	return b
}

func (b *Bindings) accessor(typeName, property string) (accessor.MemberAccessor, bool) {
	bt, ok := b.types[typeName]
	if !ok {
		return nil, false
	}
	a, ok := bt.accessors[property]
	return a, ok
}
