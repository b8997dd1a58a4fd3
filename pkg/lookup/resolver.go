package lookup

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/openfroyo/plancore/pkg/accessor"
	"github.com/openfroyo/plancore/pkg/core"
)

// IDAccessorProvider exposes the planning id accessor declared for a type.
// The solution descriptor implements it.
type IDAccessorProvider interface {
	IDAccessor(t reflect.Type) (accessor.MemberAccessor, bool)
}

// Resolver determines and caches the Strategy for each Go type.
// Safe for concurrent use.
type Resolver struct {
	strategyType StrategyType
	ids          IDAccessorProvider

	mu    sync.RWMutex
	cache map[reflect.Type]resolution
}

type resolution struct {
	strategy Strategy
	err      error
}

// NewResolver creates a resolver for the given strategy type.
// ids may be nil when no type declares a planning id.
func NewResolver(strategyType StrategyType, ids IDAccessorProvider) *Resolver {
	if strategyType == "" {
		strategyType = StrategyPlanningIDOrNone
	}
	return &Resolver{
		strategyType: strategyType,
		ids:          ids,
		cache:        make(map[reflect.Type]resolution),
	}
}

// StrategyType returns the configured strategy type.
func (r *Resolver) StrategyType() StrategyType {
	return r.strategyType
}

// Resolve returns the strategy for the dynamic type of object.
func (r *Resolver) Resolve(object any) (Strategy, error) {
	t := reflect.TypeOf(object)

	r.mu.RLock()
	res, ok := r.cache[t]
	r.mu.RUnlock()
	if ok {
		return res.strategy, res.err
	}

	strategy, err := r.determine(t)

	r.mu.Lock()
	r.cache[t] = resolution{strategy: strategy, err: err}
	r.mu.Unlock()

	return strategy, err
}

func (r *Resolver) determine(t reflect.Type) (Strategy, error) {
	if r.strategyType == StrategyNone {
		return &disabledStrategy{reason: "the lookup strategy is NONE"}, nil
	}
	if isImmutable(t) {
		return immutableStrategy{}, nil
	}

	switch r.strategyType {
	case StrategyPlanningIDOrNone:
		if id, ok := r.idAccessor(t); ok {
			return newPlanningIDStrategy(id), nil
		}
		return &disabledStrategy{reason: fmt.Sprintf("type %s declares no planning id", t)}, nil

	case StrategyPlanningIDOrFailFast:
		if id, ok := r.idAccessor(t); ok {
			return newPlanningIDStrategy(id), nil
		}
		return nil, core.NewUsageError(fmt.Sprintf("type %s declares no planning id, required by %s", t, r.strategyType), nil).
			WithCode(core.ErrCodeLookupUnsupported).
			WithOperation("resolve_lookup_strategy")

	case StrategyEquality:
		if t.Implements(reflect.TypeFor[Equatable]()) {
			return newEqualityStrategy(), nil
		}
		if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface && t.Comparable() {
			return newEqualityStrategy(), nil
		}
		return nil, core.NewUsageError(fmt.Sprintf("type %s has no value equality (implement lookup.Equatable)", t), nil).
			WithCode(core.ErrCodeLookupUnsupported).
			WithOperation("resolve_lookup_strategy")
	}

	return nil, core.NewConfigurationError(fmt.Sprintf("unknown lookup strategy type %q", r.strategyType), nil).
		WithCode(core.ErrCodeInvalidConfig)
}

func (r *Resolver) idAccessor(t reflect.Type) (accessor.MemberAccessor, bool) {
	if r.ids == nil {
		return nil, false
	}
	return r.ids.IDAccessor(t)
}

var immutableTypes = map[reflect.Type]bool{
	reflect.TypeFor[time.Time]():     true,
	reflect.TypeFor[time.Duration](): true,
	reflect.TypeFor[time.Month]():    true,
	reflect.TypeFor[time.Weekday]():  true,
}

// isImmutable reports whether values of t can stand for themselves in any working solution.
func isImmutable(t reflect.Type) bool {
	if immutableTypes[t] {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}
