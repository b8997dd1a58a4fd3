package descriptor

import (
	"fmt"
	"reflect"

	"github.com/openfroyo/plancore/pkg/accessor"
	"github.com/openfroyo/plancore/pkg/core"
)

// ValueRange is the domain of legal values of a variable.
type ValueRange interface {
	// Size returns the number of values.
	Size() int64

	// Get returns the value at index, 0 <= index < Size.
	Get(index int64) any

	// Contains reports whether value belongs to the range.
	Contains(value any) bool
}

// ListValueRange is a finite value range backed by a slice.
type ListValueRange []any

// Size implements ValueRange.
func (r ListValueRange) Size() int64 { return int64(len(r)) }

// Get implements ValueRange.
func (r ListValueRange) Get(index int64) any { return r[index] }

// Contains implements ValueRange.
func (r ListValueRange) Contains(value any) bool {
	for _, v := range r {
		if core.SameObject(v, value) {
			return true
		}
	}
	return false
}

// IntValueRange is the countable integer range [From, To) stepping by Step.
type IntValueRange struct {
	From, To, Step int64
}

// NewIntValueRange creates [from, to) with step 1.
func NewIntValueRange(from, to int64) IntValueRange {
	return IntValueRange{From: from, To: to, Step: 1}
}

func (r IntValueRange) step() int64 {
	if r.Step <= 0 {
		return 1
	}
	return r.Step
}

// Size implements ValueRange.
func (r IntValueRange) Size() int64 {
	if r.To <= r.From {
		return 0
	}
	return (r.To - r.From + r.step() - 1) / r.step()
}

// Get implements ValueRange. Values are int64.
func (r IntValueRange) Get(index int64) any { return r.From + index*r.step() }

// Contains implements ValueRange for every integer kind.
func (r IntValueRange) Contains(value any) bool {
	rv := reflect.ValueOf(value)
	var v int64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		v = int64(rv.Uint())
	default:
		return false
	}
	return v >= r.From && v < r.To && (v-r.From)%r.step() == 0
}

// CompositeValueRange concatenates several value ranges.
type CompositeValueRange []ValueRange

// Size implements ValueRange.
func (r CompositeValueRange) Size() int64 {
	var n int64
	for _, c := range r {
		n += c.Size()
	}
	return n
}

// Get implements ValueRange.
func (r CompositeValueRange) Get(index int64) any {
	for _, c := range r {
		if index < c.Size() {
			return c.Get(index)
		}
		index -= c.Size()
	}
	panic(fmt.Sprintf("composite value range index %d out of bounds", index))
}

// Contains implements ValueRange.
func (r CompositeValueRange) Contains(value any) bool {
	for _, c := range r {
		if c.Contains(value) {
			return true
		}
	}
	return false
}

// ValueRangeDescriptor is one resolved value range provider.
type ValueRangeDescriptor struct {
	id       string
	kind     ValueRangeKind
	accessor accessor.MemberAccessor

	// entityLevel providers read the entity, others read the solution.
	entityLevel bool
	intRange    IntValueRange
}

// ID returns the provider id.
func (r *ValueRangeDescriptor) ID() string { return r.id }

// Kind returns the provider kind.
func (r *ValueRangeDescriptor) Kind() ValueRangeKind { return r.kind }

// IsEntityLevel reports whether the provider reads each entity rather than the solution.
func (r *ValueRangeDescriptor) IsEntityLevel() bool { return r.entityLevel }

var valueRangeType = reflect.TypeFor[ValueRange]()

// Extract reads the current value range.
func (r *ValueRangeDescriptor) Extract(solution, entity any) (ValueRange, error) {
	if r.kind == RangeInt {
		return r.intRange, nil
	}

	owner := solution
	if r.entityLevel {
		owner = entity
	}
	if c, ok := r.accessor.(accessor.Collection); ok {
		values, err := c.Elements(owner)
		if err != nil {
			return nil, err
		}
		return ListValueRange(values), nil
	}

	v, err := r.accessor.Get(owner)
	if err != nil {
		return nil, err
	}
	if core.IsNil(v) {
		return ListValueRange(nil), nil
	}
	vr, _ := v.(ValueRange)
	return vr, nil
}

func checkValueRangeAccessor(id string, a accessor.MemberAccessor) error {
	if _, ok := a.(accessor.Collection); ok {
		return nil
	}
	if a.DeclaredType().Implements(valueRangeType) {
		return nil
	}
	return core.NewConfigurationError(
		fmt.Sprintf("value range provider %q property %q holds %s, want a collection or a ValueRange",
			id, a.Name(), a.DeclaredType()), nil).
		WithCode(core.ErrCodeInvalidAccessorKind).
		WithVariable(a.Name())
}
