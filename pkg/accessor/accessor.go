// Package accessor provides uniform handles to named properties of domain objects.
//
// A MemberAccessor reads and writes one property of one Go type. Accessors are
// built from typed closures, so no reflection is needed to reach the property;
// reflect is used only to report declared types and to check nil assignability.
package accessor

import (
	"fmt"
	"reflect"

	"github.com/openfroyo/plancore/pkg/core"
)

// MemberAccessor is a handle to one named property of a domain type.
type MemberAccessor interface {
	// Name returns the property name.
	Name() string

	// DeclaredType returns the type of the property value.
	DeclaredType() reflect.Type

	// DeclaringType returns the type of the objects this accessor was built for.
	DeclaringType() reflect.Type

	// Get reads the property. Fails with a TypeMismatch usage error when object
	// is not of the declaring type.
	Get(object any) (any, error)

	// Set writes the property in place. Same failure mode as Get.
	Set(object, value any) error

	// ReadOnly reports whether Set always fails.
	ReadOnly() bool
}

// Collection is a MemberAccessor whose property holds an ordered sequence.
type Collection interface {
	MemberAccessor

	// ElementType returns the type of the sequence elements.
	ElementType() reflect.Type

	// Elements returns a copy of the sequence as untyped values.
	Elements(object any) ([]any, error)

	// SetElements replaces the sequence.
	SetElements(object any, elements []any) error
}

// Func is a MemberAccessor backed by typed getter and setter closures.
type Func[T any, V any] struct {
	name string
	get  func(T) V
	set  func(T, V)
}

// New creates an accessor for the property name of type T holding a V.
func New[T any, V any](name string, get func(T) V, set func(T, V)) *Func[T, V] {
	return &Func[T, V]{name: name, get: get, set: set}
}

// ReadOnly creates an accessor without a setter.
func ReadOnly[T any, V any](name string, get func(T) V) *Func[T, V] {
	return &Func[T, V]{name: name, get: get}
}

// Name implements MemberAccessor.
func (a *Func[T, V]) Name() string { return a.name }

// DeclaredType implements MemberAccessor.
func (a *Func[T, V]) DeclaredType() reflect.Type { return reflect.TypeFor[V]() }

// DeclaringType implements MemberAccessor.
func (a *Func[T, V]) DeclaringType() reflect.Type { return reflect.TypeFor[T]() }

// ReadOnly implements MemberAccessor.
func (a *Func[T, V]) ReadOnly() bool { return a.set == nil }

// Get implements MemberAccessor.
func (a *Func[T, V]) Get(object any) (any, error) {
	t, err := a.target(object, "get")
	if err != nil {
		return nil, err
	}
	return a.get(t), nil
}

// GetValue reads the property without boxing.
func (a *Func[T, V]) GetValue(object T) V {
	return a.get(object)
}

// Set implements MemberAccessor.
func (a *Func[T, V]) Set(object, value any) error {
	t, err := a.target(object, "set")
	if err != nil {
		return err
	}
	if a.set == nil {
		return core.NewUsageError("property is read-only", nil).
			WithCode(core.ErrCodeReadOnly).
			WithVariable(a.name).
			WithOperation("set")
	}
	v, err := convert[V](value)
	if err != nil {
		return core.NewUsageError(fmt.Sprintf("cannot assign %T to property of type %s", value, a.DeclaredType()), nil).
			WithCode(core.ErrCodeTypeMismatch).
			WithVariable(a.name).
			WithOperation("set")
	}
	a.set(t, v)
	return nil
}

func (a *Func[T, V]) target(object any, operation string) (T, error) {
	t, ok := object.(T)
	if !ok {
		var zero T
		return zero, core.NewUsageError(fmt.Sprintf("accessor for %s cannot read %T", reflect.TypeFor[T](), object), nil).
			WithCode(core.ErrCodeTypeMismatch).
			WithVariable(a.name).
			WithOperation(operation)
	}
	return t, nil
}

// convert narrows value to V. A nil value is accepted only for nilable V.
func convert[V any](value any) (V, error) {
	var zero V
	if value == nil {
		if nilable(reflect.TypeFor[V]()) {
			return zero, nil
		}
		return zero, fmt.Errorf("nil is not assignable")
	}
	v, ok := value.(V)
	if !ok {
		return zero, fmt.Errorf("%T is not assignable", value)
	}
	return v, nil
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}
