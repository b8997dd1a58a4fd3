package accessor

import (
	"fmt"
	"reflect"

	"github.com/openfroyo/plancore/pkg/core"
)

// SliceFunc is a Collection accessor for a property holding a []E.
type SliceFunc[T any, E any] struct {
	*Func[T, []E]
}

// NewCollection creates a collection accessor. set may be nil for read-only collections.
func NewCollection[T any, E any](name string, get func(T) []E, set func(T, []E)) *SliceFunc[T, E] {
	return &SliceFunc[T, E]{Func: &Func[T, []E]{name: name, get: get, set: set}}
}

// ElementType implements Collection.
func (a *SliceFunc[T, E]) ElementType() reflect.Type { return reflect.TypeFor[E]() }

// Elements implements Collection.
func (a *SliceFunc[T, E]) Elements(object any) ([]any, error) {
	t, err := a.target(object, "elements")
	if err != nil {
		return nil, err
	}
	values := a.get(t)
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out, nil
}

// SetElements implements Collection.
func (a *SliceFunc[T, E]) SetElements(object any, elements []any) error {
	typed := make([]E, len(elements))
	for i, e := range elements {
		v, err := convert[E](e)
		if err != nil {
			return core.NewUsageError(fmt.Sprintf("element %d: cannot assign %T to %s", i, e, a.ElementType()), nil).
				WithCode(core.ErrCodeTypeMismatch).
				WithVariable(a.name).
				WithOperation("set_elements")
		}
		typed[i] = v
	}
	return a.Set(object, typed)
}
