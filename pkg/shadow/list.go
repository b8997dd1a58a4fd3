package shadow

import (
	"fmt"
	"reflect"

	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/descriptor"
	"github.com/openfroyo/plancore/pkg/listener"
)

// ListShadowListener maintains a list_index or list_inverse shadow variable on the
// elements of its source list variable. Every write is bracketed by the director's
// notification pair, and a write that would not change the value is skipped.
type ListShadowListener struct {
	listener.Base

	shadow *descriptor.VariableDescriptor
	source *descriptor.VariableDescriptor
	value  func(entity any, index int) any
}

var _ listener.ListVariableListener = (*ListShadowListener)(nil)

// NewListIndexListener keeps shadow equal to each element's index in its list.
func NewListIndexListener(shadow *descriptor.VariableDescriptor) (*ListShadowListener, error) {
	return newListShadowListener(shadow, descriptor.ShadowListIndex, func(_ any, index int) any { return index })
}

// NewListInverseListener keeps shadow equal to the entity whose list holds each element.
func NewListInverseListener(shadow *descriptor.VariableDescriptor) (*ListShadowListener, error) {
	return newListShadowListener(shadow, descriptor.ShadowListInverse, func(entity any, _ int) any { return entity })
}

// NewListener returns the built-in listener of a list_index or list_inverse shadow
// variable, or the listener of the shadow's registered factory.
func NewListener(shadow *descriptor.VariableDescriptor) (listener.Listener, error) {
	switch shadow.ShadowKind() {
	case descriptor.ShadowListIndex:
		return NewListIndexListener(shadow)
	case descriptor.ShadowListInverse:
		return NewListInverseListener(shadow)
	}
	if f := shadow.ListenerFactory(); f != nil {
		if l := f(shadow); l != nil {
			return l, nil
		}
	}
	return nil, core.NewConfigurationError(fmt.Sprintf("shadow variable %s has no listener", shadow), nil).
		WithCode(core.ErrCodeInvalidShadowVariable).
		WithVariable(shadow.Name())
}

func newListShadowListener(shadow *descriptor.VariableDescriptor, kind descriptor.ShadowKind, value func(any, int) any) (*ListShadowListener, error) {
	if shadow.ShadowKind() != kind || len(shadow.Sources()) != 1 || !shadow.Sources()[0].IsList() {
		return nil, core.NewConfigurationError(fmt.Sprintf("shadow variable %s is not a %s shadow of one list variable", shadow, kind), nil).
			WithCode(core.ErrCodeInvalidShadowVariable).
			WithVariable(shadow.Name())
	}
	return &ListShadowListener{shadow: shadow, source: shadow.Sources()[0], value: value}, nil
}

// Shadow returns the maintained shadow variable.
func (l *ListShadowListener) Shadow() *descriptor.VariableDescriptor { return l.shadow }

// ResetWorkingSolution writes the shadow of every assigned element.
func (l *ListShadowListener) ResetWorkingSolution(d listener.ScoreDirector) error {
	entities, err := d.WorkingEntities()
	if err != nil {
		return err
	}
	for _, e := range entities {
		if !l.source.EntityDescriptor().Accepts(e) {
			continue
		}
		if err := l.update(d, e, 0, -1); err != nil {
			return err
		}
	}
	return nil
}

func (l *ListShadowListener) BeforeEntityAdded(listener.ScoreDirector, any) error { return nil }

func (l *ListShadowListener) AfterEntityAdded(d listener.ScoreDirector, entity any) error {
	return l.update(d, entity, 0, -1)
}

func (l *ListShadowListener) BeforeEntityRemoved(listener.ScoreDirector, any) error { return nil }

// AfterEntityRemoved clears the shadow of every element the removed entity still lists.
func (l *ListShadowListener) AfterEntityRemoved(d listener.ScoreDirector, entity any) error {
	elements, err := l.source.ListElements(entity)
	if err != nil {
		return err
	}
	for _, element := range elements {
		if err := l.write(d, element, nil); err != nil {
			return err
		}
	}
	return nil
}

// AfterListVariableElementUnassigned clears the element's shadow.
func (l *ListShadowListener) AfterListVariableElementUnassigned(d listener.ScoreDirector, element any) error {
	return l.write(d, element, nil)
}

func (l *ListShadowListener) BeforeListVariableChanged(listener.ScoreDirector, any, string, int, int) error {
	return nil
}

// AfterListVariableChanged rewrites the shadow over [from, to) and over the tail
// until the first element whose shadow already holds the right value.
func (l *ListShadowListener) AfterListVariableChanged(d listener.ScoreDirector, entity any, _ string, from, to int) error {
	return l.update(d, entity, from, to)
}

// update writes [from, to) unconditionally and the tail after it until an element
// is already current. A negative to means the whole list from from.
func (l *ListShadowListener) update(d listener.ScoreDirector, entity any, from, to int) error {
	elements, err := l.source.ListElements(entity)
	if err != nil {
		return err
	}
	if to < 0 || to > len(elements) {
		to = len(elements)
	}
	for i := from; i < to; i++ {
		if err := l.write(d, elements[i], l.value(entity, i)); err != nil {
			return err
		}
	}
	for i := to; i < len(elements); i++ {
		want := l.value(entity, i)
		current, err := l.current(elements[i])
		if err != nil {
			return err
		}
		if equalShadow(current, want) {
			break
		}
		if err := l.write(d, elements[i], want); err != nil {
			return err
		}
	}
	return nil
}

// write sets the shadow on element, bracketed by notifications, unless it already holds value.
func (l *ListShadowListener) write(d listener.ScoreDirector, element, value any) error {
	current, err := l.current(element)
	if err != nil {
		return err
	}
	if equalShadow(current, value) {
		return nil
	}
	if err := d.BeforeVariableChanged(element, l.shadow.Name()); err != nil {
		return err
	}
	if err := l.shadow.Set(element, l.convert(value)); err != nil {
		return err
	}
	return d.AfterVariableChanged(element, l.shadow.Name())
}

// current reads the shadow, normalizing nullable indexes to int or nil.
func (l *ListShadowListener) current(element any) (any, error) {
	v, err := l.shadow.Get(element)
	if err != nil || core.IsNil(v) {
		return nil, err
	}
	if p, ok := v.(*int); ok {
		return *p, nil
	}
	if i, ok := v.(int); ok && i < 0 && l.shadow.ShadowKind() == descriptor.ShadowListIndex {
		return nil, nil
	}
	return v, nil
}

// convert adapts value to the shadow property's declared type. Unassigned indexes
// are nil for *int properties and -1 for int properties.
func (l *ListShadowListener) convert(value any) any {
	if l.shadow.ShadowKind() != descriptor.ShadowListIndex {
		return value
	}
	declared := l.shadow.Accessor().DeclaredType()
	if declared.Kind() == reflect.Pointer {
		if value == nil {
			return nil
		}
		i := value.(int)
		return &i
	}
	if value == nil {
		return -1
	}
	return value
}

func equalShadow(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ai, ok := a.(int); ok {
		bi, ok := b.(int)
		return ok && ai == bi
	}
	return core.SameObject(a, b)
}
