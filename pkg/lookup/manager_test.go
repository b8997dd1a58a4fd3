package lookup

import (
	"reflect"
	"testing"
	"time"

	"github.com/openfroyo/plancore/pkg/accessor"
	"github.com/openfroyo/plancore/pkg/core"
)

type room struct {
	id   *string
	name string
}

type shift struct {
	day  int
	slot string
}

// tag has value equality through EqualityKey even though it is used by pointer.
type tag struct {
	label string
}

func (t *tag) EqualityKey() any { return t.label }

type idTable map[reflect.Type]accessor.MemberAccessor

func (t idTable) IDAccessor(typ reflect.Type) (accessor.MemberAccessor, bool) {
	a, ok := t[typ]
	return a, ok
}

func roomIDs() idTable {
	return idTable{
		reflect.TypeFor[*room](): accessor.ReadOnly("id", func(r *room) *string { return r.id }),
	}
}

func strPtr(s string) *string { return &s }

func TestManager_NilInputReturnsNil(t *testing.T) {
	for _, st := range []StrategyType{StrategyPlanningIDOrNone, StrategyPlanningIDOrFailFast, StrategyEquality, StrategyNone} {
		t.Run(string(st), func(t *testing.T) {
			m := NewManager(NewResolver(st, roomIDs()))

			got, err := m.LookUpWorkingObject(nil)
			if err != nil || got != nil {
				t.Errorf("LookUpWorkingObject(nil) = %v, %v; want nil, nil", got, err)
			}

			var typedNil *room
			got, err = m.LookUpWorkingObject(typedNil)
			if err != nil || got != nil {
				t.Errorf("LookUpWorkingObject(typed nil) = %v, %v; want nil, nil", got, err)
			}

			got, err = m.LookUpWorkingObjectOrReturnNull(nil)
			if err != nil || got != nil {
				t.Errorf("LookUpWorkingObjectOrReturnNull(nil) = %v, %v; want nil, nil", got, err)
			}
		})
	}
}

func TestManager_NoneStrategyFails(t *testing.T) {
	m := NewManager(NewResolver(StrategyNone, roomIDs()))
	working := &room{id: strPtr("42")}
	if err := m.Reset([]any{working}); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	for _, external := range []any{&room{id: strPtr("42")}, "42", 42, shift{day: 1}} {
		_, err := m.LookUpWorkingObject(external)
		if core.CodeOf(err) != core.ErrCodeLookupDisabled {
			t.Errorf("LookUpWorkingObject(%v) error = %v, want LOOKUP_DISABLED", external, err)
		}
		_, err = m.LookUpWorkingObjectOrReturnNull(external)
		if core.CodeOf(err) != core.ErrCodeLookupDisabled {
			t.Errorf("LookUpWorkingObjectOrReturnNull(%v) error = %v, want LOOKUP_DISABLED", external, err)
		}
	}
}

func TestManager_PlanningIDOrNone(t *testing.T) {
	m := NewManager(NewResolver(StrategyPlanningIDOrNone, roomIDs()))
	a := &room{id: strPtr("42"), name: "A"}
	if err := m.AddWorkingObject(a); err != nil {
		t.Fatalf("AddWorkingObject() error = %v", err)
	}

	got, err := m.LookUpWorkingObject(&room{id: strPtr("42"), name: "detached"})
	if err != nil {
		t.Fatalf("LookUpWorkingObject(42) error = %v", err)
	}
	if got != a {
		t.Errorf("LookUpWorkingObject(42) = %v, want %v", got, a)
	}

	_, err = m.LookUpWorkingObject(&room{id: strPtr("99")})
	if !core.IsLookupMiss(err) {
		t.Errorf("LookUpWorkingObject(99) error = %v, want lookup miss", err)
	}

	got, err = m.LookUpWorkingObjectOrReturnNull(&room{id: strPtr("99")})
	if err != nil || got != nil {
		t.Errorf("LookUpWorkingObjectOrReturnNull(99) = %v, %v; want nil, nil", got, err)
	}

	// no id value
	_, err = m.LookUpWorkingObject(&room{})
	if core.CodeOf(err) != core.ErrCodeNilPlanningID {
		t.Errorf("LookUpWorkingObject(no id) error = %v, want NIL_PLANNING_ID", err)
	}
	_, err = m.LookUpWorkingObjectOrReturnNull(&room{})
	if core.CodeOf(err) != core.ErrCodeNilPlanningID {
		t.Errorf("LookUpWorkingObjectOrReturnNull(no id) error = %v, want NIL_PLANNING_ID", err)
	}
}

func TestManager_PlanningIDOrNone_TypeWithoutID(t *testing.T) {
	m := NewManager(NewResolver(StrategyPlanningIDOrNone, roomIDs()))
	if err := m.AddWorkingObject(&shift{day: 1}); err != nil {
		t.Fatalf("AddWorkingObject() on a type without id should be ignored, got %v", err)
	}

	_, err := m.LookUpWorkingObject(&shift{day: 1})
	if core.CodeOf(err) != core.ErrCodeLookupDisabled {
		t.Errorf("LookUpWorkingObject() error = %v, want LOOKUP_DISABLED", err)
	}
	_, err = m.LookUpWorkingObjectOrReturnNull(&shift{day: 1})
	if core.CodeOf(err) != core.ErrCodeLookupDisabled {
		t.Errorf("LookUpWorkingObjectOrReturnNull() error = %v, want LOOKUP_DISABLED", err)
	}
}

func TestManager_PlanningIDOrFailFast_TypeWithoutID(t *testing.T) {
	m := NewManager(NewResolver(StrategyPlanningIDOrFailFast, roomIDs()))
	_, err := m.LookUpWorkingObject(&shift{day: 1})
	if core.CodeOf(err) != core.ErrCodeLookupUnsupported {
		t.Errorf("LookUpWorkingObject() error = %v, want LOOKUP_UNSUPPORTED", err)
	}
}

func TestManager_DuplicateKey(t *testing.T) {
	m := NewManager(NewResolver(StrategyPlanningIDOrFailFast, roomIDs()))
	a := &room{id: strPtr("1")}
	b := &room{id: strPtr("1")}

	if err := m.AddWorkingObject(a); err != nil {
		t.Fatalf("AddWorkingObject(a) error = %v", err)
	}
	// re-adding the same object is idempotent
	if err := m.AddWorkingObject(a); err != nil {
		t.Errorf("AddWorkingObject(a) twice error = %v", err)
	}
	err := m.AddWorkingObject(b)
	if core.CodeOf(err) != core.ErrCodeDuplicateKey {
		t.Errorf("AddWorkingObject(b) error = %v, want DUPLICATE_KEY", err)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestManager_RemoveWorkingObject(t *testing.T) {
	m := NewManager(NewResolver(StrategyPlanningIDOrNone, roomIDs()))
	a := &room{id: strPtr("1")}
	if err := m.Reset([]any{a}); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if err := m.RemoveWorkingObject(&room{id: strPtr("1")}); core.CodeOf(err) != core.ErrCodeNotRegistered {
		t.Errorf("RemoveWorkingObject(other object) error = %v, want NOT_REGISTERED", err)
	}
	if err := m.RemoveWorkingObject(a); err != nil {
		t.Fatalf("RemoveWorkingObject(a) error = %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
	if _, err := m.LookUpWorkingObject(&room{id: strPtr("1")}); !core.IsLookupMiss(err) {
		t.Errorf("LookUpWorkingObject() after removal error = %v, want lookup miss", err)
	}
}

func TestManager_Equality(t *testing.T) {
	m := NewManager(NewResolver(StrategyEquality, nil))
	workingShift := shift{day: 2, slot: "night"}
	workingTag := &tag{label: "urgent"}
	if err := m.Reset([]any{workingShift, workingTag}); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	got, err := m.LookUpWorkingObject(shift{day: 2, slot: "night"})
	if err != nil || got != workingShift {
		t.Errorf("LookUpWorkingObject(shift) = %v, %v; want %v", got, err, workingShift)
	}

	got, err = m.LookUpWorkingObject(&tag{label: "urgent"})
	if err != nil || got != workingTag {
		t.Errorf("LookUpWorkingObject(tag) = %v, %v; want %v", got, err, workingTag)
	}

	if _, err := m.LookUpWorkingObject(shift{day: 3}); !core.IsLookupMiss(err) {
		t.Errorf("LookUpWorkingObject(unknown shift) error = %v, want lookup miss", err)
	}

	// pointers without EqualityKey only have identity
	_, err = m.LookUpWorkingObject(&room{id: strPtr("1")})
	if core.CodeOf(err) != core.ErrCodeLookupUnsupported {
		t.Errorf("LookUpWorkingObject(*room) error = %v, want LOOKUP_UNSUPPORTED", err)
	}
	_, err = m.LookUpWorkingObjectOrReturnNull(&room{id: strPtr("1")})
	if core.CodeOf(err) != core.ErrCodeLookupUnsupported {
		t.Errorf("LookUpWorkingObjectOrReturnNull(*room) error = %v, want LOOKUP_UNSUPPORTED", err)
	}

	// comparable type, unhashable value
	if err := m.AddWorkingObject(labelled{label: []int{1}}); core.CodeOf(err) != core.ErrCodeNonComparable {
		t.Errorf("AddWorkingObject(labelled slice) error = %v, want NON_COMPARABLE", err)
	}
	if _, err := m.LookUpWorkingObject(labelled{label: []int{1}}); core.CodeOf(err) != core.ErrCodeNonComparable {
		t.Errorf("LookUpWorkingObject(labelled slice) error = %v, want NON_COMPARABLE", err)
	}
	if err := m.AddWorkingObject(labelled{label: "x"}); err != nil {
		t.Errorf("AddWorkingObject(labelled string) error = %v", err)
	}
}

type labelled struct{ label any }

func TestManager_ImmutableValues(t *testing.T) {
	m := NewManager(NewResolver(StrategyPlanningIDOrFailFast, roomIDs()))
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	for _, v := range []any{"label", 7, 3.5, true, now, 5 * time.Minute} {
		got, err := m.LookUpWorkingObject(v)
		if err != nil {
			t.Errorf("LookUpWorkingObject(%v) error = %v", v, err)
			continue
		}
		if got != v {
			t.Errorf("LookUpWorkingObject(%v) = %v, want the value itself", v, got)
		}
	}
}

type countingObserver map[string]int

func (o countingObserver) RecordLookup(strategy, outcome string) {
	o[strategy+"/"+outcome]++
}

func TestManager_Observer(t *testing.T) {
	m := NewManager(NewResolver(StrategyPlanningIDOrNone, roomIDs()))
	obs := countingObserver{}
	m.SetObserver(obs)
	_ = m.AddWorkingObject(&room{id: strPtr("1")})

	_, _ = m.LookUpWorkingObject(&room{id: strPtr("1")})
	_, _ = m.LookUpWorkingObject(&room{id: strPtr("2")})
	_, _ = m.LookUpWorkingObjectOrReturnNull(&room{id: strPtr("2")})

	want := map[string]int{"planning_id/hit": 1, "planning_id/miss": 1, "planning_id/absent": 1}
	for k, v := range want {
		if obs[k] != v {
			t.Errorf("observer[%s] = %d, want %d", k, obs[k], v)
		}
	}
}
