package accessor

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/openfroyo/plancore/pkg/core"
)

type computer struct {
	id    string
	cores int
}

type process struct {
	name     string
	computer *computer
	tags     []string
}

func TestFunc_GetSet(t *testing.T) {
	a := New("computer",
		func(p *process) *computer { return p.computer },
		func(p *process, c *computer) { p.computer = c },
	)

	if a.Name() != "computer" {
		t.Errorf("Name() = %q, want %q", a.Name(), "computer")
	}
	if a.DeclaredType() != reflect.TypeFor[*computer]() {
		t.Errorf("DeclaredType() = %v, want *computer", a.DeclaredType())
	}
	if a.DeclaringType() != reflect.TypeFor[*process]() {
		t.Errorf("DeclaringType() = %v, want *process", a.DeclaringType())
	}
	if a.ReadOnly() {
		t.Error("ReadOnly() = true, want false")
	}

	p := &process{name: "p1"}
	c := &computer{id: "c1"}
	if err := a.Set(p, c); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if p.computer != c {
		t.Errorf("Set() did not mutate the object")
	}

	got, err := a.Get(p)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != c {
		t.Errorf("Get() = %v, want %v", got, c)
	}
	if a.GetValue(p) != c {
		t.Errorf("GetValue() = %v, want %v", a.GetValue(p), c)
	}

	// nil is assignable to pointer-typed properties
	if err := a.Set(p, nil); err != nil {
		t.Fatalf("Set(nil) error = %v", err)
	}
	if p.computer != nil {
		t.Errorf("Set(nil) left %v", p.computer)
	}
}

func TestFunc_TypeMismatch(t *testing.T) {
	a := New("cores",
		func(c *computer) int { return c.cores },
		func(c *computer, v int) { c.cores = v },
	)

	tests := []struct {
		name string
		run  func() error
	}{
		{"get on wrong type", func() error { _, err := a.Get(&process{}); return err }},
		{"get on value instead of pointer", func() error { _, err := a.Get(computer{}); return err }},
		{"set on wrong type", func() error { return a.Set(&process{}, 3) }},
		{"set wrong value type", func() error { return a.Set(&computer{}, "three") }},
		{"set nil to int", func() error { return a.Set(&computer{}, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !core.IsUsageError(err) {
				t.Fatalf("expected usage error, got %v", err)
			}
			if core.CodeOf(err) != core.ErrCodeTypeMismatch {
				t.Errorf("code = %q, want %q", core.CodeOf(err), core.ErrCodeTypeMismatch)
			}
		})
	}
}

func TestReadOnly_Set(t *testing.T) {
	a := ReadOnly("id", func(c *computer) string { return c.id })
	if !a.ReadOnly() {
		t.Error("ReadOnly() = false, want true")
	}

	v, err := a.Get(&computer{id: "c7"})
	if err != nil || v != "c7" {
		t.Errorf("Get() = %v, %v; want c7, nil", v, err)
	}

	err = a.Set(&computer{}, "x")
	if core.CodeOf(err) != core.ErrCodeReadOnly {
		t.Errorf("Set() error code = %q, want %q", core.CodeOf(err), core.ErrCodeReadOnly)
	}
}

func TestSliceFunc_Elements(t *testing.T) {
	a := NewCollection("tags",
		func(p *process) []string { return p.tags },
		func(p *process, tags []string) { p.tags = tags },
	)

	var _ Collection = a

	if a.ElementType() != reflect.TypeFor[string]() {
		t.Errorf("ElementType() = %v, want string", a.ElementType())
	}

	p := &process{tags: []string{"a", "b"}}
	got, err := a.Elements(p)
	if err != nil {
		t.Fatalf("Elements() error = %v", err)
	}
	if diff := cmp.Diff([]any{"a", "b"}, got); diff != "" {
		t.Errorf("Elements() mismatch (-want +got):\n%s", diff)
	}

	// the returned slice is a copy
	got[0] = "z"
	if p.tags[0] != "a" {
		t.Errorf("Elements() aliased the backing slice")
	}

	if err := a.SetElements(p, []any{"x", "y", "z"}); err != nil {
		t.Fatalf("SetElements() error = %v", err)
	}
	if diff := cmp.Diff([]string{"x", "y", "z"}, p.tags); diff != "" {
		t.Errorf("SetElements() mismatch (-want +got):\n%s", diff)
	}

	err = a.SetElements(p, []any{"x", 2})
	if core.CodeOf(err) != core.ErrCodeTypeMismatch {
		t.Errorf("SetElements() with bad element code = %q, want %q", core.CodeOf(err), core.ErrCodeTypeMismatch)
	}

	if _, err := a.Elements(&computer{}); !core.IsUsageError(err) {
		t.Errorf("Elements() on wrong type error = %v, want usage error", err)
	}
}
