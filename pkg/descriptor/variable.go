package descriptor

import (
	"fmt"

	"github.com/openfroyo/plancore/pkg/accessor"
	"github.com/openfroyo/plancore/pkg/core"
)

// VariableDescriptor describes one genuine or shadow variable of an entity type.
type VariableDescriptor struct {
	name   string
	entity *EntityDescriptor
	kind   VariableKind

	accessor   accessor.MemberAccessor
	collection accessor.Collection // list variables only

	valueRanges      []*ValueRangeDescriptor
	allowsUnassigned bool

	shadowKind      ShadowKind
	sources         []*VariableDescriptor
	listenerFactory ListenerFactory

	// sinks are the shadow variables derived from this variable.
	sinks []*VariableDescriptor
}

// Name returns the variable name.
func (v *VariableDescriptor) Name() string { return v.name }

// EntityDescriptor returns the declaring entity type.
func (v *VariableDescriptor) EntityDescriptor() *EntityDescriptor { return v.entity }

// Kind returns KindScalar, KindList or KindShadow.
func (v *VariableDescriptor) Kind() VariableKind { return v.kind }

// IsGenuine reports whether the search layer assigns this variable.
func (v *VariableDescriptor) IsGenuine() bool { return v.kind != KindShadow }

// IsList reports whether this is a genuine list variable.
func (v *VariableDescriptor) IsList() bool { return v.kind == KindList }

// IsShadow reports whether this variable is derived.
func (v *VariableDescriptor) IsShadow() bool { return v.kind == KindShadow }

// ShadowKind returns the derivation of a shadow variable, or "" for genuine variables.
func (v *VariableDescriptor) ShadowKind() ShadowKind { return v.shadowKind }

// Accessor returns the property accessor.
func (v *VariableDescriptor) Accessor() accessor.MemberAccessor { return v.accessor }

// AllowsUnassigned reports whether the variable may stay unassigned.
func (v *VariableDescriptor) AllowsUnassigned() bool { return v.allowsUnassigned }

// ValueRangeDescriptors returns the referenced providers.
func (v *VariableDescriptor) ValueRangeDescriptors() []*ValueRangeDescriptor {
	return v.valueRanges
}

// Sources returns the variables a shadow variable derives from.
func (v *VariableDescriptor) Sources() []*VariableDescriptor { return v.sources }

// Sinks returns the shadow variables derived from this variable.
func (v *VariableDescriptor) Sinks() []*VariableDescriptor { return v.sinks }

// ListenerFactory returns the custom shadow listener factory, or nil.
func (v *VariableDescriptor) ListenerFactory() ListenerFactory { return v.listenerFactory }

// String returns "Entity.variable".
func (v *VariableDescriptor) String() string {
	return v.entity.name + "." + v.name
}

// Get reads the variable.
func (v *VariableDescriptor) Get(entity any) (any, error) {
	return v.accessor.Get(entity)
}

// Set writes the variable. Callers bracket it with director notifications.
func (v *VariableDescriptor) Set(entity, value any) error {
	return v.accessor.Set(entity, value)
}

// ListElements returns a copy of a list variable's elements.
func (v *VariableDescriptor) ListElements(entity any) ([]any, error) {
	if v.collection == nil {
		return nil, v.notAList("list_elements")
	}
	return v.collection.Elements(entity)
}

// SetListElements replaces a list variable's elements.
func (v *VariableDescriptor) SetListElements(entity any, elements []any) error {
	if v.collection == nil {
		return v.notAList("set_list_elements")
	}
	return v.collection.SetElements(entity, elements)
}

// ListSize returns the length of a list variable.
func (v *VariableDescriptor) ListSize(entity any) (int, error) {
	elements, err := v.ListElements(entity)
	if err != nil {
		return 0, err
	}
	return len(elements), nil
}

// IsInitialized reports whether the variable is assigned on entity.
// List and shadow variables are always initialized.
func (v *VariableDescriptor) IsInitialized(entity any) (bool, error) {
	if v.kind != KindScalar || v.allowsUnassigned {
		return true, nil
	}
	value, err := v.Get(entity)
	if err != nil {
		return false, err
	}
	return !core.IsNil(value), nil
}

// ValueRange returns the current value range of the variable on entity.
// Several providers are concatenated.
func (v *VariableDescriptor) ValueRange(solution, entity any) (ValueRange, error) {
	if len(v.valueRanges) == 1 {
		return v.valueRanges[0].Extract(solution, entity)
	}
	composite := make(CompositeValueRange, 0, len(v.valueRanges))
	for _, r := range v.valueRanges {
		vr, err := r.Extract(solution, entity)
		if err != nil {
			return nil, err
		}
		composite = append(composite, vr)
	}
	return composite, nil
}

func (v *VariableDescriptor) notAList(operation string) error {
	return core.NewUsageError(fmt.Sprintf("variable %s is not a list variable", v), nil).
		WithCode(core.ErrCodeVariableKind).
		WithVariable(v.name).
		WithOperation(operation)
}
