package director

import (
	"fmt"

	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/descriptor"
)

// State is the lifecycle state of a ScoreDirector.
type State int

const (
	// StateUnattached means no working solution is set.
	StateUnattached State = iota
	// StateQuiescent means no pair is open and no listener work is queued. The score may be read.
	StateQuiescent
	// StateMutating means one before/after pair is open.
	StateMutating
	// StatePending means after-calls are queued until TriggerVariableListeners.
	StatePending
)

func (s State) String() string {
	switch s {
	case StateUnattached:
		return "unattached"
	case StateQuiescent:
		return "quiescent"
	case StateMutating:
		return "mutating"
	case StatePending:
		return "pending"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Kind names a notification family.
type Kind string

const (
	KindEntityAdded           Kind = "entity_added"
	KindEntityRemoved         Kind = "entity_removed"
	KindVariableChanged       Kind = "variable_changed"
	KindListElementAssigned   Kind = "list_element_assigned"
	KindListElementUnassigned Kind = "list_element_unassigned"
	KindListChanged           Kind = "list_changed"
	KindFactAdded             Kind = "fact_added"
	KindFactRemoved           Kind = "fact_removed"
	KindFactPropertyChanged   Kind = "fact_property_changed"
)

// Phase tells the before-call of a pair from its after-call.
type Phase int

const (
	PhaseBefore Phase = iota
	PhaseAfter
)

func (p Phase) String() string {
	if p == PhaseBefore {
		return "before"
	}
	return "after"
}

// Notification is one before- or after-call of a pair.
// Entity holds the fact for the fact families. From and To are set for KindListChanged,
// Element for the list element families.
type Notification struct {
	Kind     Kind
	Phase    Phase
	Entity   any
	Variable string
	Element  any
	From, To int

	variable *descriptor.VariableDescriptor
}

// VariableDescriptor returns the descriptor of the notified variable, or nil for
// entity and fact families.
func (n Notification) VariableDescriptor() *descriptor.VariableDescriptor { return n.variable }

func (n Notification) String() string {
	s := n.Phase.String() + " " + string(n.Kind)
	if n.Variable != "" {
		s += " " + n.Variable
	}
	if n.Kind == KindListChanged {
		s += fmt.Sprintf(" [%d, %d)", n.From, n.To)
	}
	return s
}

// closes reports whether after is the after-call of the open pair n.
func (n Notification) closes(after Notification) bool {
	if n.Kind != after.Kind || n.Variable != after.Variable || !core.SameObject(n.Entity, after.Entity) {
		return false
	}
	if n.Kind == KindListElementAssigned || n.Kind == KindListElementUnassigned {
		return core.SameObject(n.Element, after.Element)
	}
	return true
}

// listened reports whether variable listeners observe this family.
func (n Notification) listened() bool {
	switch n.Kind {
	case KindEntityAdded, KindEntityRemoved, KindVariableChanged, KindListElementUnassigned, KindListChanged:
		return true
	}
	return false
}

// resetsListeners reports whether the family invalidates listener state as a whole.
func (n Notification) resetsListeners() bool {
	switch n.Kind {
	case KindFactAdded, KindFactRemoved, KindFactPropertyChanged:
		return true
	}
	return false
}
