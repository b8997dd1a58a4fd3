// Package listener defines the contracts of shadow variable listeners and the
// score director view they are called with.
//
// A listener is registered for one or more source variables. The score director
// delivers every before notification immediately and queues every after
// notification until it triggers variable listeners. A listener that writes a
// shadow variable brackets the write with the director's own notification pair.
package listener

import "github.com/openfroyo/plancore/pkg/supply"

// ScoreDirector is the part of the score director a listener may use.
type ScoreDirector interface {
	// WorkingSolution returns the live working solution.
	WorkingSolution() any

	// WorkingEntities returns every entity of the working solution.
	WorkingEntities() ([]any, error)

	// SupplyManager returns the director's supply manager.
	SupplyManager() supply.Manager

	// BeforeVariableChanged and AfterVariableChanged bracket a shadow variable write.
	BeforeVariableChanged(entity any, variable string) error
	AfterVariableChanged(entity any, variable string) error
}

// Listener is the common lifecycle of every variable listener.
type Listener interface {
	// ResetWorkingSolution rebuilds any state from the whole working solution.
	ResetWorkingSolution(d ScoreDirector) error

	// Close releases held supplies.
	Close()
}

// VariableListener observes scalar source variables.
type VariableListener interface {
	Listener

	BeforeEntityAdded(d ScoreDirector, entity any) error
	AfterEntityAdded(d ScoreDirector, entity any) error
	BeforeEntityRemoved(d ScoreDirector, entity any) error
	AfterEntityRemoved(d ScoreDirector, entity any) error

	BeforeVariableChanged(d ScoreDirector, entity any, variable string) error
	AfterVariableChanged(d ScoreDirector, entity any, variable string) error
}

// ListVariableListener observes list source variables.
type ListVariableListener interface {
	Listener

	BeforeEntityAdded(d ScoreDirector, entity any) error
	AfterEntityAdded(d ScoreDirector, entity any) error
	BeforeEntityRemoved(d ScoreDirector, entity any) error
	AfterEntityRemoved(d ScoreDirector, entity any) error

	// AfterListVariableElementUnassigned reports an element that left every list.
	AfterListVariableElementUnassigned(d ScoreDirector, element any) error

	// BeforeListVariableChanged and AfterListVariableChanged describe the half-open
	// range [from, to) of the entity's list that changed.
	BeforeListVariableChanged(d ScoreDirector, entity any, variable string, from, to int) error
	AfterListVariableChanged(d ScoreDirector, entity any, variable string, from, to int) error
}

// Base is a no-op Listener to embed.
type Base struct{}

func (Base) ResetWorkingSolution(ScoreDirector) error { return nil }
func (Base) Close()                                   {}

// EntityBase is a no-op entity lifecycle to embed.
type EntityBase struct{}

func (EntityBase) BeforeEntityAdded(ScoreDirector, any) error   { return nil }
func (EntityBase) AfterEntityAdded(ScoreDirector, any) error    { return nil }
func (EntityBase) BeforeEntityRemoved(ScoreDirector, any) error { return nil }
func (EntityBase) AfterEntityRemoved(ScoreDirector, any) error  { return nil }

// VariableBase is a no-op VariableListener to embed.
type VariableBase struct {
	Base
	EntityBase
}

func (VariableBase) BeforeVariableChanged(ScoreDirector, any, string) error { return nil }
func (VariableBase) AfterVariableChanged(ScoreDirector, any, string) error  { return nil }

// ListBase is a no-op ListVariableListener to embed.
type ListBase struct {
	Base
	EntityBase
}

func (ListBase) AfterListVariableElementUnassigned(ScoreDirector, any) error { return nil }
func (ListBase) BeforeListVariableChanged(ScoreDirector, any, string, int, int) error {
	return nil
}
func (ListBase) AfterListVariableChanged(ScoreDirector, any, string, int, int) error {
	return nil
}

var (
	_ VariableListener     = VariableBase{}
	_ ListVariableListener = ListBase{}
)
