package lookup

import (
	"github.com/openfroyo/plancore/pkg/core"
)

// Outcome labels a lookup result for metrics.
type Outcome string

const (
	OutcomeHit    Outcome = "hit"
	OutcomeMiss   Outcome = "miss"
	OutcomeAbsent Outcome = "absent"
	OutcomeError  Outcome = "error"
)

// Observer is notified of every lookup. telemetry.Metrics implements it.
type Observer interface {
	RecordLookup(strategy string, outcome string)
}

// Manager is the working-object registry of one working solution.
// Like the working solution it serves, it has a single writer.
type Manager struct {
	resolver *Resolver
	registry map[any]any
	observer Observer
}

// NewManager creates an empty registry using the resolver's strategies.
func NewManager(resolver *Resolver) *Manager {
	return &Manager{
		resolver: resolver,
		registry: make(map[any]any),
	}
}

// SetObserver installs a lookup observer. nil disables observation.
func (m *Manager) SetObserver(o Observer) {
	m.observer = o
}

// Resolver returns the strategy resolver.
func (m *Manager) Resolver() *Resolver {
	return m.resolver
}

// Reset clears the registry and registers every working object.
func (m *Manager) Reset(workingObjects []any) error {
	m.registry = make(map[any]any, len(workingObjects))
	for _, o := range workingObjects {
		if err := m.AddWorkingObject(o); err != nil {
			return err
		}
	}
	return nil
}

// Clear empties the registry.
func (m *Manager) Clear() {
	m.registry = make(map[any]any)
}

// Len returns the number of registered working objects.
func (m *Manager) Len() int {
	return len(m.registry)
}

// AddWorkingObject registers a working object under its strategy's key.
// Registering a distinct object under an existing key is a usage error.
func (m *Manager) AddWorkingObject(workingObject any) error {
	if core.IsNil(workingObject) {
		return nil
	}
	strategy, err := m.resolver.Resolve(workingObject)
	if err != nil {
		return err
	}
	return strategy.AddWorkingObject(m.registry, workingObject)
}

// RemoveWorkingObject unregisters a working object.
func (m *Manager) RemoveWorkingObject(workingObject any) error {
	if core.IsNil(workingObject) {
		return nil
	}
	strategy, err := m.resolver.Resolve(workingObject)
	if err != nil {
		return err
	}
	return strategy.RemoveWorkingObject(m.registry, workingObject)
}

// LookUpWorkingObject returns the working counterpart of externalObject.
// A nil input yields a nil result without error under every strategy.
func (m *Manager) LookUpWorkingObject(externalObject any) (any, error) {
	if core.IsNil(externalObject) {
		return nil, nil
	}
	strategy, err := m.resolver.Resolve(externalObject)
	if err != nil {
		m.observe("unresolved", OutcomeError)
		return nil, err
	}
	working, err := strategy.LookUpWorkingObject(m.registry, externalObject)
	m.observe(strategy.Name(), outcomeOf(working, err))
	return working, err
}

// LookUpWorkingObjectOrReturnNull is LookUpWorkingObject returning nil instead of
// a lookup miss. Disabled strategies and unsupported types still fail.
func (m *Manager) LookUpWorkingObjectOrReturnNull(externalObject any) (any, error) {
	if core.IsNil(externalObject) {
		return nil, nil
	}
	strategy, err := m.resolver.Resolve(externalObject)
	if err != nil {
		m.observe("unresolved", OutcomeError)
		return nil, err
	}
	working, err := strategy.LookUpWorkingObjectIfExists(m.registry, externalObject)
	m.observe(strategy.Name(), outcomeOf(working, err))
	return working, err
}

func (m *Manager) observe(strategy string, outcome Outcome) {
	if m.observer != nil {
		m.observer.RecordLookup(strategy, string(outcome))
	}
}

func outcomeOf(working any, err error) Outcome {
	switch {
	case core.IsLookupMiss(err):
		return OutcomeMiss
	case err != nil:
		return OutcomeError
	case working == nil:
		return OutcomeAbsent
	}
	return OutcomeHit
}
