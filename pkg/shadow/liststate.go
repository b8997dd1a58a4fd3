package shadow

import (
	"fmt"

	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/descriptor"
	"github.com/openfroyo/plancore/pkg/listener"
	"github.com/openfroyo/plancore/pkg/supply"
)

// ListStateDemand demands the element state of a list variable.
type ListStateDemand struct {
	Variable *descriptor.VariableDescriptor
}

// CreateExternalizedSupply implements supply.Demand.
func (d ListStateDemand) CreateExternalizedSupply(supply.Manager) supply.Supply {
	return NewListState(d.Variable)
}

// String identifies the demand in logs.
func (d ListStateDemand) String() string {
	return "ListState(" + d.Variable.String() + ")"
}

// ElementLocation is where an assigned list element sits.
type ElementLocation struct {
	Entity any
	Index  int
}

// ListState tracks, for each element of a list variable, the owning entity and index.
// Updates touch only the changed range and the shifted tail after it.
type ListState struct {
	listener.Base

	variable  *descriptor.VariableDescriptor
	locations map[any]ElementLocation

	// removed holds elements of ranges announced by a before-call, until the after-call.
	removed map[any][]any
}

var (
	_ listener.ListVariableListener = (*ListState)(nil)
	_ Sourced                       = (*ListState)(nil)
)

// NewListState creates an empty state for the list variable.
func NewListState(variable *descriptor.VariableDescriptor) *ListState {
	return &ListState{
		variable:  variable,
		locations: make(map[any]ElementLocation),
		removed:   make(map[any][]any),
	}
}

// SourceVariableDescriptor implements Sourced.
func (s *ListState) SourceVariableDescriptor() *descriptor.VariableDescriptor {
	return s.variable
}

// Location returns where element is assigned.
func (s *ListState) Location(element any) (ElementLocation, bool) {
	loc, ok := s.locations[element]
	return loc, ok
}

// InverseEntity returns the entity whose list holds element, or nil.
func (s *ListState) InverseEntity(element any) any {
	return s.locations[element].Entity
}

// Index returns element's index in its list.
func (s *ListState) Index(element any) (int, bool) {
	loc, ok := s.locations[element]
	return loc.Index, ok
}

// AssignedCount returns the number of assigned elements.
func (s *ListState) AssignedCount() int { return len(s.locations) }

// ResetWorkingSolution implements listener.Listener.
func (s *ListState) ResetWorkingSolution(d listener.ScoreDirector) error {
	s.locations = make(map[any]ElementLocation)
	s.removed = make(map[any][]any)
	entities, err := d.WorkingEntities()
	if err != nil {
		return err
	}
	for _, e := range entities {
		if !s.variable.EntityDescriptor().Accepts(e) {
			continue
		}
		if err := s.assignAll(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *ListState) assignAll(entity any) error {
	elements, err := s.variable.ListElements(entity)
	if err != nil {
		return err
	}
	for i, element := range elements {
		if err := s.assign(entity, element, i); err != nil {
			return err
		}
	}
	return nil
}

func (s *ListState) assign(entity, element any, index int) error {
	if existing, ok := s.locations[element]; ok && !core.SameObject(existing.Entity, entity) && s.stillHolds(existing, element) {
		return core.NewUsageError(fmt.Sprintf("element %v of %s is in the lists of both %v and %v",
			element, s.variable, existing.Entity, entity), nil).
			WithCode(core.ErrCodeDuplicateKey).
			WithEntity(fmt.Sprintf("%v", entity)).
			WithVariable(s.variable.Name())
	}
	s.locations[element] = ElementLocation{Entity: entity, Index: index}
	return nil
}

// stillHolds reports whether loc's list still has element at loc's index.
func (s *ListState) stillHolds(loc ElementLocation, element any) bool {
	elements, err := s.variable.ListElements(loc.Entity)
	if err != nil || loc.Index >= len(elements) {
		return false
	}
	return core.SameObject(elements[loc.Index], element)
}

func (s *ListState) BeforeEntityAdded(listener.ScoreDirector, any) error { return nil }

func (s *ListState) AfterEntityAdded(_ listener.ScoreDirector, entity any) error {
	return s.assignAll(entity)
}

func (s *ListState) BeforeEntityRemoved(_ listener.ScoreDirector, entity any) error {
	for element, loc := range s.locations {
		if core.SameObject(loc.Entity, entity) {
			delete(s.locations, element)
		}
	}
	return nil
}

func (s *ListState) AfterEntityRemoved(listener.ScoreDirector, any) error { return nil }

// AfterListVariableElementUnassigned implements listener.ListVariableListener.
func (s *ListState) AfterListVariableElementUnassigned(_ listener.ScoreDirector, element any) error {
	delete(s.locations, element)
	return nil
}

// BeforeListVariableChanged implements listener.ListVariableListener.
func (s *ListState) BeforeListVariableChanged(_ listener.ScoreDirector, entity any, _ string, from, to int) error {
	elements, err := s.variable.ListElements(entity)
	if err != nil {
		return err
	}
	to = min(to, len(elements))
	if from < to {
		s.removed[entity] = append(s.removed[entity], elements[from:to]...)
	}
	return nil
}

// AfterListVariableChanged implements listener.ListVariableListener.
func (s *ListState) AfterListVariableChanged(_ listener.ScoreDirector, entity any, _ string, from, to int) error {
	elements, err := s.variable.ListElements(entity)
	if err != nil {
		return err
	}
	to = min(to, len(elements))
	for i := from; i < to; i++ {
		if err := s.assign(entity, elements[i], i); err != nil {
			return err
		}
	}
	// shifted tail, until the first element already in place
	for i := to; i < len(elements); i++ {
		loc, ok := s.locations[elements[i]]
		if ok && core.SameObject(loc.Entity, entity) && loc.Index == i {
			break
		}
		s.locations[elements[i]] = ElementLocation{Entity: entity, Index: i}
	}

	// elements that left this list and did not land elsewhere yet
	for _, element := range s.removed[entity] {
		loc, ok := s.locations[element]
		if ok && core.SameObject(loc.Entity, entity) && !s.stillHolds(loc, element) {
			delete(s.locations, element)
		}
	}
	delete(s.removed, entity)
	return nil
}
