package director

import (
	"errors"
	"fmt"

	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/descriptor"
)

// BeforeEntityAdded opens an entity-added pair.
func (d *ScoreDirector[S]) BeforeEntityAdded(entity any) error {
	return d.beforeEntity(KindEntityAdded, entity)
}

// AfterEntityAdded closes the entity-added pair and registers the entity for lookup.
func (d *ScoreDirector[S]) AfterEntityAdded(entity any) error {
	return d.after(Notification{Kind: KindEntityAdded, Entity: entity})
}

// BeforeEntityRemoved opens an entity-removed pair.
func (d *ScoreDirector[S]) BeforeEntityRemoved(entity any) error {
	return d.beforeEntity(KindEntityRemoved, entity)
}

// AfterEntityRemoved closes the entity-removed pair.
func (d *ScoreDirector[S]) AfterEntityRemoved(entity any) error {
	return d.after(Notification{Kind: KindEntityRemoved, Entity: entity})
}

// BeforeVariableChanged opens a pair around a write of a scalar or shadow variable.
func (d *ScoreDirector[S]) BeforeVariableChanged(entity any, variable string) error {
	n := Notification{Kind: KindVariableChanged, Entity: entity, Variable: variable}
	vd, err := d.checkVariable(n, false)
	if err != nil {
		return d.fail(err)
	}
	n.variable = vd
	return d.before(n)
}

// AfterVariableChanged closes the variable pair.
func (d *ScoreDirector[S]) AfterVariableChanged(entity any, variable string) error {
	return d.after(Notification{Kind: KindVariableChanged, Entity: entity, Variable: variable})
}

// BeforeListVariableElementAssigned opens a pair around element entering a list.
func (d *ScoreDirector[S]) BeforeListVariableElementAssigned(entity any, variable string, element any) error {
	return d.beforeElement(KindListElementAssigned, entity, variable, element)
}

// AfterListVariableElementAssigned closes the element-assigned pair.
func (d *ScoreDirector[S]) AfterListVariableElementAssigned(entity any, variable string, element any) error {
	return d.after(Notification{Kind: KindListElementAssigned, Entity: entity, Variable: variable, Element: element})
}

// BeforeListVariableElementUnassigned opens a pair around element leaving every list.
// entity is the list it leaves.
func (d *ScoreDirector[S]) BeforeListVariableElementUnassigned(entity any, variable string, element any) error {
	return d.beforeElement(KindListElementUnassigned, entity, variable, element)
}

// AfterListVariableElementUnassigned closes the element-unassigned pair.
func (d *ScoreDirector[S]) AfterListVariableElementUnassigned(entity any, variable string, element any) error {
	return d.after(Notification{Kind: KindListElementUnassigned, Entity: entity, Variable: variable, Element: element})
}

// BeforeListVariableChanged opens a pair around a change of the range [from, to)
// of entity's list. The range must lie within the current list.
func (d *ScoreDirector[S]) BeforeListVariableChanged(entity any, variable string, from, to int) error {
	n := Notification{Kind: KindListChanged, Entity: entity, Variable: variable, From: from, To: to}
	vd, err := d.checkVariable(n, true)
	if err != nil {
		return d.fail(err)
	}
	if err := d.checkRange(vd, n); err != nil {
		return d.fail(err)
	}
	n.variable = vd
	return d.before(n)
}

// AfterListVariableChanged closes the list pair. [from, to) is the changed range of
// the list as it is now and may differ from the before-call's range.
func (d *ScoreDirector[S]) AfterListVariableChanged(entity any, variable string, from, to int) error {
	return d.after(Notification{Kind: KindListChanged, Entity: entity, Variable: variable, From: from, To: to})
}

// BeforeProblemFactAdded opens a fact-added pair.
func (d *ScoreDirector[S]) BeforeProblemFactAdded(fact any) error {
	return d.beforeFact(KindFactAdded, fact)
}

// AfterProblemFactAdded closes the fact-added pair. Listeners are reset on the next trigger.
func (d *ScoreDirector[S]) AfterProblemFactAdded(fact any) error {
	return d.after(Notification{Kind: KindFactAdded, Entity: fact})
}

// BeforeProblemFactRemoved opens a fact-removed pair.
func (d *ScoreDirector[S]) BeforeProblemFactRemoved(fact any) error {
	return d.beforeFact(KindFactRemoved, fact)
}

// AfterProblemFactRemoved closes the fact-removed pair.
func (d *ScoreDirector[S]) AfterProblemFactRemoved(fact any) error {
	return d.after(Notification{Kind: KindFactRemoved, Entity: fact})
}

// BeforeProblemPropertyChanged opens a pair around a change of a fact's own properties,
// or of an entity property that is not a planning variable.
func (d *ScoreDirector[S]) BeforeProblemPropertyChanged(fact any) error {
	return d.beforeFact(KindFactPropertyChanged, fact)
}

// AfterProblemPropertyChanged closes the property pair.
func (d *ScoreDirector[S]) AfterProblemPropertyChanged(fact any) error {
	return d.after(Notification{Kind: KindFactPropertyChanged, Entity: fact})
}

func (d *ScoreDirector[S]) beforeEntity(kind Kind, entity any) error {
	op := "before_" + string(kind)
	if err := d.checkAttached(op); err != nil {
		return d.fail(err)
	}
	if _, err := d.entityDescriptor(entity, op); err != nil {
		return d.fail(err)
	}
	return d.before(Notification{Kind: kind, Entity: entity})
}

func (d *ScoreDirector[S]) beforeElement(kind Kind, entity any, variable string, element any) error {
	n := Notification{Kind: kind, Entity: entity, Variable: variable, Element: element}
	vd, err := d.checkVariable(n, true)
	if err != nil {
		return d.fail(err)
	}
	if core.IsNil(element) {
		return d.fail(core.NewUsageError(fmt.Sprintf("%s of %s has no element", n, d.describe(entity)), nil).
			WithCode(core.ErrCodeTypeMismatch).
			WithOperation("before_" + string(kind)).
			WithEntity(d.describe(entity)).
			WithVariable(variable))
	}
	n.variable = vd
	return d.before(n)
}

func (d *ScoreDirector[S]) beforeFact(kind Kind, fact any) error {
	op := "before_" + string(kind)
	if err := d.checkAttached(op); err != nil {
		return d.fail(err)
	}
	if core.IsNil(fact) {
		return d.fail(core.NewUsageError(fmt.Sprintf("%s of a nil fact", kind), nil).
			WithCode(core.ErrCodeTypeMismatch).
			WithOperation(op))
	}
	return d.before(Notification{Kind: kind, Entity: fact})
}

// checkVariable validates the entity and variable of a variable family call.
func (d *ScoreDirector[S]) checkVariable(n Notification, list bool) (*descriptor.VariableDescriptor, error) {
	op := "before_" + string(n.Kind)
	if err := d.checkAttached(op); err != nil {
		return nil, err
	}
	if _, err := d.entityDescriptor(n.Entity, op); err != nil {
		return nil, err
	}
	vd, err := d.desc.VariableDescriptorFor(n.Entity, n.Variable)
	if err != nil {
		return nil, err
	}
	if vd.IsList() != list {
		want := "a scalar or shadow variable"
		if list {
			want = "a list variable"
		}
		return nil, core.NewUsageError(fmt.Sprintf("%s needs %s, %s is %s", n.Kind, want, vd, vd.Kind()), nil).
			WithCode(core.ErrCodeVariableKind).
			WithOperation(op).
			WithEntity(d.describe(n.Entity)).
			WithVariable(n.Variable)
	}
	return vd, nil
}

func (d *ScoreDirector[S]) checkRange(vd *descriptor.VariableDescriptor, n Notification) error {
	size, err := vd.ListSize(n.Entity)
	if err != nil {
		return err
	}
	if n.From < 0 || n.From > n.To || n.To > size {
		return core.NewUsageError(fmt.Sprintf("range [%d, %d) is outside %s of size %d", n.From, n.To, vd, size), nil).
			WithCode(core.ErrCodeInvalidRange).
			WithOperation(n.Phase.String()+"_"+string(n.Kind)).
			WithEntity(d.describe(n.Entity)).
			WithVariable(n.Variable).
			WithDetail("from", n.From).
			WithDetail("to", n.To).
			WithDetail("size", size)
	}
	return nil
}

// before opens the pair n and delivers it immediately.
func (d *ScoreDirector[S]) before(n Notification) error {
	if d.open != nil {
		return d.fail(d.nestedError("before_" + string(n.Kind)))
	}
	n.Phase = PhaseBefore
	d.open = &n

	removes := n.Kind == KindEntityRemoved || n.Kind == KindFactRemoved
	if removes {
		if err := d.lookups.RemoveWorkingObject(n.Entity); err != nil {
			d.open = nil
			return d.fail(err)
		}
	}
	err := d.notifyIncremental(n)
	if err == nil && n.listened() {
		err = d.deliver(n)
	}
	if err != nil {
		d.open = nil
		// still part of the working solution
		if removes {
			if addErr := d.lookups.AddWorkingObject(n.Entity); addErr != nil {
				err = errors.Join(err, addErr)
			}
		}
		return d.fail(err)
	}
	return nil
}

// after closes the open pair and queues n for the listeners.
func (d *ScoreDirector[S]) after(n Notification) error {
	n.Phase = PhaseAfter
	op := "after_" + string(n.Kind)
	if err := d.checkAttached(op); err != nil {
		return d.fail(err)
	}
	if d.open == nil || !d.open.closes(n) {
		msg := fmt.Sprintf("%s without a matching before-call", n)
		if d.open != nil {
			msg = fmt.Sprintf("%s does not match the open %s", n, d.open)
		}
		return d.fail(core.NewUsageError(msg, nil).
			WithCode(core.ErrCodeUnpairedNotification).
			WithOperation(op).
			WithEntity(d.describe(n.Entity)).
			WithVariable(n.Variable))
	}
	n.variable = d.open.variable
	if n.Kind == KindListChanged {
		if err := d.checkRange(n.variable, n); err != nil {
			return d.fail(err)
		}
	}
	// A rejected key leaves the pair open so the caller can fix the id and retry.
	switch n.Kind {
	case KindEntityAdded, KindFactAdded:
		if err := d.lookups.AddWorkingObject(n.Entity); err != nil {
			return d.fail(err)
		}
	}
	d.open = nil
	d.metrics.RecordNotification(string(n.Kind))

	if err := d.notifyIncremental(n); err != nil {
		return d.fail(err)
	}
	if n.listened() {
		d.pending = append(d.pending, n)
	}
	if n.resetsListeners() {
		d.resetPending = true
	}
	return nil
}

func (d *ScoreDirector[S]) notifyIncremental(n Notification) error {
	if d.incremental == nil || !d.incrementalReady {
		return nil
	}
	return d.incremental.Notify(n)
}
