package director

import (
	"fmt"

	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/descriptor"
	"github.com/openfroyo/plancore/pkg/listener"
	"github.com/openfroyo/plancore/pkg/shadow"
	"github.com/openfroyo/plancore/pkg/supply"
)

// registration is one listener and the source variables it observes.
type registration struct {
	listener listener.Listener
	sources  []*descriptor.VariableDescriptor
}

func newRegistration(l listener.Listener, sources []*descriptor.VariableDescriptor, owner string) (*registration, error) {
	for _, src := range sources {
		var ok bool
		if src.IsList() {
			_, ok = l.(listener.ListVariableListener)
		} else {
			_, ok = l.(listener.VariableListener)
		}
		if !ok {
			return nil, core.NewConfigurationError(fmt.Sprintf("listener %T of %s cannot observe %s variable %s", l, owner, src.Kind(), src), nil).
				WithCode(core.ErrCodeInvalidShadowVariable).
				WithVariable(src.Name())
		}
	}
	return &registration{listener: l, sources: sources}, nil
}

// observes reports whether n concerns one of r's sources.
func (r *registration) observes(n Notification) bool {
	for _, src := range r.sources {
		switch n.Kind {
		case KindEntityAdded, KindEntityRemoved:
			if src.EntityDescriptor().Accepts(n.Entity) {
				return true
			}
		default:
			if src == n.variable {
				return true
			}
		}
	}
	return false
}

func (r *registration) notify(d listener.ScoreDirector, n Notification) error {
	before := n.Phase == PhaseBefore
	switch n.Kind {
	case KindEntityAdded, KindEntityRemoved:
		l, ok := r.listener.(interface {
			BeforeEntityAdded(listener.ScoreDirector, any) error
			AfterEntityAdded(listener.ScoreDirector, any) error
			BeforeEntityRemoved(listener.ScoreDirector, any) error
			AfterEntityRemoved(listener.ScoreDirector, any) error
		})
		if !ok {
			return nil
		}
		switch {
		case n.Kind == KindEntityAdded && before:
			return l.BeforeEntityAdded(d, n.Entity)
		case n.Kind == KindEntityAdded:
			return l.AfterEntityAdded(d, n.Entity)
		case before:
			return l.BeforeEntityRemoved(d, n.Entity)
		default:
			return l.AfterEntityRemoved(d, n.Entity)
		}
	case KindVariableChanged:
		l, ok := r.listener.(listener.VariableListener)
		if !ok {
			return nil
		}
		if before {
			return l.BeforeVariableChanged(d, n.Entity, n.Variable)
		}
		return l.AfterVariableChanged(d, n.Entity, n.Variable)
	case KindListChanged:
		l, ok := r.listener.(listener.ListVariableListener)
		if !ok {
			return nil
		}
		if before {
			return l.BeforeListVariableChanged(d, n.Entity, n.Variable, n.From, n.To)
		}
		return l.AfterListVariableChanged(d, n.Entity, n.Variable, n.From, n.To)
	case KindListElementUnassigned:
		l, ok := r.listener.(listener.ListVariableListener)
		if !ok || before {
			return nil
		}
		return l.AfterListVariableElementUnassigned(d, n.Element)
	}
	return nil
}

// registerShadowListeners creates one listener per declared shadow variable.
func (d *ScoreDirector[S]) registerShadowListeners() error {
	for _, ed := range d.desc.EntityDescriptors() {
		for _, v := range ed.DeclaredVariables() {
			if !v.IsShadow() {
				continue
			}
			l, err := shadow.NewListener(v)
			if err != nil {
				return err
			}
			r, err := newRegistration(l, v.Sources(), v.String())
			if err != nil {
				return err
			}
			d.shadowRegs = append(d.shadowRegs, r)
		}
	}
	return nil
}

func (d *ScoreDirector[S]) registerUserListeners(users []userListener) error {
	for _, u := range users {
		ed, ok := d.desc.EntityDescriptorByName(u.entity)
		if !ok {
			return core.NewConfigurationError(fmt.Sprintf("listener registered on unknown entity type %q", u.entity), nil).
				WithCode(core.ErrCodeUnknownReference).
				WithEntity(u.entity)
		}
		v, ok := ed.Variable(u.variable)
		if !ok {
			return core.NewConfigurationError(fmt.Sprintf("listener registered on unknown variable %s.%s", u.entity, u.variable), nil).
				WithCode(core.ErrCodeUnknownReference).
				WithEntity(u.entity).
				WithVariable(u.variable)
		}
		r, err := newRegistration(u.listener, []*descriptor.VariableDescriptor{v}, fmt.Sprintf("%T", u.listener))
		if err != nil {
			return err
		}
		d.shadowRegs = append(d.shadowRegs, r)
	}
	return nil
}

// onSupplyCreated registers supplies that observe a source variable, and resets
// them at once when a working solution is set.
func (d *ScoreDirector[S]) onSupplyCreated(_ supply.Demand, s supply.Supply) {
	src, ok := s.(shadow.Sourced)
	if !ok {
		return
	}
	l, ok := s.(listener.Listener)
	if !ok {
		return
	}
	r, err := newRegistration(l, []*descriptor.VariableDescriptor{src.SourceVariableDescriptor()}, fmt.Sprintf("%T", s))
	if err != nil {
		d.hookErr = err
		return
	}
	d.supplyRegs = append(d.supplyRegs[:len(d.supplyRegs):len(d.supplyRegs)], r)
	if d.attached {
		if err := l.ResetWorkingSolution(d.view); err != nil && d.hookErr == nil {
			d.hookErr = err
		}
	}
}

func (d *ScoreDirector[S]) onSupplyDestroyed(_ supply.Demand, s supply.Supply) {
	kept := make([]*registration, 0, len(d.supplyRegs))
	for _, r := range d.supplyRegs {
		if core.SameObject(r.listener, s) {
			r.listener.Close()
			continue
		}
		kept = append(kept, r)
	}
	d.supplyRegs = kept
}

// deliver hands n to supplies first, then to shadow and user listeners.
func (d *ScoreDirector[S]) deliver(n Notification) error {
	for _, regs := range [][]*registration{d.supplyRegs, d.shadowRegs} {
		for _, r := range regs {
			if !r.observes(n) {
				continue
			}
			if err := r.notify(d.view, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *ScoreDirector[S]) resetListeners() error {
	for _, regs := range [][]*registration{d.supplyRegs, d.shadowRegs} {
		for _, r := range regs {
			if err := r.listener.ResetWorkingSolution(d.view); err != nil {
				return err
			}
		}
	}
	return nil
}

// TriggerVariableListeners delivers every queued after-call, including those queued
// by listeners writing shadow variables, until the queue is empty. A call made
// while triggering returns at once.
func (d *ScoreDirector[S]) TriggerVariableListeners() error {
	const op = "trigger_variable_listeners"
	if d.triggering {
		return nil
	}
	if err := d.checkAttached(op); err != nil {
		return d.fail(err)
	}
	if d.open != nil {
		return d.fail(d.nestedError(op))
	}
	if d.hookErr != nil {
		return d.fail(d.hookErr)
	}

	d.triggering = true
	defer func() { d.triggering = false }()

	if d.resetPending {
		// a reset recomputes everything the queue would have
		d.pending = nil
		d.resetPending = false
		if err := d.resetListeners(); err != nil {
			d.pending = nil
			return d.fail(err)
		}
	}
	for len(d.pending) > 0 {
		n := d.pending[0]
		d.pending = d.pending[1:]
		if err := d.deliver(n); err != nil {
			d.pending = nil
			return d.fail(err)
		}
	}
	if d.hookErr != nil {
		return d.fail(d.hookErr)
	}
	return nil
}
