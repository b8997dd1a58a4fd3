package descriptor

import (
	"fmt"
	"reflect"

	"github.com/rs/zerolog/log"

	"github.com/openfroyo/plancore/pkg/accessor"
	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/lookup"
)

// Build validates cfg and resolves it against the code-side bindings into an
// immutable SolutionDescriptor. Every failure is a ConfigurationError.
func Build(cfg *SolutionConfig, bindings *Bindings) (*SolutionDescriptor, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if bindings == nil {
		bindings = NewBindings()
	}

	b := &builder{
		cfg:      cfg,
		bindings: bindings,
		configs:  make(map[string]*EntityConfig, len(cfg.Entities)),
		sd: &SolutionDescriptor{
			name:           cfg.Name,
			lookupStrategy: cfg.LookupStrategy,
			valueRanges:    make(map[string]*ValueRangeDescriptor),
			entityByName:   make(map[string]*EntityDescriptor),
			entityByType:   make(map[reflect.Type]*EntityDescriptor),
			factByName:     make(map[string]*FactDescriptor),
			ids:            make(map[reflect.Type]accessor.MemberAccessor),
		},
	}
	if b.sd.lookupStrategy == "" {
		b.sd.lookupStrategy = lookup.StrategyPlanningIDOrNone
	}
	for i := range cfg.Entities {
		b.configs[cfg.Entities[i].Name] = &cfg.Entities[i]
	}

	steps := []func() error{
		b.buildSolution,
		b.buildFacts,
		b.buildEntities,
		b.linkShadows,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	log.Debug().
		Str("solution", b.sd.name).
		Int("entity_types", len(b.sd.entities)).
		Int("fact_types", len(b.sd.facts)).
		Str("lookup_strategy", string(b.sd.lookupStrategy)).
		Msg("Solution descriptor built")

	return b.sd, nil
}

type builder struct {
	cfg      *SolutionConfig
	bindings *Bindings
	configs  map[string]*EntityConfig
	sd       *SolutionDescriptor
}

func (b *builder) boundType(name string) (reflect.Type, error) {
	bt, ok := b.bindings.types[name]
	if !ok {
		return nil, configError(core.ErrCodeUnboundProperty, "type %q is not bound", name).WithEntity(name)
	}
	return bt.typ, nil
}

// property resolves a bound accessor and checks it can read instances of typ.
func (b *builder) property(typeName string, typ reflect.Type, property string) (accessor.MemberAccessor, error) {
	a, ok := b.bindings.accessor(typeName, property)
	if !ok {
		return nil, configError(core.ErrCodeUnboundProperty, "property %q of type %q is not bound", property, typeName).
			WithEntity(typeName).WithVariable(property)
	}
	if !typ.AssignableTo(a.DeclaringType()) {
		return nil, configError(core.ErrCodeInvalidAccessorKind, "accessor %q is declared on %s, not on %s",
			property, a.DeclaringType(), typ).
			WithEntity(typeName).WithVariable(property)
	}
	return a, nil
}

func (b *builder) buildSolution() error {
	typ, err := b.boundType(b.cfg.Name)
	if err != nil {
		return err
	}
	b.sd.typ = typ

	if b.cfg.ScoreProperty != "" {
		a, err := b.property(b.cfg.Name, typ, b.cfg.ScoreProperty)
		if err != nil {
			return err
		}
		if !a.DeclaredType().Implements(reflect.TypeFor[core.Score]()) {
			return configError(core.ErrCodeInvalidAccessorKind, "score property %q holds %s, not a core.Score",
				b.cfg.ScoreProperty, a.DeclaredType()).WithVariable(b.cfg.ScoreProperty)
		}
		b.sd.score = a
	}

	collections := func(cfgs []CollectionConfig) ([]memberCollection, error) {
		out := make([]memberCollection, 0, len(cfgs))
		for _, c := range cfgs {
			a, err := b.property(b.cfg.Name, typ, c.Property)
			if err != nil {
				return nil, err
			}
			if _, ok := a.(accessor.Collection); !ok && !c.Singular {
				return nil, configError(core.ErrCodeInvalidAccessorKind,
					"solution property %q is not a collection accessor; mark it singular", c.Property).
					WithVariable(c.Property)
			}
			out = append(out, memberCollection{accessor: a, singular: c.Singular})
		}
		return out, nil
	}
	if b.sd.entityCollections, err = collections(b.cfg.EntityCollections); err != nil {
		return err
	}
	if b.sd.factCollections, err = collections(b.cfg.FactCollections); err != nil {
		return err
	}

	for _, rc := range b.cfg.ValueRanges {
		r, err := b.valueRange(b.cfg.Name, typ, rc, false)
		if err != nil {
			return err
		}
		b.sd.valueRanges[r.id] = r
	}
	return nil
}

func (b *builder) valueRange(owner string, typ reflect.Type, rc ValueRangeConfig, entityLevel bool) (*ValueRangeDescriptor, error) {
	r := &ValueRangeDescriptor{id: rc.ID, kind: rc.kind(), entityLevel: entityLevel}
	if r.kind == RangeInt {
		r.intRange = IntValueRange{From: rc.From, To: rc.To, Step: rc.step()}
		return r, nil
	}
	a, err := b.property(owner, typ, rc.property())
	if err != nil {
		return nil, err
	}
	if err := checkValueRangeAccessor(rc.ID, a); err != nil {
		return nil, err
	}
	r.accessor = a
	return r, nil
}

func (b *builder) buildFacts() error {
	for _, fc := range b.cfg.Facts {
		typ, err := b.boundType(fc.Name)
		if err != nil {
			return err
		}
		fd := &FactDescriptor{name: fc.Name, typ: typ}
		if fc.IDProperty != "" {
			if fd.id, err = b.property(fc.Name, typ, fc.IDProperty); err != nil {
				return err
			}
			b.sd.ids[typ] = fd.id
		}
		b.sd.facts = append(b.sd.facts, fd)
		b.sd.factByName[fc.Name] = fd
	}
	return nil
}

func (b *builder) buildEntities() error {
	// declaration order, parents built on demand
	for _, ec := range b.cfg.Entities {
		if _, err := b.entity(ec.Name); err != nil {
			return err
		}
	}
	ordered := make([]*EntityDescriptor, 0, len(b.cfg.Entities))
	for _, ec := range b.cfg.Entities {
		ordered = append(ordered, b.sd.entityByName[ec.Name])
	}
	b.sd.entities = ordered
	return nil
}

func (b *builder) entity(name string) (*EntityDescriptor, error) {
	if ed, ok := b.sd.entityByName[name]; ok {
		return ed, nil
	}
	ec := b.configs[name]

	typ, err := b.boundType(name)
	if err != nil {
		return nil, err
	}
	if other, dup := b.sd.entityByType[typ]; dup {
		return nil, configError(core.ErrCodeDuplicateName, "entity types %q and %q are bound to the same Go type %s",
			other.name, name, typ).WithEntity(name)
	}

	ed := &EntityDescriptor{
		name:       name,
		typ:        typ,
		solution:   b.sd,
		byName:     make(map[string]*VariableDescriptor),
		valueRange: make(map[string]*ValueRangeDescriptor),
	}

	if ec.Extends != "" {
		parent, err := b.entity(ec.Extends)
		if err != nil {
			return nil, err
		}
		if !typ.AssignableTo(parent.typ) {
			return nil, configError(core.ErrCodeInvalidConfig, "entity type %q (%s) cannot extend %q (%s)",
				name, typ, parent.name, parent.typ).WithEntity(name)
		}
		ed.parent = parent
		ed.id = parent.id
		for _, v := range parent.variables {
			ed.variables = append(ed.variables, v)
			ed.byName[v.name] = v
		}
	}

	if ec.IDProperty != "" {
		if ed.id, err = b.property(name, typ, ec.IDProperty); err != nil {
			return nil, err
		}
	}
	if ec.PinnedProperty != "" {
		if ed.pinned, err = b.property(name, typ, ec.PinnedProperty); err != nil {
			return nil, err
		}
		if ed.pinned.DeclaredType().Kind() != reflect.Bool {
			return nil, configError(core.ErrCodeInvalidAccessorKind, "pinned property %q holds %s, want bool",
				ec.PinnedProperty, ed.pinned.DeclaredType()).WithEntity(name).WithVariable(ec.PinnedProperty)
		}
	}
	if err := b.entityCapabilities(ed, ec); err != nil {
		return nil, err
	}

	for _, rc := range ec.ValueRanges {
		r, err := b.valueRange(name, typ, rc, true)
		if err != nil {
			return nil, err
		}
		ed.valueRange[r.id] = r
	}

	for _, vc := range ec.Variables {
		vd, err := b.genuineVariable(ed, vc)
		if err != nil {
			return nil, err
		}
		ed.add(vd)
	}
	for _, sc := range ec.ShadowVariables {
		a, err := b.property(name, typ, sc.property())
		if err != nil {
			return nil, err
		}
		ed.add(&VariableDescriptor{name: sc.Name, entity: ed, kind: KindShadow, shadowKind: sc.Kind, accessor: a})
	}

	if ed.id != nil {
		b.sd.ids[typ] = ed.id
	}
	b.sd.entityByName[name] = ed
	b.sd.entityByType[typ] = ed
	return ed, nil
}

func (b *builder) entityCapabilities(ed *EntityDescriptor, ec *EntityConfig) error {
	unbound := func(what, ref string) error {
		return configError(core.ErrCodeUnboundProperty, "%s %q of entity type %q is not bound", what, ref, ed.name).
			WithEntity(ed.name)
	}
	var ok bool
	if ec.PinningFilter != "" {
		if ed.pinningFilter, ok = b.bindings.filters[ec.PinningFilter]; !ok {
			return unbound("pinning filter", ec.PinningFilter)
		}
	}
	if ec.DifficultyComparator != "" {
		if ed.comparator, ok = b.bindings.comparators[ec.DifficultyComparator]; !ok {
			return unbound("difficulty comparator", ec.DifficultyComparator)
		}
	}
	if ec.DifficultyWeightFactory != "" {
		if ed.weightFactory, ok = b.bindings.weights[ec.DifficultyWeightFactory]; !ok {
			return unbound("difficulty weight factory", ec.DifficultyWeightFactory)
		}
	}
	return nil
}

func (b *builder) genuineVariable(ed *EntityDescriptor, vc VariableConfig) (*VariableDescriptor, error) {
	a, err := b.property(ed.name, ed.typ, vc.property())
	if err != nil {
		return nil, err
	}
	vd := &VariableDescriptor{
		name:             vc.Name,
		entity:           ed,
		kind:             vc.Kind,
		accessor:         a,
		allowsUnassigned: vc.AllowsUnassigned,
	}
	if vc.Kind == KindList {
		c, ok := a.(accessor.Collection)
		if !ok {
			return nil, configError(core.ErrCodeInvalidAccessorKind, "list variable %q is bound to a non-collection accessor", vc.Name).
				WithEntity(ed.name).WithVariable(vc.Name)
		}
		vd.collection = c
	}
	for _, ref := range vc.ValueRangeRefs {
		r, ok := ed.lookupValueRange(ref)
		if !ok {
			r, ok = b.sd.valueRanges[ref]
		}
		if !ok {
			return nil, configError(core.ErrCodeUnresolvedValueRange, "value range provider %q is not declared", ref).
				WithEntity(ed.name).WithVariable(vc.Name)
		}
		vd.valueRanges = append(vd.valueRanges, r)
	}
	return vd, nil
}

// linkShadows resolves shadow sources once every variable exists.
func (b *builder) linkShadows() error {
	for _, ec := range b.cfg.Entities {
		ed := b.sd.entityByName[ec.Name]
		for _, sc := range ec.ShadowVariables {
			shadow := ed.byName[sc.Name]
			for _, src := range sc.Sources {
				entity := src.Entity
				if entity == "" {
					entity = ec.Name
				}
				source := b.sd.entityByName[entity].byName[src.Variable]
				shadow.sources = append(shadow.sources, source)
				source.sinks = append(source.sinks, shadow)
			}
			if sc.Kind == ShadowCustom {
				f, ok := b.bindings.listeners[sc.Listener]
				if !ok {
					return configError(core.ErrCodeUnboundProperty, "listener %q of shadow variable %s is not bound", sc.Listener, shadow).
						WithEntity(ec.Name).WithVariable(sc.Name)
				}
				shadow.listenerFactory = f
			}
		}
	}
	return nil
}

func (e *EntityDescriptor) add(v *VariableDescriptor) {
	e.variables = append(e.variables, v)
	e.declared = append(e.declared, v)
	e.byName[v.name] = v
}

// MustBuild is Build for package-level descriptor tables. It panics on error.
func MustBuild(cfg *SolutionConfig, bindings *Bindings) *SolutionDescriptor {
	sd, err := Build(cfg, bindings)
	if err != nil {
		panic(fmt.Sprintf("descriptor: %v", err))
	}
	return sd
}
