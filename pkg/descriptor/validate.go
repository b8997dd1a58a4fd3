package descriptor

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/lookup"
)

var validate = validator.New()

// ValidateConfig runs every descriptor-build check that needs no code bindings.
// It returns the first ConfigurationError found.
func ValidateConfig(cfg *SolutionConfig) error {
	if cfg == nil {
		return configError(core.ErrCodeInvalidConfig, "solution config is nil")
	}
	if err := validate.Struct(cfg); err != nil {
		return core.NewConfigurationError("solution config failed validation", err).
			WithCode(core.ErrCodeInvalidConfig).
			WithEntity(cfg.Name)
	}

	v := &configValidator{
		cfg:      cfg,
		entities: make(map[string]*EntityConfig, len(cfg.Entities)),
		facts:    make(map[string]*FactConfig, len(cfg.Facts)),
	}
	return v.run()
}

type configValidator struct {
	cfg      *SolutionConfig
	entities map[string]*EntityConfig
	facts    map[string]*FactConfig
}

func (v *configValidator) run() error {
	checks := []func() error{
		v.checkNames,
		v.checkExtends,
		v.checkCollections,
		v.checkValueRangeProviders,
		v.checkEntities,
		v.checkPlanningIDs,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (v *configValidator) checkNames() error {
	for i := range v.cfg.Entities {
		e := &v.cfg.Entities[i]
		if _, dup := v.entities[e.Name]; dup {
			return configError(core.ErrCodeDuplicateName, "entity type %q is declared twice", e.Name).WithEntity(e.Name)
		}
		v.entities[e.Name] = e
	}
	for i := range v.cfg.Facts {
		f := &v.cfg.Facts[i]
		if _, dup := v.facts[f.Name]; dup {
			return configError(core.ErrCodeDuplicateName, "fact type %q is declared twice", f.Name).WithEntity(f.Name)
		}
		if _, clash := v.entities[f.Name]; clash {
			return configError(core.ErrCodeDuplicateName, "%q is declared as both entity and fact type", f.Name).WithEntity(f.Name)
		}
		v.facts[f.Name] = f
	}
	if v.entities[v.cfg.Name] != nil || v.facts[v.cfg.Name] != nil {
		return configError(core.ErrCodeDuplicateName, "solution type %q is also declared as entity or fact type", v.cfg.Name)
	}
	return nil
}

func (v *configValidator) checkExtends() error {
	for _, e := range v.cfg.Entities {
		seen := map[string]bool{e.Name: true}
		for cur := e; cur.Extends != ""; {
			parent, ok := v.entities[cur.Extends]
			if !ok {
				return configError(core.ErrCodeUnknownReference, "entity type %q extends unknown entity type %q", cur.Name, cur.Extends).
					WithEntity(cur.Name)
			}
			if seen[parent.Name] {
				return configError(core.ErrCodeInvalidConfig, "entity type %q has a cyclic extends chain", e.Name).
					WithEntity(e.Name)
			}
			seen[parent.Name] = true
			cur = *parent
		}
	}
	return nil
}

func (v *configValidator) checkCollections() error {
	properties := make(map[string]bool)
	all := append(append([]CollectionConfig{}, v.cfg.EntityCollections...), v.cfg.FactCollections...)
	for _, c := range all {
		if properties[c.Property] {
			return configError(core.ErrCodeDuplicateName, "solution property %q is declared as collection twice", c.Property).
				WithVariable(c.Property)
		}
		properties[c.Property] = true
	}
	for _, c := range v.cfg.EntityCollections {
		if _, ok := v.entities[c.Type]; !ok {
			return configError(core.ErrCodeUnknownReference, "entity collection %q holds unknown entity type %q", c.Property, c.Type).
				WithVariable(c.Property)
		}
	}
	for _, c := range v.cfg.FactCollections {
		if _, ok := v.facts[c.Type]; !ok {
			return configError(core.ErrCodeUnknownReference, "fact collection %q holds undeclared fact type %q", c.Property, c.Type).
				WithVariable(c.Property)
		}
	}
	return nil
}

func (v *configValidator) checkValueRangeProviders() error {
	check := func(owner string, ranges []ValueRangeConfig) error {
		ids := make(map[string]bool, len(ranges))
		for _, r := range ranges {
			if ids[r.ID] {
				return configError(core.ErrCodeDuplicateName, "value range provider %q is declared twice on %s", r.ID, owner).
					WithEntity(owner)
			}
			ids[r.ID] = true
			if r.kind() == RangeInt && r.From > r.To {
				return configError(core.ErrCodeInvalidConfig, "int value range %q has from %d > to %d", r.ID, r.From, r.To).
					WithEntity(owner)
			}
		}
		return nil
	}
	if err := check(v.cfg.Name, v.cfg.ValueRanges); err != nil {
		return err
	}
	for _, e := range v.cfg.Entities {
		if err := check(e.Name, e.ValueRanges); err != nil {
			return err
		}
	}
	return nil
}

// chain returns the entity and its ancestors, the entity first.
func (v *configValidator) chain(name string) []*EntityConfig {
	var out []*EntityConfig
	for e := v.entities[name]; e != nil; e = v.entities[e.Extends] {
		out = append(out, e)
		if e.Extends == "" {
			break
		}
	}
	return out
}

// variableKinds maps every variable visible on an entity type to its kind.
func (v *configValidator) variableKinds(name string) map[string]VariableKind {
	kinds := make(map[string]VariableKind)
	for _, e := range v.chain(name) {
		for _, vc := range e.Variables {
			kinds[vc.Name] = vc.Kind
		}
		for _, sc := range e.ShadowVariables {
			kinds[sc.Name] = KindShadow
		}
	}
	return kinds
}

func (v *configValidator) checkEntities() error {
	for i := range v.cfg.Entities {
		e := &v.cfg.Entities[i]
		if err := v.checkEntity(e); err != nil {
			return err
		}
	}
	return nil
}

func (v *configValidator) checkEntity(e *EntityConfig) error {
	chain := v.chain(e.Name)

	names := make(map[string]bool)
	for _, c := range chain {
		for _, vc := range c.Variables {
			if names[vc.Name] {
				return configError(core.ErrCodeDuplicateName, "entity type %q declares variable %q twice", e.Name, vc.Name).
					WithEntity(e.Name).WithVariable(vc.Name)
			}
			names[vc.Name] = true
		}
		for _, sc := range c.ShadowVariables {
			if names[sc.Name] {
				return configError(core.ErrCodeDuplicateName, "entity type %q declares variable %q twice", e.Name, sc.Name).
					WithEntity(e.Name).WithVariable(sc.Name)
			}
			names[sc.Name] = true
		}
	}
	if len(names) == 0 {
		return configError(core.ErrCodeNoVariables, "entity type %q declares no planning or shadow variable", e.Name).
			WithEntity(e.Name)
	}

	if e.DifficultyComparator != "" && e.DifficultyWeightFactory != "" {
		return configError(core.ErrCodeDifficultyConflict,
			"entity type %q declares both difficulty comparator %q and difficulty weight factory %q",
			e.Name, e.DifficultyComparator, e.DifficultyWeightFactory).
			WithEntity(e.Name)
	}

	for _, vc := range e.Variables {
		for _, ref := range vc.ValueRangeRefs {
			if !v.resolvesValueRange(chain, ref) {
				return configError(core.ErrCodeUnresolvedValueRange,
					"variable %q references value range provider %q, which is declared on neither the entity nor the solution",
					vc.Name, ref).
					WithEntity(e.Name).WithVariable(vc.Name)
			}
		}
	}

	for _, sc := range e.ShadowVariables {
		if err := v.checkShadow(e, sc); err != nil {
			return err
		}
	}
	return nil
}

func (v *configValidator) resolvesValueRange(chain []*EntityConfig, ref string) bool {
	for _, c := range chain {
		for _, r := range c.ValueRanges {
			if r.ID == ref {
				return true
			}
		}
	}
	for _, r := range v.cfg.ValueRanges {
		if r.ID == ref {
			return true
		}
	}
	return false
}

func (v *configValidator) checkShadow(e *EntityConfig, sc ShadowVariableConfig) error {
	fail := func(format string, args ...any) error {
		return configError(core.ErrCodeInvalidShadowVariable, format, args...).
			WithEntity(e.Name).WithVariable(sc.Name)
	}

	var kinds []VariableKind
	for _, src := range sc.Sources {
		entity := src.Entity
		if entity == "" {
			entity = e.Name
		}
		if _, ok := v.entities[entity]; !ok {
			return fail("shadow variable %q has a source on unknown entity type %q", sc.Name, entity)
		}
		kind, ok := v.variableKinds(entity)[src.Variable]
		if !ok {
			return fail("shadow variable %q has unknown source variable %s.%s", sc.Name, entity, src.Variable)
		}
		if entity == e.Name && src.Variable == sc.Name {
			return fail("shadow variable %q is its own source", sc.Name)
		}
		kinds = append(kinds, kind)
	}

	switch sc.Kind {
	case ShadowListIndex, ShadowListInverse:
		if len(sc.Sources) != 1 || kinds[0] != KindList {
			return fail("%s shadow variable %q needs exactly one list source variable", sc.Kind, sc.Name)
		}
	case ShadowCustom:
		if sc.Listener == "" {
			return fail("custom shadow variable %q names no listener", sc.Name)
		}
		hasList := false
		for _, k := range kinds {
			hasList = hasList || k == KindList
		}
		for _, k := range kinds {
			if hasList && k != KindList {
				return fail("custom shadow variable %q mixes list and scalar sources", sc.Name)
			}
		}
	}
	return nil
}

func (v *configValidator) checkPlanningIDs() error {
	if v.cfg.LookupStrategy != lookup.StrategyPlanningIDOrFailFast {
		return nil
	}
	for _, e := range v.cfg.Entities {
		if v.idProperty(e.Name) == "" {
			return configError(core.ErrCodeMissingPlanningID,
				"entity type %q has no id property, required by lookup strategy %s", e.Name, v.cfg.LookupStrategy).
				WithEntity(e.Name)
		}
	}
	for _, f := range v.cfg.Facts {
		if f.IDProperty == "" {
			return configError(core.ErrCodeMissingPlanningID,
				"fact type %q has no id property, required by lookup strategy %s", f.Name, v.cfg.LookupStrategy).
				WithEntity(f.Name)
		}
	}
	return nil
}

func (v *configValidator) idProperty(entity string) string {
	for _, c := range v.chain(entity) {
		if c.IDProperty != "" {
			return c.IDProperty
		}
	}
	return ""
}

func configError(code, format string, args ...any) *core.SolverError {
	return core.NewConfigurationError(fmt.Sprintf(format, args...), nil).WithCode(code)
}
