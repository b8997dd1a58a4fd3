package descriptor

import (
	"strings"
)

// Summary is a printable view of a validated descriptor table.
type Summary struct {
	Solution       string          `yaml:"solution" json:"solution"`
	LookupStrategy string          `yaml:"lookup_strategy" json:"lookup_strategy"`
	Entities       []EntitySummary `yaml:"entities" json:"entities"`
	Facts          []FactSummary   `yaml:"facts,omitempty" json:"facts,omitempty"`
}

// EntitySummary describes one entity type.
type EntitySummary struct {
	Name       string            `yaml:"name" json:"name"`
	Extends    string            `yaml:"extends,omitempty" json:"extends,omitempty"`
	IDProperty string            `yaml:"id_property,omitempty" json:"id_property,omitempty"`
	Movable    string            `yaml:"movable" json:"movable"`
	Difficulty string            `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
	Variables  []VariableSummary `yaml:"variables" json:"variables"`
}

// VariableSummary describes one variable.
type VariableSummary struct {
	Name        string   `yaml:"name" json:"name"`
	Role        string   `yaml:"role" json:"role"`
	Inherited   bool     `yaml:"inherited,omitempty" json:"inherited,omitempty"`
	ValueRanges []string `yaml:"value_ranges,omitempty" json:"value_ranges,omitempty"`
	Sources     []string `yaml:"sources,omitempty" json:"sources,omitempty"`
}

// FactSummary describes one fact type.
type FactSummary struct {
	Name       string `yaml:"name" json:"name"`
	IDProperty string `yaml:"id_property,omitempty" json:"id_property,omitempty"`
}

// Summarize validates cfg and describes its entity and fact types.
func Summarize(cfg *SolutionConfig) (*Summary, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	v := &configValidator{
		cfg:      cfg,
		entities: make(map[string]*EntityConfig, len(cfg.Entities)),
	}
	for i := range cfg.Entities {
		v.entities[cfg.Entities[i].Name] = &cfg.Entities[i]
	}

	s := &Summary{Solution: cfg.Name, LookupStrategy: string(cfg.LookupStrategy)}
	if s.LookupStrategy == "" {
		s.LookupStrategy = "PLANNING_ID_OR_NONE"
	}

	for _, e := range cfg.Entities {
		es := EntitySummary{
			Name:       e.Name,
			Extends:    e.Extends,
			IDProperty: v.idProperty(e.Name),
			Movable:    movableRule(v.chain(e.Name)),
		}
		switch {
		case e.DifficultyComparator != "":
			es.Difficulty = "comparator " + e.DifficultyComparator
		case e.DifficultyWeightFactory != "":
			es.Difficulty = "weight factory " + e.DifficultyWeightFactory
		}

		chain := v.chain(e.Name)
		// ancestors first, like EntityDescriptor.Variables
		for i := len(chain) - 1; i >= 0; i-- {
			c := chain[i]
			inherited := c.Name != e.Name
			for _, vc := range c.Variables {
				es.Variables = append(es.Variables, VariableSummary{
					Name:        vc.Name,
					Role:        "genuine " + string(vc.Kind),
					Inherited:   inherited,
					ValueRanges: vc.ValueRangeRefs,
				})
			}
			for _, sc := range c.ShadowVariables {
				vs := VariableSummary{Name: sc.Name, Role: "shadow " + string(sc.Kind), Inherited: inherited}
				for _, src := range sc.Sources {
					entity := src.Entity
					if entity == "" {
						entity = c.Name
					}
					vs.Sources = append(vs.Sources, entity+"."+src.Variable)
				}
				es.Variables = append(es.Variables, vs)
			}
		}
		s.Entities = append(s.Entities, es)
	}

	for _, f := range cfg.Facts {
		s.Facts = append(s.Facts, FactSummary{Name: f.Name, IDProperty: f.IDProperty})
	}
	return s, nil
}

func movableRule(chain []*EntityConfig) string {
	var terms []string
	for i, c := range chain {
		if c.PinnedProperty != "" {
			terms = append(terms, "not "+c.PinnedProperty)
		}
		if c.PinningFilter != "" {
			term := "not " + c.PinningFilter
			if i > 0 {
				term += " (from " + c.Name + ")"
			}
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return "always"
	}
	return strings.Join(terms, " and ")
}
