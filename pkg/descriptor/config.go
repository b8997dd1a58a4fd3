package descriptor

import (
	"github.com/openfroyo/plancore/pkg/lookup"
)

// VariableKind is the shape of a genuine planning variable.
type VariableKind string

const (
	// KindScalar is a single value taken from a value range.
	KindScalar VariableKind = "scalar"

	// KindList is an ordered sequence of values taken from a value range.
	KindList VariableKind = "list"

	// KindShadow marks a derived variable. Only descriptors use it; configs declare
	// shadows in EntityConfig.ShadowVariables.
	KindShadow VariableKind = "shadow"
)

// ShadowKind selects how a shadow variable is derived.
type ShadowKind string

const (
	// ShadowCustom is maintained by a code-side listener bound by name.
	ShadowCustom ShadowKind = "custom"

	// ShadowListIndex holds the element's index in the list variable that contains it.
	ShadowListIndex ShadowKind = "list_index"

	// ShadowListInverse holds the entity whose list variable contains the element.
	ShadowListInverse ShadowKind = "list_inverse"
)

// ValueRangeKind selects where a value range provider gets its values.
type ValueRangeKind string

const (
	// RangeCollection reads a collection property, or a property holding a ValueRange.
	RangeCollection ValueRangeKind = "collection"

	// RangeInt is an explicit countable integer range [from, to) with a step.
	RangeInt ValueRangeKind = "int"
)

// SolutionConfig is the pre-scanned descriptor table of one solution type.
// It is plain data: code-side capabilities are resolved by name through Bindings.
type SolutionConfig struct {
	// Name is the solution type name, as registered in Bindings.
	Name string `yaml:"name" validate:"required"`

	// LookupStrategy selects how external objects map to working objects.
	LookupStrategy lookup.StrategyType `yaml:"lookup_strategy" validate:"omitempty,oneof=PLANNING_ID_OR_NONE PLANNING_ID_OR_FAIL_FAST EQUALITY NONE"`

	// ScoreProperty is the solution property that holds the score. Optional.
	ScoreProperty string `yaml:"score_property"`

	// EntityCollections are the solution properties holding planning entities.
	EntityCollections []CollectionConfig `yaml:"entity_collections" validate:"required,min=1,dive"`

	// FactCollections are the solution properties holding problem facts.
	FactCollections []CollectionConfig `yaml:"fact_collections" validate:"dive"`

	// ValueRanges are solution-level value range providers.
	ValueRanges []ValueRangeConfig `yaml:"value_ranges" validate:"dive"`

	// Entities are the planning entity types.
	Entities []EntityConfig `yaml:"entities" validate:"required,min=1,dive"`

	// Facts are the problem fact types that need descriptors (planning ids).
	Facts []FactConfig `yaml:"facts" validate:"dive"`
}

// CollectionConfig binds a solution property to the type of the members it holds.
type CollectionConfig struct {
	Property string `yaml:"property" validate:"required"`
	Type     string `yaml:"type" validate:"required"`

	// Singular marks a property holding one member instead of a collection.
	Singular bool `yaml:"singular"`
}

// EntityConfig declares one planning entity type.
type EntityConfig struct {
	Name string `yaml:"name" validate:"required"`

	// Extends names the parent entity type. Variables, value ranges, the planning id
	// and the movable filter are inherited.
	Extends string `yaml:"extends"`

	IDProperty     string `yaml:"id_property"`
	PinnedProperty string `yaml:"pinned_property"`

	// PinningFilter names a bound PinningFilter; it reports entities that must not move.
	PinningFilter string `yaml:"pinning_filter"`

	// At most one of DifficultyComparator and DifficultyWeightFactory may be set.
	DifficultyComparator    string `yaml:"difficulty_comparator"`
	DifficultyWeightFactory string `yaml:"difficulty_weight_factory"`

	// ValueRanges are entity-level value range providers, read from each entity.
	ValueRanges []ValueRangeConfig `yaml:"value_ranges" validate:"dive"`

	Variables       []VariableConfig       `yaml:"variables" validate:"dive"`
	ShadowVariables []ShadowVariableConfig `yaml:"shadow_variables" validate:"dive"`
}

// VariableConfig declares one genuine planning variable.
type VariableConfig struct {
	Name string       `yaml:"name" validate:"required"`
	Kind VariableKind `yaml:"kind" validate:"required,oneof=scalar list"`

	// Property is the bound accessor name. Defaults to Name.
	Property string `yaml:"property"`

	// ValueRangeRefs reference entity-level or solution-level provider ids.
	ValueRangeRefs []string `yaml:"value_range_refs" validate:"required,min=1"`

	// AllowsUnassigned lets a scalar variable stay nil, or a list element stay outside every list.
	AllowsUnassigned bool `yaml:"allows_unassigned"`
}

// ShadowVariableConfig declares one shadow variable.
type ShadowVariableConfig struct {
	Name string     `yaml:"name" validate:"required"`
	Kind ShadowKind `yaml:"kind" validate:"required,oneof=custom list_index list_inverse"`

	// Property is the bound accessor name. Defaults to Name.
	Property string `yaml:"property"`

	// Sources are the variables this shadow derives from.
	Sources []ShadowSourceConfig `yaml:"sources" validate:"required,min=1,dive"`

	// Listener names a bound ListenerFactory. Required for custom shadows.
	Listener string `yaml:"listener"`
}

// ShadowSourceConfig references a variable on some entity type.
type ShadowSourceConfig struct {
	// Entity defaults to the entity declaring the shadow.
	Entity   string `yaml:"entity"`
	Variable string `yaml:"variable" validate:"required"`
}

// ValueRangeConfig declares one value range provider.
type ValueRangeConfig struct {
	ID   string         `yaml:"id" validate:"required"`
	Kind ValueRangeKind `yaml:"kind" validate:"omitempty,oneof=collection int"`

	// Property is the bound accessor name for collection providers. Defaults to ID.
	Property string `yaml:"property"`

	// From, To and Step describe RangeInt providers.
	From int64 `yaml:"from"`
	To   int64 `yaml:"to"`
	Step int64 `yaml:"step" validate:"gte=0"`
}

// FactConfig declares a problem fact type.
type FactConfig struct {
	Name       string `yaml:"name" validate:"required"`
	IDProperty string `yaml:"id_property"`
}

func (c VariableConfig) property() string {
	if c.Property != "" {
		return c.Property
	}
	return c.Name
}

func (c ShadowVariableConfig) property() string {
	if c.Property != "" {
		return c.Property
	}
	return c.Name
}

func (c ValueRangeConfig) kind() ValueRangeKind {
	if c.Kind == "" {
		return RangeCollection
	}
	return c.Kind
}

func (c ValueRangeConfig) property() string {
	if c.Property != "" {
		return c.Property
	}
	return c.ID
}

func (c ValueRangeConfig) step() int64 {
	if c.Step == 0 {
		return 1
	}
	return c.Step
}
