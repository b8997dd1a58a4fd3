package shadow

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/openfroyo/plancore/pkg/accessor"
	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/descriptor"
	"github.com/openfroyo/plancore/pkg/listener"
	"github.com/openfroyo/plancore/pkg/supply"
)

type driver struct{ name string }

type stop struct {
	id    string
	truck *truck
	index *int
}

type truck struct {
	id     string
	driver *driver
	stops  []*stop
}

type plan struct {
	drivers []*driver
	trucks  []*truck
	stops   []*stop
}

func planDescriptor(t *testing.T) *descriptor.SolutionDescriptor {
	t.Helper()
	cfg := &descriptor.SolutionConfig{
		Name: "Plan",
		EntityCollections: []descriptor.CollectionConfig{
			{Property: "trucks", Type: "Truck"},
			{Property: "stops", Type: "Stop"},
		},
		FactCollections: []descriptor.CollectionConfig{{Property: "drivers", Type: "Driver"}},
		ValueRanges: []descriptor.ValueRangeConfig{
			{ID: "stopRange", Property: "stops"},
			{ID: "driverRange", Property: "drivers"},
		},
		Entities: []descriptor.EntityConfig{
			{
				Name: "Truck",
				Variables: []descriptor.VariableConfig{
					{Name: "stops", Kind: descriptor.KindList, ValueRangeRefs: []string{"stopRange"}},
					{Name: "driver", Kind: descriptor.KindScalar, ValueRangeRefs: []string{"driverRange"}, AllowsUnassigned: true},
				},
			},
			{
				Name: "Stop",
				ShadowVariables: []descriptor.ShadowVariableConfig{
					{Name: "truck", Kind: descriptor.ShadowListInverse,
						Sources: []descriptor.ShadowSourceConfig{{Entity: "Truck", Variable: "stops"}}},
					{Name: "index", Kind: descriptor.ShadowListIndex,
						Sources: []descriptor.ShadowSourceConfig{{Entity: "Truck", Variable: "stops"}}},
				},
			},
		},
		Facts: []descriptor.FactConfig{{Name: "Driver"}},
	}

	b := descriptor.NewBindings()
	descriptor.Bind[*plan](b, "Plan",
		accessor.NewCollection("drivers", func(p *plan) []*driver { return p.drivers }, nil),
		accessor.NewCollection("trucks", func(p *plan) []*truck { return p.trucks }, nil),
		accessor.NewCollection("stops", func(p *plan) []*stop { return p.stops }, nil),
	)
	descriptor.Bind[*driver](b, "Driver")
	descriptor.Bind[*truck](b, "Truck",
		accessor.NewCollection("stops",
			func(t *truck) []*stop { return t.stops },
			func(t *truck, s []*stop) { t.stops = s }),
		accessor.New("driver",
			func(t *truck) *driver { return t.driver },
			func(t *truck, d *driver) { t.driver = d }),
	)
	descriptor.Bind[*stop](b, "Stop",
		accessor.New("truck",
			func(s *stop) *truck { return s.truck },
			func(s *stop, t *truck) { s.truck = t }),
		accessor.New("index",
			func(s *stop) *int { return s.index },
			func(s *stop, i *int) { s.index = i }),
	)

	sd, err := descriptor.Build(cfg, b)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return sd
}

// fakeDirector records the notification pairs written by listeners.
type fakeDirector struct {
	solution *plan
	sd       *descriptor.SolutionDescriptor
	supplies *supply.Cache
	open     map[string]int
	changes  []string
}

func newFakeDirector(sd *descriptor.SolutionDescriptor, p *plan) *fakeDirector {
	return &fakeDirector{solution: p, sd: sd, supplies: supply.NewCache(), open: make(map[string]int)}
}

func (d *fakeDirector) WorkingSolution() any { return d.solution }

func (d *fakeDirector) WorkingEntities() ([]any, error) { return d.sd.Entities(d.solution) }

func (d *fakeDirector) SupplyManager() supply.Manager { return d.supplies }

func (d *fakeDirector) BeforeVariableChanged(entity any, variable string) error {
	d.open[entity.(*stop).id+"."+variable]++
	return nil
}

func (d *fakeDirector) AfterVariableChanged(entity any, variable string) error {
	key := entity.(*stop).id + "." + variable
	if d.open[key] == 0 {
		return core.NewUsageError("after without before", nil).WithCode(core.ErrCodeUnpairedNotification)
	}
	d.open[key]--
	d.changes = append(d.changes, key)
	return nil
}

func newPlan() *plan {
	p := &plan{drivers: []*driver{{name: "ann"}, {name: "bob"}}}
	for _, id := range []string{"s0", "s1", "s2", "s3"} {
		p.stops = append(p.stops, &stop{id: id})
	}
	p.trucks = []*truck{
		{id: "t0", stops: []*stop{p.stops[0], p.stops[1]}},
		{id: "t1", stops: []*stop{p.stops[2]}},
	}
	return p
}

func variable(t *testing.T, sd *descriptor.SolutionDescriptor, entity, name string) *descriptor.VariableDescriptor {
	t.Helper()
	ed, ok := sd.EntityDescriptorByName(entity)
	if !ok {
		t.Fatalf("entity %s not found", entity)
	}
	v, ok := ed.Variable(name)
	if !ok {
		t.Fatalf("variable %s.%s not found", entity, name)
	}
	return v
}

type located struct {
	Truck string
	Index int
}

func locations(p *plan) map[string]located {
	out := make(map[string]located)
	for _, s := range p.stops {
		if s.truck == nil {
			continue
		}
		idx := -1
		if s.index != nil {
			idx = *s.index
		}
		out[s.id] = located{Truck: s.truck.id, Index: idx}
	}
	return out
}

func TestListShadowListeners(t *testing.T) {
	sd := planDescriptor(t)
	p := newPlan()
	d := newFakeDirector(sd, p)
	source := variable(t, sd, "Truck", "stops")

	var ls []listener.ListVariableListener
	for _, name := range []string{"truck", "index"} {
		l, err := NewListener(variable(t, sd, "Stop", name))
		if err != nil {
			t.Fatalf("NewListener(%s) error = %v", name, err)
		}
		if err := l.ResetWorkingSolution(d); err != nil {
			t.Fatalf("ResetWorkingSolution() error = %v", err)
		}
		ls = append(ls, l.(listener.ListVariableListener))
	}

	want := map[string]located{"s0": {"t0", 0}, "s1": {"t0", 1}, "s2": {"t1", 0}}
	if diff := cmp.Diff(want, locations(p)); diff != "" {
		t.Fatalf("after reset (-want +got):\n%s", diff)
	}

	// move s0 from t0[0] to t1[0]
	t0, t1 := p.trucks[0], p.trucks[1]
	for _, l := range ls {
		if err := l.BeforeListVariableChanged(d, t0, "stops", 0, 1); err != nil {
			t.Fatal(err)
		}
	}
	if err := source.SetListElements(t0, []any{p.stops[1]}); err != nil {
		t.Fatal(err)
	}
	for _, l := range ls {
		if err := l.AfterListVariableChanged(d, t0, "stops", 0, 0); err != nil {
			t.Fatal(err)
		}
		if err := l.BeforeListVariableChanged(d, t1, "stops", 0, 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := source.SetListElements(t1, []any{p.stops[0], p.stops[2]}); err != nil {
		t.Fatal(err)
	}
	for _, l := range ls {
		if err := l.AfterListVariableChanged(d, t1, "stops", 0, 1); err != nil {
			t.Fatal(err)
		}
	}

	want = map[string]located{"s0": {"t1", 0}, "s1": {"t0", 0}, "s2": {"t1", 1}}
	if diff := cmp.Diff(want, locations(p)); diff != "" {
		t.Errorf("after move (-want +got):\n%s", diff)
	}
	for key, n := range d.open {
		if n != 0 {
			t.Errorf("notification %s left open %d times", key, n)
		}
	}

	// unassign s1
	if err := source.SetListElements(t0, nil); err != nil {
		t.Fatal(err)
	}
	for _, l := range ls {
		if err := l.AfterListVariableElementUnassigned(d, p.stops[1]); err != nil {
			t.Fatal(err)
		}
	}
	if p.stops[1].truck != nil || p.stops[1].index != nil {
		t.Errorf("unassigned s1 = {%v, %v}, want {nil, nil}", p.stops[1].truck, p.stops[1].index)
	}
}

func TestListShadowListener_SkipsUnchangedWrites(t *testing.T) {
	sd := planDescriptor(t)
	p := newPlan()
	d := newFakeDirector(sd, p)

	l, err := NewListIndexListener(variable(t, sd, "Stop", "index"))
	if err != nil {
		t.Fatal(err)
	}
	if err := l.ResetWorkingSolution(d); err != nil {
		t.Fatal(err)
	}
	d.changes = nil
	if err := l.ResetWorkingSolution(d); err != nil {
		t.Fatal(err)
	}
	if len(d.changes) != 0 {
		t.Errorf("second reset wrote %v, want no writes", d.changes)
	}
}

func TestNewListIndexListener_RejectsOtherKinds(t *testing.T) {
	sd := planDescriptor(t)
	_, err := NewListIndexListener(variable(t, sd, "Stop", "truck"))
	if !core.IsConfigurationError(err) {
		t.Errorf("NewListIndexListener(list_inverse) error = %v, want configuration error", err)
	}
}

func TestListState(t *testing.T) {
	sd := planDescriptor(t)
	p := newPlan()
	d := newFakeDirector(sd, p)
	source := variable(t, sd, "Truck", "stops")

	state, err := supply.DemandAs[*ListState](d.supplies, ListStateDemand{Variable: source})
	if err != nil {
		t.Fatalf("DemandAs() error = %v", err)
	}
	if state.SourceVariableDescriptor() != source {
		t.Error("SourceVariableDescriptor() does not return the demanded variable")
	}
	if err := state.ResetWorkingSolution(d); err != nil {
		t.Fatal(err)
	}
	if got := state.AssignedCount(); got != 3 {
		t.Errorf("AssignedCount() = %d, want 3", got)
	}

	// insert s3 at t0[0], shifting s0 and s1
	t0 := p.trucks[0]
	if err := state.BeforeListVariableChanged(d, t0, "stops", 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := source.SetListElements(t0, []any{p.stops[3], p.stops[0], p.stops[1]}); err != nil {
		t.Fatal(err)
	}
	if err := state.AfterListVariableChanged(d, t0, "stops", 0, 1); err != nil {
		t.Fatal(err)
	}
	for i, s := range t0.stops {
		loc, ok := state.Location(s)
		if !ok || loc.Entity != t0 || loc.Index != i {
			t.Errorf("Location(%s) = %+v, %v, want {t0 %d}", s.id, loc, ok, i)
		}
	}

	// remove s0 without putting it elsewhere
	if err := state.BeforeListVariableChanged(d, t0, "stops", 1, 2); err != nil {
		t.Fatal(err)
	}
	if err := source.SetListElements(t0, []any{p.stops[3], p.stops[1]}); err != nil {
		t.Fatal(err)
	}
	if err := state.AfterListVariableChanged(d, t0, "stops", 1, 1); err != nil {
		t.Fatal(err)
	}
	if _, ok := state.Location(p.stops[0]); ok {
		t.Error("removed s0 still has a location")
	}
	if idx, _ := state.Index(p.stops[1]); idx != 1 {
		t.Errorf("Index(s1) = %d, want 1", idx)
	}
	if got := state.InverseEntity(p.stops[2]); got != p.trucks[1] {
		t.Errorf("InverseEntity(s2) = %v, want t1", got)
	}
}

func TestListState_RejectsElementInTwoLists(t *testing.T) {
	sd := planDescriptor(t)
	p := newPlan()
	p.trucks[1].stops = append(p.trucks[1].stops, p.stops[0])
	d := newFakeDirector(sd, p)

	state := NewListState(variable(t, sd, "Truck", "stops"))
	err := state.ResetWorkingSolution(d)
	if core.CodeOf(err) != core.ErrCodeDuplicateKey {
		t.Errorf("ResetWorkingSolution() error = %v, want %s", err, core.ErrCodeDuplicateKey)
	}
}

func TestSingletonInverse(t *testing.T) {
	sd := planDescriptor(t)
	p := newPlan()
	p.trucks[0].driver = p.drivers[0]
	d := newFakeDirector(sd, p)
	source := variable(t, sd, "Truck", "driver")

	inv, err := supply.DemandAs[*SingletonInverse](d.supplies, SingletonInverseDemand{Variable: source})
	if err != nil {
		t.Fatal(err)
	}
	if err := inv.ResetWorkingSolution(d); err != nil {
		t.Fatal(err)
	}
	if got, ok := inv.Inverse(p.drivers[0]); !ok || got != p.trucks[0] {
		t.Errorf("Inverse(ann) = %v, %v, want t0", got, ok)
	}

	// hand ann to t1
	t0, t1 := p.trucks[0], p.trucks[1]
	if err := inv.BeforeVariableChanged(d, t0, "driver"); err != nil {
		t.Fatal(err)
	}
	t0.driver = nil
	if err := inv.AfterVariableChanged(d, t0, "driver"); err != nil {
		t.Fatal(err)
	}
	if err := inv.BeforeVariableChanged(d, t1, "driver"); err != nil {
		t.Fatal(err)
	}
	t1.driver = p.drivers[0]
	if err := inv.AfterVariableChanged(d, t1, "driver"); err != nil {
		t.Fatal(err)
	}
	if got, _ := inv.Inverse(p.drivers[0]); got != t1 {
		t.Errorf("Inverse(ann) = %v, want t1", got)
	}
	if inv.Len() != 1 {
		t.Errorf("Len() = %d, want 1", inv.Len())
	}

	// a second holder is rejected
	if err := inv.BeforeVariableChanged(d, t0, "driver"); err != nil {
		t.Fatal(err)
	}
	t0.driver = p.drivers[0]
	err = inv.AfterVariableChanged(d, t0, "driver")
	if core.CodeOf(err) != core.ErrCodeDuplicateKey {
		t.Errorf("AfterVariableChanged() error = %v, want %s", err, core.ErrCodeDuplicateKey)
	}
}

func TestDemandsShareSupplies(t *testing.T) {
	sd := planDescriptor(t)
	cache := supply.NewCache()
	source := variable(t, sd, "Truck", "stops")

	a, err := cache.Demand(ListStateDemand{Variable: source})
	if err != nil {
		t.Fatal(err)
	}
	b, err := cache.Demand(ListStateDemand{Variable: source})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("equal demands returned different supplies")
	}
	if got := cache.ActiveCount(ListStateDemand{Variable: source}); got != 2 {
		t.Errorf("ActiveCount() = %d, want 2", got)
	}
}
