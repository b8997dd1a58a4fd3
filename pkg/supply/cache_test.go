package supply

import (
	"fmt"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/telemetry"
)

type distanceIndex struct {
	from, to  string
	destroyed bool
}

func (s *distanceIndex) Destroy() { s.destroyed = true }

// distanceDemand counts its creations through a shared counter.
type distanceDemand struct {
	from, to string
	created  *atomic.Int32
}

func (d distanceDemand) CreateExternalizedSupply(Manager) Supply {
	if d.created != nil {
		d.created.Add(1)
	}
	return &distanceIndex{from: d.from, to: d.to}
}

type sliceDemand []string

func (sliceDemand) CreateExternalizedSupply(Manager) Supply { return nil }

// anyDemand has a comparable type but may hold an unhashable key.
type anyDemand struct{ key any }

func (anyDemand) CreateExternalizedSupply(Manager) Supply { return &counterSupply{} }

func TestCache_EqualDemandsShareSupply(t *testing.T) {
	var created atomic.Int32
	c := NewCache()
	d1 := distanceDemand{from: "a", to: "b", created: &created}
	d2 := distanceDemand{from: "a", to: "b", created: &created}

	s1, err := c.Demand(d1)
	if err != nil {
		t.Fatalf("Demand(d1) error = %v", err)
	}
	s2, err := c.Demand(d2)
	if err != nil {
		t.Fatalf("Demand(d2) error = %v", err)
	}
	if s1 != s2 {
		t.Error("equal demands should share the identical supply")
	}
	if created.Load() != 1 {
		t.Errorf("CreateExternalizedSupply called %d times, want 1", created.Load())
	}
	if got := c.ActiveCount(d1); got != 2 {
		t.Errorf("ActiveCount(d1) = %d, want 2", got)
	}

	if !c.Cancel(d1) {
		t.Error("Cancel(d1) = false, want true")
	}
	if got := c.ActiveCount(d1); got != 1 {
		t.Errorf("ActiveCount(d1) after one cancel = %d, want 1", got)
	}
	if !c.Cancel(d2) {
		t.Error("Cancel(d2) = false, want true")
	}
	if got := c.ActiveCount(d1); got != 0 {
		t.Errorf("ActiveCount(d1) after two cancels = %d, want 0", got)
	}
	if !s1.(*distanceIndex).destroyed {
		t.Error("eager reclamation should destroy the supply at count zero")
	}
	if c.Cancel(d1) {
		t.Error("Cancel() past zero = true, want false")
	}
}

func TestCache_DistinctDemands(t *testing.T) {
	c := NewCache()
	s1, _ := c.Demand(distanceDemand{from: "a", to: "b"})
	s2, _ := c.Demand(distanceDemand{from: "a", to: "c"})
	if s1 == s2 {
		t.Error("distinct demands should get distinct supplies")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCache_CancelNeverDemanded(t *testing.T) {
	c := NewCache()
	d := distanceDemand{from: "x", to: "y"}
	if c.Cancel(d) {
		t.Error("Cancel() of a never-demanded demand = true, want false")
	}
	if got := c.ActiveCount(d); got != 0 {
		t.Errorf("ActiveCount() = %d, want 0", got)
	}
}

func TestCache_DeferredReclamation(t *testing.T) {
	var created atomic.Int32
	c := NewCache(WithReclamation(ReclamationDeferred))
	d := distanceDemand{from: "a", to: "b", created: &created}

	s1, _ := c.Demand(d)
	c.Cancel(d)
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want the deferred entry kept", c.Len())
	}
	if got := c.ActiveCount(d); got != 0 {
		t.Errorf("ActiveCount() = %d, want 0", got)
	}

	s2, _ := c.Demand(d)
	if s1 != s2 || created.Load() != 1 {
		t.Error("a deferred supply should be reused by a later demand")
	}

	c.Close()
	if !s1.(*distanceIndex).destroyed {
		t.Error("Close() should destroy deferred supplies")
	}
	if c.Len() != 0 {
		t.Errorf("Len() after Close() = %d, want 0", c.Len())
	}
	if _, err := c.Demand(d); core.CodeOf(err) != core.ErrCodeClosed {
		t.Errorf("Demand() after Close() error = %v, want CLOSED", err)
	}
	c.Close()
}

func TestCache_Hooks(t *testing.T) {
	var events []string
	c := NewCache(
		WithCreateHook(func(d Demand, s Supply) { events = append(events, "create") }),
		WithDestroyHook(func(d Demand, s Supply) { events = append(events, "destroy") }),
	)
	d := distanceDemand{from: "a", to: "b"}
	_, _ = c.Demand(d)
	_, _ = c.Demand(d)
	c.Cancel(d)
	c.Cancel(d)

	want := []string{"create", "destroy"}
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Errorf("hook events = %v, want %v", events, want)
	}
}

func TestCache_InvalidDemands(t *testing.T) {
	c := NewCache()
	if _, err := c.Demand(nil); !core.IsUsageError(err) {
		t.Errorf("Demand(nil) error = %v, want usage error", err)
	}
	_, err := c.Demand(sliceDemand{"a"})
	if core.CodeOf(err) != core.ErrCodeNonComparable {
		t.Errorf("Demand(non-comparable) error = %v, want NON_COMPARABLE", err)
	}
	if c.Cancel(sliceDemand{"a"}) {
		t.Error("Cancel(non-comparable) = true, want false")
	}

	_, err = c.Demand(anyDemand{key: []string{"a"}})
	if core.CodeOf(err) != core.ErrCodeNonComparable {
		t.Errorf("Demand(slice in interface field) error = %v, want NON_COMPARABLE", err)
	}
	if c.Cancel(anyDemand{key: map[string]int{"a": 1}}) {
		t.Error("Cancel(map in interface field) = true, want false")
	}
	if got := c.ActiveCount(anyDemand{key: []string{"a"}}); got != 0 {
		t.Errorf("ActiveCount(slice in interface field) = %d, want 0", got)
	}
	if _, err := c.Demand(anyDemand{key: "a"}); err != nil {
		t.Errorf("Demand(string in interface field) error = %v", err)
	}
}

type counterSupply struct{ n int }

type counterDemand struct{}

func (counterDemand) CreateExternalizedSupply(Manager) Supply { return &counterSupply{} }

func TestDemandAs(t *testing.T) {
	c := NewCache()
	s, err := DemandAs[*distanceIndex](c, distanceDemand{from: "a"})
	if err != nil {
		t.Fatalf("DemandAs() error = %v", err)
	}
	if s.from != "a" {
		t.Errorf("DemandAs().from = %q, want a", s.from)
	}

	_, err = DemandAs[*distanceIndex](c, counterDemand{})
	if core.CodeOf(err) != core.ErrCodeTypeMismatch {
		t.Errorf("DemandAs() with wrong type error = %v, want TYPE_MISMATCH", err)
	}
	if got := c.ActiveCount(counterDemand{}); got != 0 {
		t.Errorf("ActiveCount() after failed DemandAs = %d, want 0", got)
	}
}

// nestedDemand builds its supply on top of another supply from the same manager.
type nestedDemand struct{}

func (nestedDemand) CreateExternalizedSupply(m Manager) Supply {
	inner, _ := m.Demand(counterDemand{})
	return inner
}

func TestCache_NestedDemand(t *testing.T) {
	c := NewCache()
	outer, err := c.Demand(nestedDemand{})
	if err != nil {
		t.Fatalf("Demand(nested) error = %v", err)
	}
	inner, _ := c.Demand(counterDemand{})
	if outer != inner {
		t.Error("nested demand should reuse the inner supply")
	}
	if got := c.ActiveCount(counterDemand{}); got != 2 {
		t.Errorf("ActiveCount(inner) = %d, want 2", got)
	}
}

func TestCache_ConcurrentDemandCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	var created atomic.Int32
	metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{Enabled: true, Namespace: "test"})
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	c := NewCache(WithMetrics(metrics), WithReclamation(ReclamationDeferred))
	d := distanceDemand{from: "a", to: "b", created: &created}

	const workers = 16
	const rounds = 200
	supplies := make([]Supply, workers)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for r := 0; r < rounds; r++ {
				s, err := c.Demand(d)
				if err != nil {
					return err
				}
				if supplies[i] == nil {
					supplies[i] = s
				} else if supplies[i] != s {
					return fmt.Errorf("worker %d got a second supply instance", i)
				}
				if !c.Cancel(d) {
					return fmt.Errorf("worker %d: cancel after demand returned false", i)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if created.Load() != 1 {
		t.Errorf("CreateExternalizedSupply called %d times, want 1", created.Load())
	}
	if got := c.ActiveCount(d); got != 0 {
		t.Errorf("ActiveCount() = %d, want 0", got)
	}
	for i := 1; i < workers; i++ {
		if supplies[i] != supplies[0] {
			t.Fatalf("worker %d saw a different supply", i)
		}
	}
}

func TestCache_ConcurrentEagerDemandsStayBalanced(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCache()
	d := distanceDemand{from: "a", to: "b"}

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for r := 0; r < 100; r++ {
				if _, err := c.Demand(d); err != nil {
					return err
				}
				c.Cancel(d)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after balanced demand/cancel", c.Len())
	}
}
