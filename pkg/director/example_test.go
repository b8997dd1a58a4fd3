package director_test

import (
	"fmt"

	"github.com/openfroyo/plancore/pkg/accessor"
	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/descriptor"
	"github.com/openfroyo/plancore/pkg/director"
)

type Shift struct {
	ID       string
	Employee *Employee
}

type Employee struct{ Name string }

type Roster struct {
	Employees []*Employee
	Shifts    []*Shift
}

func Example() {
	cfg := &descriptor.SolutionConfig{
		Name:              "Roster",
		EntityCollections: []descriptor.CollectionConfig{{Property: "shifts", Type: "Shift"}},
		ValueRanges:       []descriptor.ValueRangeConfig{{ID: "employees", Property: "employees"}},
		Entities: []descriptor.EntityConfig{{
			Name:       "Shift",
			IDProperty: "id",
			Variables: []descriptor.VariableConfig{
				{Name: "employee", Kind: descriptor.KindScalar, ValueRangeRefs: []string{"employees"}},
			},
		}},
	}

	b := descriptor.NewBindings()
	descriptor.Bind[*Roster](b, "Roster",
		accessor.NewCollection("employees", func(r *Roster) []*Employee { return r.Employees }, nil),
		accessor.NewCollection("shifts", func(r *Roster) []*Shift { return r.Shifts }, nil),
	)
	descriptor.Bind[*Shift](b, "Shift",
		accessor.ReadOnly("id", func(s *Shift) string { return s.ID }),
		accessor.New("employee",
			func(s *Shift) *Employee { return s.Employee },
			func(s *Shift, e *Employee) { s.Employee = e }),
	)
	desc, err := descriptor.Build(cfg, b)
	if err != nil {
		fmt.Println(err)
		return
	}

	// one point lost per shift without an employee
	unstaffed := director.CalculatorFunc[*Roster](func(r *Roster) (core.Score, error) {
		var missing int64
		for _, s := range r.Shifts {
			if s.Employee == nil {
				missing++
			}
		}
		return core.NewSimpleScore(-missing), nil
	})

	d, err := director.New[*Roster](desc, unstaffed)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer d.Close()

	ann := &Employee{Name: "ann"}
	roster := &Roster{Employees: []*Employee{ann}, Shifts: []*Shift{{ID: "mon"}, {ID: "tue"}}}
	if err := d.SetWorkingSolution(roster); err != nil {
		fmt.Println(err)
		return
	}
	before, _ := d.CalculateScore()

	// rebase a detached copy of the shift onto the working one
	shift, _ := director.LookUp(d, &Shift{ID: "mon"})
	_ = d.BeforeVariableChanged(shift, "employee")
	shift.Employee = ann
	_ = d.AfterVariableChanged(shift, "employee")
	_ = d.TriggerVariableListeners()

	after, _ := d.CalculateScore()
	fmt.Println(before, after, d.State())
	// Output: -2 -1 quiescent
}
