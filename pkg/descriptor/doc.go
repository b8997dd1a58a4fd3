// Package descriptor builds the immutable descriptor table of a planning domain.
//
// A SolutionConfig is plain data, usually loaded from YAML: the entity and fact
// types, which of their properties are genuine variables, shadow variables,
// value range providers, planning ids or pinned flags, the movable filters and
// the difficulty ordering. Code-side capabilities are registered on Bindings and
// referenced from the config by name:
//
//	b := descriptor.NewBindings()
//	descriptor.Bind[*Lecture](b, "Lecture",
//	    accessor.ReadOnly("id", func(l *Lecture) string { return l.ID }),
//	    accessor.New("timeslot",
//	        func(l *Lecture) *Timeslot { return l.Timeslot },
//	        func(l *Lecture, t *Timeslot) { l.Timeslot = t }))
//	b.PinningFilter("lockedLectures", func(s, e any) bool { return e.(*Lecture).Locked })
//
//	sd, err := descriptor.Build(cfg, b)
//
// Build fails with a core ConfigurationError for every invalid table, before any
// solving begins. ValidateConfig runs the checks that need no bindings.
//
// Entity types may extend another entity type. The parent is typically bound to
// an interface type its children implement, so inherited accessors read children.
package descriptor
