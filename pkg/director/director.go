package director

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/descriptor"
	"github.com/openfroyo/plancore/pkg/listener"
	"github.com/openfroyo/plancore/pkg/lookup"
	"github.com/openfroyo/plancore/pkg/supply"
	"github.com/openfroyo/plancore/pkg/telemetry"
)

// ScoreDirector owns one working solution and mediates every mutation of it.
// It has a single writer: no method may be called concurrently with another.
type ScoreDirector[S any] struct {
	id      string
	desc    *descriptor.SolutionDescriptor
	logger  zerolog.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer

	calculator  ScoreCalculator[S]
	incremental IncrementalScoreCalculator[S]
	// incrementalReady is false until the incremental calculator saw the current solution.
	incrementalReady bool

	supplies *supply.Cache
	lookups  *lookup.Manager
	view     *view[S]

	// supplyRegs are notified before shadowRegs. Both are copied on write.
	supplyRegs []*registration
	shadowRegs []*registration

	solution S
	attached bool
	closed   bool

	open         *Notification
	pending      []Notification
	resetPending bool
	triggering   bool
	hookErr      error

	calculations int64
}

// New creates a director for solutions described by desc.
// Built-in shadow listeners and the custom listeners bound to desc are registered here.
func New[S any](desc *descriptor.SolutionDescriptor, calculator ScoreCalculator[S], opts ...Option) (*ScoreDirector[S], error) {
	if desc == nil || calculator == nil {
		return nil, core.NewConfigurationError("score director needs a solution descriptor and a score calculator", nil).
			WithCode(core.ErrCodeInvalidConfig)
	}
	if t := reflect.TypeFor[S](); !t.AssignableTo(desc.Type()) {
		return nil, core.NewConfigurationError(fmt.Sprintf("solution type %s does not match descriptor %s of %s", t, desc.Name(), desc.Type()), nil).
			WithCode(core.ErrCodeInvalidConfig)
	}

	s := settings{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&s)
	}

	d := &ScoreDirector[S]{
		id:         uuid.New().String(),
		desc:       desc,
		metrics:    s.metrics,
		tracer:     s.tracer,
		calculator: calculator,
	}
	d.logger = s.logger.With().
		Str("component", "score-director").
		Str("director_id", d.id).
		Logger()
	d.view = &view[S]{d: d}
	if inc, ok := calculator.(IncrementalScoreCalculator[S]); ok {
		d.incremental = inc
	}

	cacheOpts := []supply.Option{
		supply.WithLogger(s.logger.With().Str("director_id", d.id).Logger()),
		supply.WithMetrics(s.metrics),
		supply.WithCreateHook(d.onSupplyCreated),
		supply.WithDestroyHook(d.onSupplyDestroyed),
	}
	d.supplies = supply.NewCache(append(cacheOpts, s.supply...)...)

	d.lookups = lookup.NewManager(desc.NewLookupResolver())
	if s.metrics != nil {
		d.lookups.SetObserver(s.metrics)
	}

	if err := d.registerShadowListeners(); err != nil {
		return nil, err
	}
	if err := d.registerUserListeners(s.listeners); err != nil {
		return nil, err
	}

	d.metrics.RecordDirectorOpened()
	d.logger.Debug().
		Str("solution", desc.Name()).
		Int("listeners", len(d.shadowRegs)).
		Msg("Score director created")
	return d, nil
}

// ID returns the director instance id.
func (d *ScoreDirector[S]) ID() string { return d.id }

// SolutionDescriptor returns the descriptor table the director works with.
func (d *ScoreDirector[S]) SolutionDescriptor() *descriptor.SolutionDescriptor { return d.desc }

// State returns the current lifecycle state.
func (d *ScoreDirector[S]) State() State {
	switch {
	case !d.attached:
		return StateUnattached
	case d.open != nil:
		return StateMutating
	case len(d.pending) > 0 || d.resetPending:
		return StatePending
	}
	return StateQuiescent
}

// SetWorkingSolution replaces the working solution wholesale. The lookup registry,
// every supply and listener and the incremental calculator are reset from it.
func (d *ScoreDirector[S]) SetWorkingSolution(solution S) (err error) {
	const op = "set_working_solution"
	span := d.startSpan(op)
	defer func() { telemetry.EndSpan(span, err) }()

	if d.closed {
		return d.fail(d.closedError(op))
	}
	if d.open != nil {
		return d.fail(d.nestedError(op))
	}
	if core.IsNil(solution) {
		return d.fail(core.NewUsageError("working solution is nil", nil).
			WithCode(core.ErrCodeNotAttached).
			WithOperation(op))
	}
	objects, err := d.desc.WorkingObjects(solution)
	if err != nil {
		return d.fail(err)
	}

	d.solution = solution
	d.attached = true
	d.pending = nil
	d.hookErr = nil
	d.incrementalReady = false
	if err := d.lookups.Reset(objects); err != nil {
		d.detach()
		return d.fail(err)
	}

	d.resetPending = true
	if err := d.TriggerVariableListeners(); err != nil {
		d.detach()
		return err
	}
	if d.incremental != nil {
		if err := d.incremental.ResetWorkingSolution(solution); err != nil {
			d.detach()
			return d.fail(err)
		}
		d.incrementalReady = true
	}

	d.logger.Debug().
		Int("working_objects", len(objects)).
		Msg("Working solution set")
	return nil
}

func (d *ScoreDirector[S]) detach() {
	var zero S
	d.solution = zero
	d.attached = false
	d.open = nil
	d.pending = nil
	d.resetPending = false
	d.lookups.Clear()
}

// WorkingSolution returns the live working solution. Mutating it outside a
// notification pair is forbidden.
func (d *ScoreDirector[S]) WorkingSolution() S { return d.solution }

// WorkingEntities returns every entity of the working solution.
func (d *ScoreDirector[S]) WorkingEntities() ([]any, error) {
	if err := d.checkAttached("working_entities"); err != nil {
		return nil, d.fail(err)
	}
	return d.desc.Entities(d.solution)
}

// SupplyManager returns the supply cache shared by this director's listeners.
func (d *ScoreDirector[S]) SupplyManager() supply.Manager { return d.supplies }

// IsMovable evaluates the entity type's effective movable filter.
func (d *ScoreDirector[S]) IsMovable(entity any) (bool, error) {
	const op = "is_movable"
	if err := d.checkAttached(op); err != nil {
		return false, d.fail(err)
	}
	ed, err := d.entityDescriptor(entity, op)
	if err != nil {
		return false, d.fail(err)
	}
	return ed.IsMovable(d.solution, entity)
}

// CalculateScore computes the score and writes it to the solution's score property.
// It is a usage error unless the director is quiescent.
func (d *ScoreDirector[S]) CalculateScore() (score core.Score, err error) {
	const op = "calculate_score"
	span := d.startSpan(op)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := d.checkAttached(op); err != nil {
		return nil, d.fail(err)
	}
	switch {
	case d.open != nil:
		return nil, d.fail(core.NewUsageError(fmt.Sprintf("score read while %s is open", d.open), nil).
			WithCode(core.ErrCodeScoreWhileMutating).
			WithOperation(op).
			WithEntity(d.describe(d.open.Entity)).
			WithVariable(d.open.Variable))
	case len(d.pending) > 0 || d.resetPending:
		return nil, d.fail(core.NewUsageError("score read before variable listeners were triggered", nil).
			WithCode(core.ErrCodeScoreWhilePending).
			WithOperation(op).
			WithDetail("pending", len(d.pending)))
	case d.hookErr != nil:
		return nil, d.fail(d.hookErr)
	}

	timer := telemetry.NewTimer()
	score, err = d.calculator.CalculateScore(d.solution)
	if err != nil {
		return nil, err
	}
	d.calculations++
	d.metrics.RecordScoreCalculation(timer.Duration())

	if d.desc.HasScore() {
		if err := d.desc.SetScore(d.solution, score); err != nil {
			return nil, d.fail(err)
		}
	}
	return score, nil
}

// CalculationCount returns the number of score calculations so far.
func (d *ScoreDirector[S]) CalculationCount() int64 { return d.calculations }

// Close releases every listener and supply. The director cannot be used afterwards.
func (d *ScoreDirector[S]) Close() {
	if d.closed {
		return
	}
	d.closed = true
	for _, r := range d.shadowRegs {
		r.listener.Close()
	}
	d.supplies.Close()
	d.detach()
	d.metrics.RecordDirectorClosed()
	d.logger.Debug().
		Int64("score_calculations", d.calculations).
		Msg("Score director closed")
}

func (d *ScoreDirector[S]) startSpan(op string) trace.Span {
	_, span := d.tracer.Start(context.Background(), "score_director."+op,
		attribute.String("director.id", d.id),
		attribute.String("solution", d.desc.Name()))
	return span
}

// fail logs a rejected call and counts usage errors.
func (d *ScoreDirector[S]) fail(err error) error {
	if core.IsUsageError(err) {
		d.metrics.RecordUsageError(core.CodeOf(err))
	}
	d.logger.Debug().
		Err(err).
		Str("code", core.CodeOf(err)).
		Str("state", d.State().String()).
		Msg("Score director call rejected")
	return err
}

func (d *ScoreDirector[S]) checkAttached(op string) error {
	if d.closed {
		return d.closedError(op)
	}
	if !d.attached {
		return core.NewUsageError("no working solution is set", nil).
			WithCode(core.ErrCodeNotAttached).
			WithOperation(op)
	}
	return nil
}

func (d *ScoreDirector[S]) closedError(op string) error {
	return core.NewUsageError("score director is closed", nil).
		WithCode(core.ErrCodeClosed).
		WithOperation(op)
}

func (d *ScoreDirector[S]) nestedError(op string) error {
	return core.NewUsageError(fmt.Sprintf("%s is still open", d.open), nil).
		WithCode(core.ErrCodeNestedNotification).
		WithOperation(op).
		WithEntity(d.describe(d.open.Entity)).
		WithVariable(d.open.Variable)
}

func (d *ScoreDirector[S]) entityDescriptor(entity any, op string) (*descriptor.EntityDescriptor, error) {
	if !core.IsNil(entity) {
		if ed, ok := d.desc.EntityDescriptorFor(entity); ok {
			return ed, nil
		}
	}
	return nil, core.NewUsageError(fmt.Sprintf("%s is not a planning entity of %s", d.describe(entity), d.desc.Name()), nil).
		WithCode(core.ErrCodeUnknownEntityType).
		WithOperation(op).
		WithEntity(d.describe(entity))
}

// describe renders an object for diagnostics, by planning id when it has one.
func (d *ScoreDirector[S]) describe(object any) string {
	if core.IsNil(object) {
		return "<nil>"
	}
	t := reflect.TypeOf(object)
	if id, ok := d.desc.IDAccessor(t); ok {
		if v, err := id.Get(object); err == nil && !core.IsNil(v) {
			if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
				v = rv.Elem().Interface()
			}
			return fmt.Sprintf("%s(%v)", t, v)
		}
	}
	return t.String()
}

// view is what listeners see of the director.
type view[S any] struct {
	d *ScoreDirector[S]
}

var _ listener.ScoreDirector = (*view[any])(nil)

func (v *view[S]) WorkingSolution() any { return v.d.solution }

func (v *view[S]) WorkingEntities() ([]any, error) { return v.d.WorkingEntities() }

func (v *view[S]) SupplyManager() supply.Manager { return v.d.supplies }

func (v *view[S]) BeforeVariableChanged(entity any, variable string) error {
	return v.d.BeforeVariableChanged(entity, variable)
}

func (v *view[S]) AfterVariableChanged(entity any, variable string) error {
	return v.d.AfterVariableChanged(entity, variable)
}
