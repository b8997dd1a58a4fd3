package director

import (
	"github.com/rs/zerolog"

	"github.com/openfroyo/plancore/pkg/listener"
	"github.com/openfroyo/plancore/pkg/supply"
	"github.com/openfroyo/plancore/pkg/telemetry"
)

type settings struct {
	logger    zerolog.Logger
	metrics   *telemetry.Metrics
	tracer    *telemetry.Tracer
	supply    []supply.Option
	listeners []userListener
}

type userListener struct {
	entity   string
	variable string
	listener listener.Listener
}

// Option configures a ScoreDirector.
type Option func(*settings)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithMetrics records notifications, usage errors, score calculations, lookups and
// supply activity on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithTracer opens a span around every SetWorkingSolution and CalculateScore call.
func WithTracer(t *telemetry.Tracer) Option {
	return func(s *settings) {
		s.tracer = t
	}
}

// WithSupplyOptions configures the director's supply cache.
func WithSupplyOptions(opts ...supply.Option) Option {
	return func(s *settings) {
		s.supply = append(s.supply, opts...)
	}
}

// WithReclamation sets the supply cache reclamation policy.
func WithReclamation(p supply.ReclamationPolicy) Option {
	return WithSupplyOptions(supply.WithReclamation(p))
}

// WithVariableListener registers l on the variable of the named entity type.
// l must be a listener.ListVariableListener for list variables and a
// listener.VariableListener otherwise.
func WithVariableListener(entity, variable string, l listener.Listener) Option {
	return func(s *settings) {
		s.listeners = append(s.listeners, userListener{entity: entity, variable: variable, listener: l})
	}
}
