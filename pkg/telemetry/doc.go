// Package telemetry provides logging, metrics and tracing instrumentation for plancore.
//
// The telemetry package integrates structured logging (zerolog), metrics
// (Prometheus) and tracing (OpenTelemetry) for binaries that host score directors.
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.Metrics.Enabled = true
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	if err := tel.StartMetricsServer(); err != nil {
//	    log.Fatal(err)
//	}
//
// Library components take a plain zerolog.Logger, a *Metrics and a *Tracer:
//
//	d, err := director.New(desc, calc,
//	    director.WithLogger(tel.Logger.Zerolog()),
//	    director.WithMetrics(tel.Metrics),
//	    director.WithTracer(tel.Tracer))
//
// # Structured Logging
//
//	logger := tel.Logger.NewComponentLogger("loader")
//	logger.WithField("entity_type", "Lecture").Debug("Descriptor built")
//	logger.WithError(err).Error("Descriptor build failed")
//
// Log levels: trace, debug, info, warn, error, fatal, disabled
//
// # Metrics
//
// Available metrics:
//   - score_calculations_total: Score calculations
//   - score_calculation_duration_seconds: Score calculation duration histogram
//   - notifications_total: Before/after notifications by kind
//   - usage_errors_total: Usage errors by code
//   - lookups_total: Working object lookups by strategy and outcome
//   - supply_demands_total: Supply demands by outcome (created, shared)
//   - supply_cancels_total: Successful supply cancels
//   - active_supplies: Cached supplies
//   - active_score_directors: Open score directors
//
// Every recording method is a no-op on a nil or disabled *Metrics.
//
// # Tracing
//
// A disabled TracingConfig yields a Tracer over the no-op provider. When enabled,
// spans are sampled by SamplingRate and, with exporter "stdout", printed on Shutdown
// or when the batcher flushes.
package telemetry
