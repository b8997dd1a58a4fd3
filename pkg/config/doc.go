// Package config loads the core configuration of a plancore process from YAML.
//
// A configuration file has five sections, each optional:
//
//	logging:
//	  level: debug
//	  format: json
//	metrics:
//	  enabled: true
//	  listen_address: ":9090"
//	tracing:
//	  enabled: true
//	  exporter: stdout
//	supply:
//	  reclamation: deferred
//	domain:
//	  name: CloudBalance
//	  entity_collections:
//	    - {property: processes, type: Process}
//	  ...
//
// Load starts from Default, so omitted fields keep their defaults. Unknown
// fields are rejected. The domain section is a descriptor.SolutionConfig and is
// checked with descriptor.ValidateConfig; code-side bindings are resolved later
// by descriptor.Build.
//
//	cfg, err := config.Load("plancore.yaml")
//	if err != nil {
//	    return err
//	}
//	tel, err := telemetry.NewTelemetry(cfg.Telemetry())
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//	d, err := director.New[*Cloud](desc, calc, cfg.DirectorOptions(tel)...)
package config
