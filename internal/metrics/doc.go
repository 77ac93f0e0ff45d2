// Package metrics holds the Prometheus collectors for authentication outcomes.
//
// Collectors are registered on a caller-provided [prometheus.Registerer]; the
// package never touches the global default registry. A nil *Metrics is valid
// and records nothing, so the engine can run with metrics disabled.
package metrics
