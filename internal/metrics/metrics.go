// Package metrics holds Prometheus instruments that are used across the
// application.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SchemaValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schema_validations_total",
			Help: "Schema validation passes, by result (valid or invalid).",
		}, []string{"result"})

	SchemaRepairs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schema_repairs_total",
			Help: "Schema repair attempts, by result (success or failure).",
		}, []string{"result"})

	SchemaColumnsAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schema_columns_added_total",
			Help: "Columns added by targeted repair.",
		})

	SchemaDDLIgnored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schema_ddl_ignored_total",
			Help: "DDL statements that failed with an already-exists class error.",
		})

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by method and status code.",
		}, []string{"method", "status"})
)

func init() {
	prometheus.MustRegister(
		SchemaValidations,
		SchemaRepairs,
		SchemaColumnsAdded,
		SchemaDDLIgnored,
		HTTPRequests,
	)
}

// ValidationResult is the label value for a validation pass.
func ValidationResult(valid bool) string {
	if valid {
		return "valid"
	}
	return "invalid"
}

// RepairResult is the label value for a repair attempt.
func RepairResult(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
