/*
Package observability turns engine lifecycle hooks into Prometheus metrics and
audit logs.

Hook sets compose with Combine, so metrics and logging can observe the same
engine:

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	hooks := observability.Combine(metrics.Hooks(), observability.LogHooks(logger))
*/
package observability
