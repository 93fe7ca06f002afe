/*
Package observability turns manager and layout activity into logs and
Prometheus metrics.

Both come as domain.Hooks, so they plug into variables.WithHooks:

	metrics, _ := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(metrics.Hooks(), observability.LoggingHooks(logger))
	m := variables.New(engine, variables.WithHooks(hooks))
*/
package observability
