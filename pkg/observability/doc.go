/*
Package observability turns flow network hooks into Prometheus metrics.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	net := flow.NewNetwork(flow.WithHooks(metrics.Hooks()))

Aggregate fans one network's events out to several observers.
*/
package observability
