/*
Package monitoring provides Prometheus-based metrics collection.

Tracks HTTP requests, tool executions, sandbox authorization decisions,
and WebSocket connections.

Usage:

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "fs", "fs.read")
	// ... perform operation ...
	timer.Stop("success")

Each Metrics instance owns its registry; expose it with a scrape handler:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
*/
package monitoring
