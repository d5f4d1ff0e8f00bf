// Package observability exports scene graph metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc, err := observability.NewPrometheusCollector(reg)
//	g := scenegraph.New(scenegraph.WithMetricsCollector(mc))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package observability
