// Package observability wires OpenTelemetry tracing and metrics.
//
// Traces are pushed over OTLP/HTTP. Metrics are pulled: the meter provider
// feeds a Prometheus registry that /metrics serves through promhttp.
//
//	tel := observability.NewComponent(cfg, serviceName, version, log)
//	registry.Register(tel)
//	engine.GET("/metrics", gin.WrapH(tel.MetricsHandler()))
//
//	ctx, span := observability.StartSpan(ctx, "reference.upload")
//	defer span.End()
package observability
