// Package server runs the HTTP surface: a Gin engine mounted on a ServeMux,
// served over HTTP/1.1 and h2c.
//
// Server-level middleware (server/middleware) wraps every request: panic
// recovery, request ids propagated into the logger context, request logging,
// CORS and a body size cap. Bearer authentication and rate limiting are Gin
// middleware applied per route group.
//
// Built-in endpoints (server/endpoint): /health aggregates component health,
// /info reports build metadata and /metrics serves Prometheus.
package server
