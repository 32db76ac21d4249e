// Package component manages the lifecycle of infrastructure pieces such as
// the database, blob storage and the HTTP server. A Registry starts them in
// registration order, stops them in reverse and aggregates their health.
package component
