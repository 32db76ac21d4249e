// Package app assembles the fileupload service: configuration, infrastructure
// components, the article and reference domain, and the HTTP surface.
package app
