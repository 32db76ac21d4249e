// Package api exposes references and their parent articles over HTTP.
//
// Every route expects authenticated claims in the request context (see
// server/middleware.Auth). Article level permissions come from
// article.Policy.
package api
