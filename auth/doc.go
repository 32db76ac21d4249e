// Package auth defines the bearer-token contract shared by the HTTP
// middleware and the token service.
//
// Tokens are HMAC-signed JWTs (see auth/jwt) carrying Claims: the subject is
// the caller's user id and Roles are resolved to permissions through
// authz.MapChecker. Validated claims travel in the request context via
// auth/authctx.
package auth
