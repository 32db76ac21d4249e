// Package testutil provides an in-memory storage.Backend that records every
// call, for tests that assert which storage operations ran.
package testutil
