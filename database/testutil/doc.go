// Package testutil opens throwaway SQLite databases with the production schema
// applied, for repository and handler tests.
package testutil
