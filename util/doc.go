// Package util holds small helpers shared by configuration and handlers:
// human-readable size parsing, secret masking and pointer helpers.
package util
