// Package reference manages the files attached to an article.
//
// A reference is a metadata row in article_references plus one blob in a
// storage.Backend. The package streams uploads through a chain of gates
// (Pipeline), keeps the ordered metadata (Registry), serves downloads by
// proxying or presigned redirect (Gateway), reorders siblings atomically
// (Reorderer) and reconciles metadata with storage on delete (Service).
//
// Metadata is authoritative. Deleting a reference removes the row first and
// cleans the blob up afterwards; a failed cleanup is logged and counted but
// never undoes the deletion.
package reference
