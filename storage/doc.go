// Package storage defines the blob backend abstraction used for article files.
//
// A Backend stores opaque streams under string keys. Backends that can mint
// direct download URLs also implement Presigner. Providers register a Factory
// and are selected once at start-up from Config.Provider:
//
//	storage:
//	  provider: s3
//	  bucket: article-files
//	  region: eu-west-1
package storage
