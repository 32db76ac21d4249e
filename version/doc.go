// Package version reports build metadata for the fileupload binary.
//
// Values are injected at link time and fall back to the VCS stamp Go embeds:
//
//	go build -ldflags "-X github.com/william251082/fileupload/version.Version=1.2.0" ./cmd/fileupload
package version
