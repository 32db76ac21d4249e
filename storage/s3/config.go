package s3

import (
	"github.com/william251082/fileupload/security"
	"github.com/william251082/fileupload/storage"
)

// Options are the S3 settings taken from storage.Config.
type Options struct {
	Bucket         string
	Region         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
	PartSize       int64
	TLS            security.TLSConfig
}

// OptionsFrom extracts the S3 settings from the shared storage config.
func OptionsFrom(cfg storage.Config) Options {
	cfg.ApplyDefaults()
	return Options{
		Bucket:         cfg.Bucket,
		Region:         cfg.Region,
		Endpoint:       cfg.Endpoint,
		AccessKey:      cfg.AccessKey,
		SecretKey:      cfg.SecretKey,
		ForcePathStyle: cfg.ForcePathStyle || cfg.Endpoint != "",
		PartSize:       cfg.PartSize,
		TLS:            cfg.TLS,
	}
}
