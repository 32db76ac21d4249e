// Package security holds TLS settings for outbound connections, such as an
// object storage endpoint signed by a private CA.
//
//	cfg := security.TLSConfig{
//	    CAFile:   "/etc/fileupload/minio-ca.pem",
//	    CertFile: "/etc/fileupload/client.pem",
//	    KeyFile:  "/etc/fileupload/client-key.pem",
//	}
//	tlsConfig, err := cfg.Build()
package security
