package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/william251082/fileupload/security/tlstest"
)

func TestTLSConfig_DisabledByDefault(t *testing.T) {
	for name, cfg := range map[string]*TLSConfig{"nil": nil, "zero": {}} {
		t.Run(name, func(t *testing.T) {
			if cfg.IsEnabled() {
				t.Fatal("expected disabled")
			}
			built, err := cfg.Build()
			if err != nil || built != nil {
				t.Fatalf("Build = %v, %v; want nil, nil", built, err)
			}
			bundle, err := cfg.CABundle()
			if err != nil || bundle != nil {
				t.Fatalf("CABundle = %v, %v; want nil, nil", bundle, err)
			}
		})
	}
}

func TestTLSConfig_Build_Settings(t *testing.T) {
	cfg := &TLSConfig{SkipVerify: true, ServerName: "minio.internal"}
	built, err := cfg.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !built.InsecureSkipVerify {
		t.Error("expected InsecureSkipVerify")
	}
	if built.ServerName != "minio.internal" {
		t.Errorf("ServerName = %q", built.ServerName)
	}
	if built.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %#x, want TLS 1.2", built.MinVersion)
	}

	built, err = (&TLSConfig{MinVersion: tls.VersionTLS13}).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if built.MinVersion != tls.VersionTLS13 {
		t.Errorf("MinVersion = %#x, want TLS 1.3", built.MinVersion)
	}
}

func TestTLSConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TLSConfig
		wantErr bool
	}{
		{"empty", TLSConfig{}, false},
		{"cert and key", TLSConfig{CertFile: "c.pem", KeyFile: "k.pem"}, false},
		{"cert only", TLSConfig{CertFile: "c.pem"}, true},
		{"key only", TLSConfig{KeyFile: "k.pem"}, true},
		{"tls 1.0", TLSConfig{MinVersion: tls.VersionTLS10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTLSConfig_Build_FileErrors(t *testing.T) {
	tests := map[string]TLSConfig{
		"missing ca":  {CAFile: "/nonexistent/ca.pem"},
		"invalid ca":  {CAFile: tlstest.WriteInvalidPEM(t, "ca.pem")},
		"missing key": {CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"},
		"half pair":   {CertFile: "/nonexistent/cert.pem"},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := cfg.Build(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTLSConfig_Build_CertificatesLoaded(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	cfg := &TLSConfig{CAFile: certs.CAFile, CertFile: certs.CertFile, KeyFile: certs.KeyFile}
	built, err := cfg.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if built.RootCAs == nil {
		t.Error("expected RootCAs")
	}
	if len(built.Certificates) != 1 {
		t.Errorf("Certificates = %d, want 1", len(built.Certificates))
	}
}

func TestTLSConfig_TrustsPrivateCA(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	srv.TLS = certs.ServerConfig()
	srv.StartTLS()
	defer srv.Close()

	if _, err := http.Get(srv.URL); err == nil {
		t.Fatal("default client should reject the private CA")
	}

	built, err := (&TLSConfig{CAFile: certs.CAFile}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	client := &http.Client{Transport: &http.Transport{TLSClientConfig: built}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
