package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

type testSection struct {
	Bucket  string        `mapstructure:"bucket"`
	TTL     time.Duration `mapstructure:"ttl"`
	Allowed []string      `mapstructure:"allowed"`
}

type testConfig struct {
	ServiceConfig `mapstructure:",squash"`
	Storage       testSection `mapstructure:"storage"`
	MaxSize       int64       `mapstructure:"max_size"`
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	cfg := ServiceConfig{Name: "svc"}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" {
		t.Errorf("expected development, got %q", cfg.Environment)
	}
	if !cfg.Debug {
		t.Error("expected debug=true for development")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging defaults, got %+v", cfg.Logging)
	}

	prod := ServiceConfig{Name: "svc", Environment: "production"}
	prod.ApplyDefaults()
	if prod.Debug || !prod.IsProduction() {
		t.Errorf("unexpected production config: %+v", prod)
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		errMsg string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "name is required"},
		{"bad environment", ServiceConfig{Name: "svc", Environment: "qa"}, "environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Fatalf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := `
name: fileupload
environment: staging
max_size: 1024
storage:
  bucket: from-file
  ttl: 10m
  allowed: [image/*, text/plain]
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STORAGE_BUCKET", "from-env")

	var cfg testConfig
	if err := LoadConfig("fileupload", &cfg, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "missing.env"))); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Name != "fileupload" || cfg.Environment != "staging" {
		t.Errorf("base fields not loaded: %+v", cfg.ServiceConfig)
	}
	if cfg.Storage.Bucket != "from-env" {
		t.Errorf("env should override file, got %q", cfg.Storage.Bucket)
	}
	if cfg.Storage.TTL != 10*time.Minute {
		t.Errorf("ttl = %v", cfg.Storage.TTL)
	}
	if !reflect.DeepEqual(cfg.Storage.Allowed, []string{"image/*", "text/plain"}) {
		t.Errorf("allowed = %v", cfg.Storage.Allowed)
	}
	if cfg.MaxSize != 1024 {
		t.Errorf("max_size = %d", cfg.MaxSize)
	}
}

func TestLoadConfig_EnvFileAndPrefix(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("APP_STORAGE_TTL=45s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("APP_STORAGE_TTL") })

	var cfg testConfig
	err := LoadConfig("fileupload", &cfg,
		WithConfigFile(filepath.Join(dir, "none.yml")),
		WithEnvFile(envPath),
		WithEnvPrefix("APP"),
	)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Storage.TTL != 45*time.Second {
		t.Errorf("ttl = %v", cfg.Storage.TTL)
	}
}

func TestResolverSearchOrder(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/fileupload/config.yml": true,
		"./config.yml":                true,
		".env":                        true,
	}}
	files := (&Resolver{FileSystem: fs}).ResolveFiles("fileupload", LoaderConfig{})
	if files.ConfigFile != "./cmd/fileupload/config.yml" {
		t.Errorf("config file = %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("env file = %q", files.EnvFile)
	}

	explicit := (&Resolver{FileSystem: fs}).ResolveFiles("fileupload", LoaderConfig{ConfigFile: "/etc/x.yml"})
	if explicit.ConfigFile != "/etc/x.yml" {
		t.Errorf("explicit path should win, got %q", explicit.ConfigFile)
	}
}

func TestStructKeys(t *testing.T) {
	keys := structKeys(reflect.TypeOf(&testConfig{}), "")
	want := []string{"name", "environment", "version", "debug", "logging.level", "storage.bucket", "storage.ttl", "max_size"}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	for _, w := range want {
		if !set[w] {
			t.Errorf("missing key %q in %v", w, keys)
		}
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }
