package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/framebridge/framebridge/pkg/sink"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "framebridge.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Expected defaults %+v, got %+v", Default(), cfg)
	}
	if cfg.Sink.Symbol != sink.DefaultSymbol {
		t.Errorf("Expected default symbol %q, got %q", sink.DefaultSymbol, cfg.Sink.Symbol)
	}
}

func TestLoadFromTOML(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[pool]
stride_alignment = 32

[handle]
memoize = true

[sink]
library = "/opt/overlay/liboverlay.so"
search_paths = ["/usr/lib/a.so", "/usr/lib/b.so"]

[metrics]
addr = ":9100"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", cfg.LogLevel)
	}
	if cfg.Pool.StrideAlignment != 32 {
		t.Errorf("Expected stride alignment 32, got %d", cfg.Pool.StrideAlignment)
	}
	if !cfg.Handle.Memoize {
		t.Errorf("Expected memoize to be true")
	}
	if cfg.Sink.Symbol != sink.DefaultSymbol {
		t.Errorf("Expected symbol to keep its default, got '%s'", cfg.Sink.Symbol)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Expected metrics addr ':9100', got '%s'", cfg.Metrics.Addr)
	}

	expectedPaths := []string{"/opt/overlay/liboverlay.so", "/usr/lib/a.so", "/usr/lib/b.so"}
	if !reflect.DeepEqual(cfg.SinkPaths(), expectedPaths) {
		t.Errorf("Expected sink paths %v, got %v", expectedPaths, cfg.SinkPaths())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
[pool]
stride_alignment = 32
`)
	t.Setenv("FRAMEBRIDGE_LOG_LEVEL", "warn")
	t.Setenv("FRAMEBRIDGE_STRIDE_ALIGNMENT", "64")
	t.Setenv("FRAMEBRIDGE_MEMOIZE", "true")
	t.Setenv("FRAMEBRIDGE_METRICS_ADDR", "127.0.0.1:9200")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected env log level 'warn', got '%s'", cfg.LogLevel)
	}
	if cfg.Pool.StrideAlignment != 64 {
		t.Errorf("Expected env stride alignment 64, got %d", cfg.Pool.StrideAlignment)
	}
	if !cfg.Handle.Memoize {
		t.Errorf("Expected env memoize to be true")
	}
	if cfg.Metrics.Addr != "127.0.0.1:9200" {
		t.Errorf("Expected env metrics addr, got '%s'", cfg.Metrics.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]struct {
		content string
		env     map[string]string
	}{
		"UnknownField":         {content: "colour = \"red\"\n"},
		"Syntax":               {content: "log_level = \n"},
		"BadLevel":             {content: "log_level = \"loud\"\n"},
		"ZeroAlignment":        {content: "[pool]\nstride_alignment = 0\n"},
		"OddAlignment":         {content: "[pool]\nstride_alignment = 24\n"},
		"EmptySymbol":          {content: "[sink]\nsymbol = \"\"\n"},
		"BadEnvAlignment":      {env: map[string]string{"FRAMEBRIDGE_STRIDE_ALIGNMENT": "wide"}},
		"BadEnvMemoize":        {env: map[string]string{"FRAMEBRIDGE_MEMOIZE": "sometimes"}},
		"NegativeEnvAlignment": {env: map[string]string{"FRAMEBRIDGE_STRIDE_ALIGNMENT": "-8"}},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			for k, v := range c.env {
				t.Setenv(k, v)
			}
			if _, err := Load(writeConfig(t, c.content)); err == nil {
				t.Errorf("Expected an error")
			}
		})
	}
}

func TestReadDefersValidation(t *testing.T) {
	path := writeConfig(t, "log_level = \"loud\"\n")

	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cfg.LogLevel != "loud" {
		t.Errorf("Expected level 'loud', got '%s'", cfg.LogLevel)
	}
	if err := cfg.Validate(); err == nil {
		t.Errorf("Expected Validate to reject level 'loud'")
	}

	cfg.LogLevel = "debug"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected overridden level to validate, got %v", err)
	}

	if _, err := Read(writeConfig(t, "colour = \"red\"\n")); err == nil {
		t.Errorf("Expected Read to reject unknown fields")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("Expected an error for a missing file")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Sink.SearchPaths = []string{"/usr/lib/liboverlay.so"}
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	loaded, err := Load(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Errorf("Expected %+v, got %+v", cfg, loaded)
	}
}
