package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/justapithecus/monochrome/launcher"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monochrome.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %q, want %q", field, got, want)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	yaml := `viewer:
  binary: /opt/monochrome/bin/Monochrome
  speed: 2
  display_fps: 60
  scale: 1.5
  fliph: true
  args:
    theme: dark
    channels: "3"

transport:
  address: tcp:127.0.0.1:4900
  autostart: false
  connect_timeout: 10s
  write_timeout: 2s

capture:
  enabled: true
  dataset: captures
  backend: s3
  path: my-bucket/prefix
  region: us-east-1
  endpoint: https://minio.local
  s3_path_style: true

adapter:
  type: redis
  url: redis://localhost:6379/0
  channel: viewer:events
  mode: stream
  timeout: 3s
  retries: 1
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqual(t, "viewer.binary", cfg.Viewer.Binary, "/opt/monochrome/bin/Monochrome")
	if cfg.Viewer.Speed != 2 || cfg.Viewer.DisplayFPS != 60 || cfg.Viewer.Scale != 1.5 {
		t.Errorf("viewer options = %+v", cfg.Viewer)
	}
	if !cfg.Viewer.FlipH || cfg.Viewer.FlipV {
		t.Errorf("fliph/flipv = %v/%v, want true/false", cfg.Viewer.FlipH, cfg.Viewer.FlipV)
	}

	assertEqual(t, "transport.address", cfg.Transport.Address, "tcp:127.0.0.1:4900")
	if cfg.Transport.Autostart == nil || *cfg.Transport.Autostart {
		t.Error("expected transport.autostart=false")
	}
	if cfg.Transport.ConnectTimeout.Duration != 10*time.Second {
		t.Errorf("connect_timeout = %v, want 10s", cfg.Transport.ConnectTimeout.Duration)
	}
	if cfg.Transport.WriteTimeout.Duration != 2*time.Second {
		t.Errorf("write_timeout = %v, want 2s", cfg.Transport.WriteTimeout.Duration)
	}

	if !cfg.Capture.Enabled {
		t.Error("expected capture.enabled=true")
	}
	assertEqual(t, "capture.backend", cfg.Capture.Backend, "s3")
	bc := cfg.Capture.BackendConfig()
	assertEqual(t, "backend.path", bc.Path, "my-bucket/prefix")
	assertEqual(t, "backend.s3.region", bc.S3.Region, "us-east-1")
	if !bc.S3.UsePathStyle {
		t.Error("expected s3 path style")
	}

	assertEqual(t, "adapter.type", cfg.Adapter.Type, "redis")
	assertEqual(t, "adapter.mode", cfg.Adapter.Mode, "stream")
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 1 {
		t.Errorf("adapter.retries = %v, want 1", cfg.Adapter.Retries)
	}
}

func TestViewerConfig_Options(t *testing.T) {
	v := ViewerConfig{
		DisplayFPS: 30,
		FlipV:      true,
		Args:       map[string]string{"zoom": "2", "channels": "3", "quiet": "true", "loop": "false"},
	}
	got := v.Options().Args()
	want := []string{"--display_fps", "30", "--flipv", "--channels", "3", "--quiet", "--zoom", "2"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("Args() = %v, want %v", got, want)
	}

	lc := ViewerConfig{Binary: "/bin/viewer", DataDir: "/opt/mc"}.LauncherConfig()
	if want := (launcher.Config{BinaryPath: "/bin/viewer", DataDir: "/opt/mc"}); !reflect.DeepEqual(lc, want) {
		t.Errorf("LauncherConfig() = %+v, want %+v", lc, want)
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	for _, content := range []string{"", "   \n  \n", "# only a comment\n"} {
		cfg, err := Load(writeTemp(t, content))
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", content, err)
		}
		if cfg.Capture.Enabled || cfg.Transport.Autostart != nil {
			t.Errorf("Load(%q) = %+v, want zero config", content, cfg)
		}
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeTemp(t, "{{invalid yaml")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	if _, err := Load(writeTemp(t, "viewer:\n  colour: red\n")); err == nil {
		t.Error("expected error for unknown nested key")
	}
	if _, err := Load(writeTemp(t, "storage:\n  path: /tmp\n")); err == nil {
		t.Error("expected error for unknown top-level key")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("MONOCHROME_TEST_CAPTURE", "/var/captures")
	yaml := "capture:\n  path: ${MONOCHROME_TEST_CAPTURE}\n  backend: ${MONOCHROME_TEST_UNSET_BACKEND:-fs}\n"
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "capture.path", cfg.Capture.Path, "/var/captures")
	assertEqual(t, "capture.backend", cfg.Capture.Backend, "fs")
}

func TestLoad_RetriesZeroDistinctFromNil(t *testing.T) {
	cfg, err := Load(writeTemp(t, "adapter:\n  type: webhook\n  retries: 0\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 0 {
		t.Errorf("retries = %v, want explicit 0", cfg.Adapter.Retries)
	}

	cfg, err = Load(writeTemp(t, "adapter:\n  type: webhook\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Adapter.Retries != nil {
		t.Errorf("retries = %v, want nil", *cfg.Adapter.Retries)
	}
}

func TestDuration_InvalidFormat(t *testing.T) {
	if _, err := Load(writeTemp(t, "transport:\n  connect_timeout: soon\n")); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestResolve(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv(PathEnv, "")

	cfg, path, err := Resolve("")
	if err != nil || path != "" || cfg == nil {
		t.Errorf("Resolve(\"\") = %v, %q, %v; want empty config", cfg, path, err)
	}

	explicit := writeTemp(t, "capture:\n  enabled: true\n")
	t.Setenv(PathEnv, explicit)
	cfg, path, err = Resolve("")
	if err != nil || path != explicit || !cfg.Capture.Enabled {
		t.Errorf("Resolve via env = %v, %q, %v", cfg, path, err)
	}

	if _, _, err := Resolve(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Resolve with missing explicit path succeeded, want error")
	}
}
