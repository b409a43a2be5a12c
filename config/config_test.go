package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleINI = `
[defaults]
hostname = broker.local
port = 1884
skipretained = true
launch = log, file

[config:log]
targets = {info: [log, info], warn: [log, warn]}

[config:file]
targets = {outbox: [/tmp/out.log]}

[sensors/+/temp]
targets = log:info
format  = {topic}={payload}

[nohandler]

[cron:heartbeat]
target = mymod.sample:heartbeat()
interval = 30
now = true

[failover]
targets = {alert: [log, warn]}
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mqttwarn.ini")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeTemp(t, sampleINI)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Defaults.Hostname != "broker.local" {
		t.Errorf("hostname = %q", cfg.Defaults.Hostname)
	}
	if cfg.Defaults.Port != 1884 {
		t.Errorf("port = %d", cfg.Defaults.Port)
	}
	if !cfg.Defaults.SkipRetained {
		t.Errorf("skipretained should be true")
	}
	if len(cfg.Defaults.Launch) != 2 {
		t.Errorf("launch = %v", cfg.Defaults.Launch)
	}

	if _, ok := cfg.Services["log"]; !ok {
		t.Fatalf("expected config:log service")
	}
	if _, ok := cfg.Services["file"]; !ok {
		t.Fatalf("expected config:file service")
	}

	if len(cfg.Handlers) != 1 {
		t.Fatalf("expected exactly 1 handler (nohandler lacks targets), got %d", len(cfg.Handlers))
	}
	h := cfg.Handlers[0]
	if h.Section != "sensors/+/temp" {
		t.Errorf("handler section = %q", h.Section)
	}
	if h.Topic != "sensors/+/temp" {
		t.Errorf("handler topic default = %q", h.Topic)
	}

	if len(cfg.Cron) != 1 || cfg.Cron[0].Name != "heartbeat" {
		t.Fatalf("cron = %#v", cfg.Cron)
	}
	if cfg.Cron[0].Interval != 30 {
		t.Errorf("interval = %v", cfg.Cron[0].Interval)
	}
	if !cfg.Cron[0].Now {
		t.Errorf("now should be true")
	}

	if cfg.Failover == nil {
		t.Fatalf("expected failover handler")
	}
}

func TestResolvePath(t *testing.T) {
	os.Unsetenv(EnvConfigPath)
	if got := ResolvePath(""); got != DefaultConfigPath {
		t.Errorf("ResolvePath() = %q, want default", got)
	}
	if got := ResolvePath("/tmp/x.ini"); got != "/tmp/x.ini" {
		t.Errorf("ResolvePath(flag) = %q", got)
	}
	os.Setenv(EnvConfigPath, "/env/path.ini")
	defer os.Unsetenv(EnvConfigPath)
	if got := ResolvePath("/tmp/x.ini"); got != "/env/path.ini" {
		t.Errorf("env override not applied: %q", got)
	}
}
