package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != defaultBaseURL || cfg.APIPrefix != defaultAPIPrefix {
		t.Fatalf("BaseURL/APIPrefix = %q/%q, want defaults", cfg.BaseURL, cfg.APIPrefix)
	}
	if cfg.EnqueueMethod != "GET" || cfg.LogLevel != "info" {
		t.Fatalf("EnqueueMethod/LogLevel = %q/%q, want GET/info", cfg.EnqueueMethod, cfg.LogLevel)
	}

	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
	if !strings.HasPrefix(cfg.PrefsPath, home) {
		t.Fatalf("PrefsPath = %q, want it under HOME %q", cfg.PrefsPath, home)
	}
}

func TestLoad_DefaultPathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if want := filepath.Join(home, ".config", "bindery", "config.toml"); cfg.Path != want {
		t.Fatalf("Path = %q, want %q", cfg.Path, want)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
base_url = "  http://books.lan:9000  "
api_prefix = "/api"
enqueue_method = "post"
log_file = "  ~/logs/bindery.log  "
log_level = "DEBUG"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != "http://books.lan:9000" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.APIPrefix != "/api" || cfg.EnqueueMethod != "POST" || cfg.LogLevel != "debug" {
		t.Fatalf("cfg = %#v", cfg)
	}
	if cfg.LogFile != filepath.Join(home, "logs", "bindery.log") {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, `
base_url = "   "
enqueue_method = ""
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != defaultBaseURL || cfg.EnqueueMethod != defaultEnqueueMethod {
		t.Fatalf("cfg = %#v, want defaults", cfg)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := writeConfig(t, `base_url = [`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidEnqueueMethodFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `enqueue_method = "PUT"`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "enqueue_method") {
		t.Fatalf("Load error = %v, want enqueue_method validation error", err)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BINDERY_BASE_URL", "http://env.example:1")

	path := writeConfig(t, `base_url = "http://file.example:2"`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != "http://env.example:1" {
		t.Fatalf("BaseURL = %q, want env value", cfg.BaseURL)
	}
}

func TestLoadWithFlags_ChangedFlagWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BINDERY_BASE_URL", "http://env.example:1")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("base-url", "", "")
	flags.String("enqueue-method", "", "")
	if err := flags.Parse([]string{"--base-url", "http://flag.example:3"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	path := writeConfig(t, `enqueue_method = "POST"`)
	cfg, err := LoadWithFlags(path, flags)
	if err != nil {
		t.Fatalf("LoadWithFlags returned error: %v", err)
	}
	if cfg.BaseURL != "http://flag.example:3" {
		t.Fatalf("BaseURL = %q, want flag value", cfg.BaseURL)
	}
	if cfg.EnqueueMethod != "POST" {
		t.Fatalf("EnqueueMethod = %q, unset flag should not override file", cfg.EnqueueMethod)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
