package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func strptr(s string) *string { return &s }

func TestLoadFile_Basic(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "textgate.yaml", "rules: gate.yaml\nthreads: 4\nmax_bytes: 2MB\ntimeout: 30s\ndefault_excludes: false\nexclude:\n  - vendor/**\n  - '*.lock'\n")
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Rules == nil || *cfg.Rules != "gate.yaml" {
		t.Fatalf("expected rules=gate.yaml, got %#v", cfg.Rules)
	}
	if cfg.Threads == nil || *cfg.Threads != 4 {
		t.Fatalf("expected threads=4, got %#v", cfg.Threads)
	}
	if cfg.MaxBytes == nil || *cfg.MaxBytes != "2MB" {
		t.Fatalf("expected max_bytes=2MB, got %#v", cfg.MaxBytes)
	}
	if cfg.DefaultExcludes == nil || *cfg.DefaultExcludes {
		t.Fatalf("expected default_excludes=false")
	}
	if len(cfg.Exclude) != 2 || cfg.Exclude[1] != "*.lock" {
		t.Fatalf("unexpected exclude list %#v", cfg.Exclude)
	}
	if cfg.Path() != p {
		t.Fatalf("expected path %s, got %s", p, cfg.Path())
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "textgate.yaml", "threads: [not, an, int]\n")
	if _, err := LoadFile(p); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadFile_UnknownKey(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "textgate.yaml", "exclude_globs:\n  - vendor/**\n")
	if _, err := LoadFile(p); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown key, got %v", err)
	}
}

func TestLoadFile_Empty(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "textgate.yaml", "")
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile(empty): %v", err)
	}
	if cfg.Rules != nil || cfg.Path() != p {
		t.Fatalf("expected empty config from %s, got %#v", p, cfg)
	}
}

func TestLoadLocal_PrefersDotfile(t *testing.T) {
	dir := t.TempDir()
	// place both, expect the dotfile to be picked first by search order
	writeTemp(t, dir, "textgate.yaml", "threads: 1\n")
	writeTemp(t, dir, ".textgate.yaml", "threads: 7\n")
	cfg, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 7 {
		t.Fatalf("expected threads=7 from .textgate.yaml, got %#v", cfg.Threads)
	}
}

func TestLoadLocal_NoConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadLocal(dir)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist when no local config exists, got %v", err)
	}
}

func TestLoadGlobal_XDG_Config(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "textgate")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeTemp(t, cfgDir, "config.yml", "threads: 9\n")
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 9 {
		t.Fatalf("expected threads=9 from global config, got %#v", cfg.Threads)
	}
}

func TestLoadGlobal_NoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "")
	if _, err := LoadGlobal(); err == nil {
		t.Fatal("expected error when no global config dir exists")
	}
}

func TestLoad_MissingIsFine(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	local, global, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if local.Path() != "" || global.Path() != "" {
		t.Fatalf("expected empty layers, got %q %q", local.Path(), global.Path())
	}
}

func TestLoad_MalformedLocalFails(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	writeTemp(t, dir, ".textgate.yaml", ":\n  - [\n")
	if _, _, err := Load(dir); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestPick_Precedence(t *testing.T) {
	// Case 1: changed flag wins
	if got := PickString(true, "cli", strptr("local"), strptr("global")); got != "cli" {
		t.Fatalf("flag precedence failed: %q", got)
	}
	// Case 2: local overrides global and the flag default
	if got := PickString(false, "def", strptr("local"), strptr("global")); got != "local" {
		t.Fatalf("local override failed: %q", got)
	}
	// Case 3: global applies when local absent
	if got := PickString(false, "def", nil, strptr("global")); got != "global" {
		t.Fatalf("global fallback failed: %q", got)
	}
	if got := PickString(false, "def", nil, nil); got != "def" {
		t.Fatalf("default failed: %q", got)
	}
	n := 3
	if got := PickInt(false, 0, nil, &n); got != 3 {
		t.Fatalf("PickInt global fallback failed: %d", got)
	}
	f := false
	if got := PickBool(false, true, &f, nil); got {
		t.Fatal("PickBool local override failed")
	}
	if got := PickList(false, nil, nil, []string{"g"}); len(got) != 1 || got[0] != "g" {
		t.Fatalf("PickList global fallback failed: %v", got)
	}
}

func TestParseSize(t *testing.T) {
	n, err := ParseSize("1MB")
	if err != nil || n != 1000*1000 {
		t.Fatalf("ParseSize(1MB) = %d, %v", n, err)
	}
	n, err = ParseSize("4096")
	if err != nil || n != 4096 {
		t.Fatalf("ParseSize(4096) = %d, %v", n, err)
	}
	n, err = ParseSize("1MiB")
	if err != nil || n != 1<<20 {
		t.Fatalf("ParseSize(1MiB) = %d, %v", n, err)
	}
	n, err = ParseSize("512KiB")
	if err != nil || n != 512*1024 {
		t.Fatalf("ParseSize(512KiB) = %d, %v", n, err)
	}
	if _, err := ParseSize("lots"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParseTimeout(t *testing.T) {
	d, err := ParseTimeout("90s")
	if err != nil || d != 90*time.Second {
		t.Fatalf("ParseTimeout(90s) = %v, %v", d, err)
	}
	if _, err := ParseTimeout("-1s"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for negative timeout, got %v", err)
	}
}
