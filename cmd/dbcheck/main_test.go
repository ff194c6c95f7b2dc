package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFlagDefaults(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{})
	for name, want := range map[string]string{"repair": "true", "config": "", "script": ""} {
		fl := cmd.Flags().Lookup(name)
		if fl == nil {
			t.Fatalf("flag --%s missing", name)
		}
		if fl.DefValue != want {
			t.Errorf("--%s default = %q, want %q", name, fl.DefValue, want)
		}
	}
}

func TestRejectsPositionalArgs(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})
	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected error for positional argument")
	}
}

func TestBadConfigFails(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte("http: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--config", root, "--repair=false"})
	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected config error, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("no report expected, got %q", out.String())
	}
}
