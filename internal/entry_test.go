package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = filepath.Join(dir, "notekeeper.db")
	cfg.Vault.Path = filepath.Join(dir, "vault")
	cfg.Security.BcryptCost = bcrypt.MinCost
	cfg.App.Timezone = "UTC"
	return cfg
}

func TestRunRequiresConfig(t *testing.T) {
	if err := RunExport(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestShellThenExport(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	in := strings.NewReader("create\nGroceries\nmilk\n\nexit\n")
	var out, logs bytes.Buffer
	if err := RunShell(ctx, WithConfig(cfg), WithIO(in, &out, &logs)); err != nil {
		t.Fatalf("RunShell: %v", err)
	}
	if !strings.Contains(out.String(), "note created successfully") {
		t.Fatalf("shell output = %q", out.String())
	}

	out.Reset()
	if err := RunExport(ctx, WithConfig(cfg), WithIO(strings.NewReader(""), &out, &logs)); err != nil {
		t.Fatalf("RunExport: %v", err)
	}
	if !strings.Contains(out.String(), "1 written") {
		t.Errorf("export output = %q", out.String())
	}

	entries, err := os.ReadDir(cfg.Vault.Path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".md") {
		t.Fatalf("vault entries = %v", entries)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Vault.Path, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "title: Groceries") || !strings.Contains(string(data), "milk") {
		t.Errorf("exported file = %s", data)
	}

	// A second export finds nothing to rewrite.
	out.Reset()
	if err := RunExport(ctx, WithConfig(cfg), WithIO(strings.NewReader(""), &out, &logs)); err != nil {
		t.Fatalf("RunExport: %v", err)
	}
	if !strings.Contains(out.String(), "0 written, 1 unchanged") {
		t.Errorf("second export output = %q", out.String())
	}
}

func TestShellInMemoryStore(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Dir(cfg.SQLite.Path)
	cfg.SQLite.Path = MemoryPath

	in := strings.NewReader("create\nScratch\nthrowaway\n\nlist\nexit\n")
	var out, logs bytes.Buffer
	if err := RunShell(context.Background(), WithConfig(cfg), WithIO(in, &out, &logs)); err != nil {
		t.Fatalf("RunShell: %v", err)
	}
	if !strings.Contains(out.String(), "Scratch") {
		t.Fatalf("shell output = %q", out.String())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".db") || e.Name() == MemoryPath {
			t.Errorf("in-memory run created %s", e.Name())
		}
	}
}
