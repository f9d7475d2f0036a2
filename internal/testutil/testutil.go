// Package testutil provides shared test helpers for setting up databases and vaults.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/notekeeper/internal/storage"
	"github.com/starford/notekeeper/internal/vault"
)

// TestDB creates a temporary SQLite gateway that is automatically cleaned up.
func TestDB(t *testing.T) *storage.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notekeeper-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := storage.OpenSQLite(context.Background(), dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Gateways returns a fresh in-memory gateway and a fresh SQLite gateway,
// keyed by name, for tests that must hold on both implementations.
func Gateways(t *testing.T) map[string]storage.Gateway {
	t.Helper()
	return map[string]storage.Gateway{
		"memory": storage.NewMemory(),
		"sqlite": TestDB(t),
	}
}

// TestVault creates a temporary vault directory with a vault.FS.
func TestVault(t *testing.T) (string, *vault.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := vault.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}
