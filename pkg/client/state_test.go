package client

import (
	"path/filepath"
	"testing"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "client.db")

	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	if _, ok := store.Get("missing"); ok {
		t.Error("Get returned a value for a missing key")
	}

	if err := store.Set("k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok := store.Get("k"); !ok || v != "v1" {
		t.Errorf("Get = %q, %v", v, ok)
	}

	// Overwrite
	if err := store.Set("k", "v2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, _ := store.Get("k"); v != "v2" {
		t.Errorf("Get after overwrite = %q", v)
	}

	if err := store.Remove("k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := store.Get("k"); ok {
		t.Error("key survived Remove")
	}

	// Removing a missing key is fine
	if err := store.Remove("k"); err != nil {
		t.Errorf("Remove missing key: %v", err)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")

	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if err := store.Set(keySession, `{"jwt":"tok","address":"0xaa"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	store.Close()

	reopened, err := OpenStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if v, ok := reopened.Get(keySession); !ok || v == "" {
		t.Errorf("session lost across reopen: %q, %v", v, ok)
	}
	if reopened.StateDir() != filepath.Dir(path) {
		t.Errorf("StateDir = %q", reopened.StateDir())
	}
}
