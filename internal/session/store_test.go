package session

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"echolog/internal/domain"
)

// TestLoadMissingFileReportsNoSession verifies first-run behavior.
func TestLoadMissingFileReportsNoSession(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))

	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("load error = %v, want ErrNoSession", err)
	}
}

// TestSaveLoadRoundTrip verifies the persisted session survives reload
// with owner-only permissions.
func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	sess := domain.Session{
		Token:     "jwt-token",
		UserName:  "Alex Doe",
		Email:     "alex@example.com",
		ClientID:  "client-1",
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	if err := store.Save(sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Token != sess.Token || loaded.Email != sess.Email {
		t.Fatalf("loaded = %+v, want %+v", loaded, sess)
	}
	if !loaded.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Fatalf("expires at = %v, want %v", loaded.ExpiresAt, sess.ExpiresAt)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Fatalf("perm = %v, want 0600", info.Mode().Perm())
		}
	}
}

// TestLoadEmptyTokenReportsNoSession checks stale file handling.
func TestLoadEmptyTokenReportsNoSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte(`{"token":""}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewFileStore(path).Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("load error = %v, want ErrNoSession", err)
	}
}

// TestClearTolerateMissingFile verifies logout idempotence.
func TestClearTolerateMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))

	if err := store.Clear(); err != nil {
		t.Fatalf("clear on missing file: %v", err)
	}

	if err := store.Save(domain.Session{Token: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("load after clear = %v, want ErrNoSession", err)
	}
}
