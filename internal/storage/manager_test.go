// manager_test.go - Tests for storage layer
package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates storage directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "uploads", "nested")
		if _, err := NewLocalStore(dir); err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Error("Expected storage directory to be created")
		}
	})
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves file from reader", func(t *testing.T) {
		store := createTestStore(t)
		info, err := store.Save("background.png", "image/png", "", strings.NewReader("png bytes"))
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if info.ID == "" {
			t.Error("Expected ID to be generated")
		}
		if info.Size != int64(len("png bytes")) {
			t.Errorf("Expected size %d, got %d", len("png bytes"), info.Size)
		}
		if info.Status != StatusUploaded {
			t.Errorf("Expected status %q, got %q", StatusUploaded, info.Status)
		}
		if info.ContentType != "image/png" {
			t.Errorf("Expected content type image/png, got %q", info.ContentType)
		}
	})

	t.Run("saves generated bytes", func(t *testing.T) {
		store := createTestStore(t)
		info, err := store.SaveBytes("certificates.pdf", "application/pdf", StatusGenerated, []byte("%PDF-1.3"))
		if err != nil {
			t.Fatalf("SaveBytes failed: %v", err)
		}
		data, err := store.ReadAll(info.ID)
		if err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		if string(data) != "%PDF-1.3" {
			t.Errorf("Unexpected contents %q", data)
		}
		if info.Status != StatusGenerated {
			t.Errorf("Expected status %q, got %q", StatusGenerated, info.Status)
		}
	})
}

func TestLocalStore_GetAndOpen(t *testing.T) {
	store := createTestStore(t)
	info, _ := store.SaveBytes("a.png", "image/png", "", []byte("abc"))

	got, err := store.Get(info.ID)
	if err != nil || got.Name != "a.png" {
		t.Fatalf("Get returned %v, %v", got, err)
	}

	rc, err := store.Open(info.ID)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "abc" {
		t.Errorf("Expected abc, got %q", data)
	}

	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := store.Open("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLocalStore_List(t *testing.T) {
	store := createTestStore(t)
	first, _ := store.SaveBytes("first", "", "", []byte("1"))
	time.Sleep(2 * time.Millisecond)
	second, _ := store.SaveBytes("second", "", "", []byte("2"))

	list, err := store.List(0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("Expected newest first, got %+v", list)
	}

	list, _ = store.List(1)
	if len(list) != 1 {
		t.Errorf("Expected 1 file with limit, got %d", len(list))
	}
}

func TestLocalStore_Delete(t *testing.T) {
	store := createTestStore(t)
	info, _ := store.SaveBytes("gone.pdf", "application/pdf", StatusGenerated, []byte("x"))
	path, _ := store.GetFilePath(info.ID)

	if err := store.Delete(info.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected physical file to be removed")
	}
	if err := store.Delete(info.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}
