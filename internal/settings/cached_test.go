package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCachedServesFromMemory(t *testing.T) {
	backing := NewMemory(Settings{CustomModels: []CustomModel{{ID: "first"}}})
	cache := NewCached(backing)
	got, err := cache.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.CustomModels) != 1 || got.CustomModels[0].ID != "first" {
		t.Fatalf("unexpected initial load %+v", got)
	}

	if err := backing.Save(Settings{CustomModels: []CustomModel{{ID: "behind-the-cache"}}}); err != nil {
		t.Fatalf("backing save: %v", err)
	}
	got, _ = cache.Load()
	if got.CustomModels[0].ID != "first" {
		t.Fatalf("cache should not re-read the backing store, got %+v", got)
	}

	cache.Set(Settings{CustomModels: []CustomModel{{ID: "pushed"}}})
	got, _ = cache.Load()
	if got.CustomModels[0].ID != "pushed" {
		t.Fatalf("set not applied: %+v", got)
	}

	if err := cache.Save(Settings{APIKeys: map[string]string{"openai": "sk"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	stored, _ := backing.Load()
	if stored.APIKeys["openai"] != "sk" {
		t.Fatalf("save should write through, backing has %+v", stored)
	}
	if err := cache.Save(Settings{CustomModels: []CustomModel{{ID: "bad id"}}}); err == nil {
		t.Fatalf("expected invalid model to be rejected")
	}
	got, _ = cache.Load()
	if got.APIKeys["openai"] != "sk" {
		t.Fatalf("rejected save replaced the cache: %+v", got)
	}
}

func TestCachedFollowAppliesDiskEdits(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	cache := NewCached(store)
	if got, err := cache.Load(); err != nil || len(got.CustomModels) != 0 {
		t.Fatalf("initial load %+v err=%v", got, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	refreshed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- cache.Follow(ctx, store, func(Settings) { refreshed <- struct{}{} })
	}()

	// A second store stands in for another process editing the directory.
	editor, err := NewFileStore(dir, nil)
	if err != nil {
		t.Fatalf("editor store: %v", err)
	}
	edit := Settings{
		APIKeys:      map[string]string{"groq": "gsk-from-disk"},
		CustomModels: []CustomModel{{ID: "edited-on-disk", Provider: "groq"}},
	}
	deadline := time.After(5 * time.Second)
	for {
		if err := editor.Save(edit); err != nil {
			t.Fatalf("editor save: %v", err)
		}
		select {
		case <-refreshed:
			got, err := cache.Load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			// A refresh can land between the two file writes.
			if len(got.CustomModels) != 1 || got.APIKeys["groq"] != "gsk-from-disk" {
				continue
			}
			if got.CustomModels[0].ID != "edited-on-disk" {
				t.Fatalf("unexpected cached model %+v", got.CustomModels[0])
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("follow: %v", err)
			}
			return
		case <-time.After(300 * time.Millisecond):
		case <-deadline:
			t.Fatalf("timed out waiting for cache refresh")
		}
	}
}

func TestFileStoreCommitsKeyStoreOnlyOnCreate(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := store.Save(Settings{APIKeys: map[string]string{"openai": "sk-kept"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	keyStore := filepath.Join(dir, KeyStoreFile)
	if _, err := os.Stat(keyStore); err != nil {
		t.Fatalf("key store missing after create: %v", err)
	}
	if err := os.Remove(keyStore); err != nil {
		t.Fatalf("remove key store: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := store.Load()
		if err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
		if got.APIKeys["openai"] != "sk-kept" {
			t.Fatalf("load %d lost key: %+v", i, got.APIKeys)
		}
	}
	if err := store.Save(Settings{APIKeys: map[string]string{"openai": "sk-next"}}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if _, err := os.Stat(keyStore); !os.IsNotExist(err) {
		t.Fatalf("load/save rewrote the key store, stat err=%v", err)
	}
}
