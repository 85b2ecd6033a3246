package settings

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"pkt.systems/uqlabs/schema"
)

func TestFileStoreLoadEmpty(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.APIKeys) != 0 || len(got.CustomModels) != 0 {
		t.Fatalf("expected empty settings, got %+v", got)
	}
}

func TestFileStoreRoundTripEncryptsKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	want := Settings{
		APIKeys: map[string]string{"openai": "sk-secret-value"},
		CustomModels: []CustomModel{
			{ID: "llama-3.1-70b", Name: "Llama 70B", Provider: "groq"},
		},
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := os.ReadFile(store.store.Path(APIKeysFile))
	if err != nil {
		t.Fatalf("read encrypted file: %v", err)
	}
	if bytes.Contains(raw, []byte("sk-secret-value")) {
		t.Fatalf("api key stored in plain text")
	}

	reopened, err := NewFileStore(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveOverwritesWholesale(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	first := Settings{APIKeys: map[string]string{"openai": "a", "anthropic": "b"}}
	if err := store.Save(first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(Settings{APIKeys: map[string]string{"google": "c"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"google"}, got.Providers()); diff != "" {
		t.Fatalf("providers mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeRejectsInvalidAndDuplicateModels(t *testing.T) {
	_, err := Settings{CustomModels: []CustomModel{{ID: "bad id"}}}.Normalize()
	if !errors.Is(err, schema.ErrInvalidModel) {
		t.Fatalf("expected ErrInvalidModel, got %v", err)
	}
	_, err = Settings{CustomModels: []CustomModel{{ID: "m"}, {ID: "m"}}}.Normalize()
	if !errors.Is(err, schema.ErrInvalidModel) {
		t.Fatalf("expected ErrInvalidModel for duplicate, got %v", err)
	}
}

func TestNormalizeCleansValues(t *testing.T) {
	got, err := Settings{
		APIKeys:      map[string]string{" OpenAI ": " key ", "empty": "  "},
		CustomModels: []CustomModel{{ID: " mixtral ", Provider: "Mistral"}},
	}.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := Settings{
		APIKeys:      map[string]string{"openai": "key"},
		CustomModels: []CustomModel{{ID: "mixtral", Name: "mixtral", Provider: "mistral"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestWithHelpersDoNotMutateReceiver(t *testing.T) {
	base := Settings{
		APIKeys:      map[string]string{"openai": "a"},
		CustomModels: []CustomModel{{ID: "one"}, {ID: "two"}},
	}
	next := base.WithAPIKey("anthropic", "b").WithoutModel("one").WithModel(CustomModel{ID: "three"})
	if len(base.APIKeys) != 1 || len(base.CustomModels) != 2 || base.CustomModels[0].ID != "one" {
		t.Fatalf("receiver mutated: %+v", base)
	}
	if diff := cmp.Diff([]string{"anthropic", "openai"}, next.Providers()); diff != "" {
		t.Fatalf("providers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]CustomModel{{ID: "two"}, {ID: "three"}}, next.CustomModels); diff != "" {
		t.Fatalf("models mismatch (-want +got):\n%s", diff)
	}
	if cleared := next.WithAPIKey("openai", ""); len(cleared.APIKeys) != 1 {
		t.Fatalf("expected empty key to remove provider, got %+v", cleared.APIKeys)
	}
}

func TestMemoryService(t *testing.T) {
	mem := NewMemory(Settings{APIKeys: map[string]string{"openai": "a"}})
	got, err := mem.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got.APIKeys["openai"] = "changed"
	again, _ := mem.Load()
	if again.APIKeys["openai"] != "a" {
		t.Fatalf("memory load should return a copy")
	}
	if err := mem.Save(Settings{CustomModels: []CustomModel{{ID: "bad id"}}}); err == nil {
		t.Fatalf("expected invalid model to be rejected")
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan Settings, 4)
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, func(s Settings) { reloaded <- s })
	}()

	deadline := time.After(5 * time.Second)
	for {
		if err := store.Save(Settings{CustomModels: []CustomModel{{ID: "watched"}}}); err != nil {
			t.Fatalf("save: %v", err)
		}
		select {
		case s := <-reloaded:
			if len(s.CustomModels) != 1 || s.CustomModels[0].ID != "watched" {
				t.Fatalf("unexpected reload: %+v", s)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("watch: %v", err)
			}
			return
		case <-time.After(300 * time.Millisecond):
		case <-deadline:
			t.Fatalf("timed out waiting for reload")
		}
	}
}
