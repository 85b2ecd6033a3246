package settings

import (
	"encoding/json"
	"io"
	"sync"

	"pkt.systems/kryptograf"
	"pkt.systems/kryptograf/keymgmt"
	"pkt.systems/pslog"
	"pkt.systems/uqlabs/internal/persist"
)

const apiKeysDescriptor = "uqlabs/api-keys"

// FileStore keeps settings in a state directory. API keys are encrypted at
// rest; the custom model list is plain JSON.
type FileStore struct {
	mu       sync.Mutex
	store    *persist.Store
	keyStore string
	log      pslog.Logger
	material keymgmt.Material
	root     keymgmt.RootKey
}

// NewFileStore opens the settings store in dir, creating the key store and
// its root key on first use. The key material is read once and kept for the
// life of the store.
func NewFileStore(dir string, logger pslog.Logger) (*FileStore, error) {
	store, err := persist.NewStoreWithLogger(dir, logger)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir)
	}
	f := &FileStore{store: store, keyStore: store.Path(KeyStoreFile), log: logger}
	material, root, err := f.loadMaterial()
	if err != nil {
		return nil, err
	}
	f.material, f.root = material, root
	return f, nil
}

// Dir returns the state directory.
func (f *FileStore) Dir() string {
	return f.store.Dir()
}

// Load reads both settings files. Missing files yield empty settings.
func (f *FileStore) Load() (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys, err := f.loadAPIKeys()
	if err != nil {
		return Settings{}, err
	}
	var models []CustomModel
	if _, err := f.store.LoadJSON(CustomModelsFile, &models); err != nil {
		return Settings{}, err
	}
	out := Settings{APIKeys: keys, CustomModels: models}
	if f.log != nil {
		f.log.Debug("settings load ok", "providers", len(keys), "custom_models", len(models))
	}
	return out, nil
}

// Save overwrites both settings files.
func (f *FileStore) Save(s Settings) error {
	normalized, err := s.Normalize()
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.saveAPIKeys(normalized.APIKeys); err != nil {
		return err
	}
	models := normalized.CustomModels
	if models == nil {
		models = []CustomModel{}
	}
	if err := f.store.SaveJSON(CustomModelsFile, models); err != nil {
		return err
	}
	if f.log != nil {
		f.log.Info("settings save ok", "providers", len(normalized.APIKeys), "custom_models", len(models))
	}
	return nil
}

func (f *FileStore) loadAPIKeys() (map[string]string, error) {
	keys := map[string]string{}
	file, ok, err := f.store.Open(APIKeysFile)
	if err != nil || !ok {
		return keys, err
	}
	defer func() { _ = file.Close() }()
	reader, err := kryptograf.New(f.root).DecryptReader(file, f.material)
	if err != nil {
		if f.log != nil {
			f.log.Warn("settings api keys decrypt failed", "err", err)
		}
		return nil, err
	}
	defer func() { _ = reader.Close() }()
	plain, err := io.ReadAll(reader)
	if err != nil {
		if f.log != nil {
			f.log.Warn("settings api keys decrypt failed", "err", err)
		}
		return nil, err
	}
	if err := json.Unmarshal(plain, &keys); err != nil {
		if f.log != nil {
			f.log.Warn("settings api keys decode failed", "err", err)
		}
		return nil, err
	}
	return keys, nil
}

func (f *FileStore) saveAPIKeys(keys map[string]string) error {
	plain, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	kg := kryptograf.New(f.root)
	return f.store.Write(APIKeysFile, func(w io.Writer) error {
		writer, err := kg.EncryptWriter(w, f.material)
		if err != nil {
			return err
		}
		if _, err := writer.Write(plain); err != nil {
			_ = writer.Close()
			return err
		}
		return writer.Close()
	})
}

func (f *FileStore) loadMaterial() (keymgmt.Material, keymgmt.RootKey, error) {
	store, err := keymgmt.LoadProto(f.keyStore)
	if err != nil {
		if f.log != nil {
			f.log.Warn("settings key material load failed", "err", err)
		}
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	root, err := store.EnsureRootKey()
	if err != nil {
		if f.log != nil {
			f.log.Warn("settings key material load failed", "err", err)
		}
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	material, err := store.EnsureDescriptor(apiKeysDescriptor, root, []byte(apiKeysDescriptor))
	if err != nil {
		if f.log != nil {
			f.log.Warn("settings key material ensure failed", "err", err)
		}
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	if err := store.Commit(); err != nil {
		if f.log != nil {
			f.log.Warn("settings key material commit failed", "err", err)
		}
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	return material, root, nil
}
