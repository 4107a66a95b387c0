package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/securecookie"
)

// Storage is the key/value store a session is persisted in, the moral
// equivalent of the browser's localStorage.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// MemoryStorage keeps values for the life of the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: map[string]string{}}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

const fileStorageName = "blog-admin-session"

// FileStorage persists values to a single file. When a secret is supplied
// the file content is signed and encrypted with securecookie.
type FileStorage struct {
	mu     sync.Mutex
	path   string
	codec  *securecookie.SecureCookie
	values map[string]string
}

// NewFileStorage opens the file at path, creating nothing until the first
// write. A file that cannot be decoded is treated as empty.
func NewFileStorage(path string, secret []byte) (*FileStorage, error) {
	if path == "" {
		return nil, errors.New("session file path is required")
	}
	fs := &FileStorage{path: path, values: map[string]string{}}
	if len(secret) > 0 {
		hashKey, blockKey := deriveKeys(secret)
		fs.codec = securecookie.New(hashKey, blockKey).MaxAge(0)
		fs.codec.SetSerializer(securecookie.JSONEncoder{})
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return f.flush()
}

func (f *FileStorage) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.flush()
}

func (f *FileStorage) load() error {
	content, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session file: %w", err)
	}

	values := map[string]string{}
	if f.codec != nil {
		if err := f.codec.Decode(fileStorageName, string(content), &values); err != nil {
			return nil
		}
	} else if err := json.Unmarshal(content, &values); err != nil {
		return nil
	}
	f.values = values
	return nil
}

func (f *FileStorage) flush() error {
	if len(f.values) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}

	var content []byte
	if f.codec != nil {
		encoded, err := f.codec.Encode(fileStorageName, f.values)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		content = []byte(encoded)
	} else {
		encoded, err := json.Marshal(f.values)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		content = encoded
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return os.Rename(tmp, f.path)
}
