package storage

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lukechampine.com/blake3"
)

// fileDocument is the on-disk layout. The checksum covers the encoded entry
// map and detects partially written or hand-edited files on load.
type fileDocument struct {
	Entries  map[string]string `json:"entries"` // key -> hex(value)
	Checksum string            `json:"checksum"`
}

// FileStore persists the key space as a single JSON document, rewritten
// atomically (write temp file, rename) on every mutation.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string][]byte
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		entries: make(map[string][]byte),
	}
	if err := s.loadFile(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Save(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.entries[key] = cp
	return s.flush()
}

func (s *FileStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return s.flush()
}

func (s *FileStore) loadFile() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var doc fileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("corrupt state file %s: %w", s.path, err)
	}
	if doc.Checksum != checksum(doc.Entries) {
		return fmt.Errorf("state file %s failed checksum verification", s.path)
	}

	for key, encoded := range doc.Entries {
		value, err := hex.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("corrupt entry %q in %s: %w", key, s.path, err)
		}
		s.entries[key] = value
	}
	return nil
}

func (s *FileStore) flush() error {
	doc := fileDocument{Entries: make(map[string]string, len(s.entries))}
	for key, value := range s.entries {
		doc.Entries[key] = hex.EncodeToString(value)
	}
	doc.Checksum = checksum(doc.Entries)

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func checksum(entries map[string]string) string {
	// Encode the map through json for a stable key order
	raw, _ := json.Marshal(entries)
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// EnsureDir creates the parent directory of path if it does not exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o700)
}
