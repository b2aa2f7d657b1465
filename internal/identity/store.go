package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/muurk/ithorft/internal/protocol"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by LoadIdentity when nothing has been stored yet
var ErrNotFound = errors.New("identity not found")

// fileVersion is the identity document format version
const fileVersion = 1

// Store persists the remote's identity between runs.
type Store interface {
	LoadIdentity() (protocol.Identity, error)
	SaveIdentity(protocol.Identity) error
}

// document is the on-disk form of an identity
type document struct {
	Version         int      `yaml:"version"`
	Status          string   `yaml:"status"`
	Remote          string   `yaml:"remote,omitempty"`
	Unit            string   `yaml:"unit,omitempty"`
	PreviousRemotes []string `yaml:"previous_remotes,omitempty"`
}

// FileStore keeps the identity in a YAML file.
// Writes go to a temporary file that is renamed over the target, so a crash
// leaves either the old or the new identity, never a mix.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the file at path.
// The file and its directory are created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// LoadIdentity reads and validates the stored identity
func (s *FileStore) LoadIdentity() (protocol.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return protocol.Identity{}, ErrNotFound
	}
	if err != nil {
		return protocol.Identity{}, fmt.Errorf("failed to read identity file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return protocol.Identity{}, fmt.Errorf("failed to parse identity file: %w", err)
	}
	if doc.Version != fileVersion {
		return protocol.Identity{}, fmt.Errorf("unsupported identity file version: %d (expected %d)", doc.Version, fileVersion)
	}

	return decode(doc)
}

// SaveIdentity atomically replaces the stored identity
func (s *FileStore) SaveIdentity(id protocol.Identity) error {
	if err := Validate(id); err != nil {
		return err
	}

	data, err := yaml.Marshal(encode(id))
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}

	header := []byte(`# ithorft remote identity
# Deleting this file unpairs the remote. Run "ithorft pair" to bind again.

`)
	data = append(header, data...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create identity directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary identity file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save identity file: %w", err)
	}

	return nil
}

// Validate checks that an identity is consistent enough to persist.
// A paired identity needs both addresses; a pairing identity is transient
// and is never written.
func Validate(id protocol.Identity) error {
	switch id.Status {
	case protocol.StatusPaired:
		if id.Remote == 0 || id.Unit == 0 {
			return fmt.Errorf("paired identity requires both remote and unit addresses")
		}
		if id.Remote.Class() != protocol.ClassRemote {
			return fmt.Errorf("remote address %s is not class %d", id.Remote, protocol.ClassRemote)
		}
	case protocol.StatusPairing:
		return fmt.Errorf("identity in state %s cannot be stored", id.Status)
	}
	return nil
}

func encode(id protocol.Identity) document {
	doc := document{
		Version: fileVersion,
		Status:  id.Status.String(),
	}
	if id.Remote != 0 {
		doc.Remote = id.Remote.String()
	}
	if id.Unit != 0 {
		doc.Unit = id.Unit.String()
	}
	for _, a := range id.PreviousRemotes {
		doc.PreviousRemotes = append(doc.PreviousRemotes, a.String())
	}
	return doc
}

func decode(doc document) (protocol.Identity, error) {
	var id protocol.Identity
	var err error

	if id.Status, err = protocol.ParsePairingStatus(doc.Status); err != nil {
		return protocol.Identity{}, err
	}
	if doc.Remote != "" {
		if id.Remote, err = protocol.ParseAddress(doc.Remote); err != nil {
			return protocol.Identity{}, fmt.Errorf("remote: %w", err)
		}
	}
	if doc.Unit != "" {
		if id.Unit, err = protocol.ParseAddress(doc.Unit); err != nil {
			return protocol.Identity{}, fmt.Errorf("unit: %w", err)
		}
	}
	for _, s := range doc.PreviousRemotes {
		a, err := protocol.ParseAddress(s)
		if err != nil {
			return protocol.Identity{}, fmt.Errorf("previous remote: %w", err)
		}
		id.PreviousRemotes = append(id.PreviousRemotes, a)
	}

	if err := Validate(id); err != nil {
		return protocol.Identity{}, err
	}
	return id, nil
}

// MemoryStore keeps the identity in memory. Used by tests and dry runs.
type MemoryStore struct {
	mu    sync.Mutex
	id    protocol.Identity
	saved bool
	saves int

	// FailSave, when set, is returned by SaveIdentity
	FailSave error
}

// NewMemoryStore creates a store, optionally seeded with an identity
func NewMemoryStore(seed *protocol.Identity) *MemoryStore {
	s := &MemoryStore{}
	if seed != nil {
		s.id = *seed
		s.saved = true
	}
	return s
}

// LoadIdentity returns the stored identity or ErrNotFound
func (s *MemoryStore) LoadIdentity() (protocol.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return protocol.Identity{}, ErrNotFound
	}
	id := s.id
	id.PreviousRemotes = append([]protocol.Address(nil), s.id.PreviousRemotes...)
	return id, nil
}

// SaveIdentity stores a copy of id
func (s *MemoryStore) SaveIdentity(id protocol.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return s.FailSave
	}
	if err := Validate(id); err != nil {
		return err
	}
	s.id = id
	s.id.PreviousRemotes = append([]protocol.Address(nil), id.PreviousRemotes...)
	s.saved = true
	s.saves++
	return nil
}

// Saves returns how many times SaveIdentity succeeded
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
