package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenEnv overrides the stored token when set.
const TokenEnv = "LEARNX_TOKEN"

// Store holds the bearer token, optionally persisted to a file.
type Store struct {
	mu        sync.RWMutex
	path      string
	persisted bool // the token is the one in the file at path
	token     string
	listeners map[int]func()
	nextID    int
}

// NewStore creates a Store backed by the file at path.
//
// An empty path keeps the token in memory only. The token is read from $LEARNX_TOKEN first, then the file.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, listeners: make(map[int]func())}

	if env := strings.TrimSpace(os.Getenv(TokenEnv)); env != "" {
		s.token = env
		return s, nil
	}

	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	s.token = strings.TrimSpace(string(data))
	s.persisted = s.token != ""
	return s, nil
}

// NewMemoryStore creates an in-memory Store seeded with token.
func NewMemoryStore(token string) *Store {
	return &Store{token: token, listeners: make(map[int]func())}
}

// Path returns the backing file path, empty for memory stores.
func (s *Store) Path() string {
	return s.path
}

// Token returns the current token and whether one is present.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Set stores token and persists it with 0600 permissions.
func (s *Store) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
		if err := os.WriteFile(s.path, []byte(token+"\n"), 0600); err != nil {
			return fmt.Errorf("failed to write token file: %w", err)
		}
	}

	s.token = token
	s.persisted = s.path != ""
	return nil
}

// Invalidate clears the token and notifies listeners.
//
// The token file is removed only when the token came from it, so a $LEARNX_TOKEN override
// leaves the file alone. Listeners only fire when a token was present.
func (s *Store) Invalidate() {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	if s.persisted {
		_ = os.Remove(s.path)
		s.persisted = false
	}
	listeners := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	if !had {
		return
	}
	for _, fn := range listeners {
		fn()
	}
}

// OnInvalidate registers fn to run after each invalidation and returns a func that unregisters it.
func (s *Store) OnInvalidate(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}
