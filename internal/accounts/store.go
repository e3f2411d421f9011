package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrDuplicateAccount = errors.New("account already exists")
	ErrNotFound         = errors.New("account not found")
)

// Store owns the account table. All access goes through its methods; no
// *Account held by the store ever escapes (callers get copies). Every
// mutation rewrites the snapshot file wholesale and syncs it before the
// call returns.
type Store struct {
	log  *zap.SugaredLogger
	path string

	mu       sync.Mutex
	accounts map[string]*Account
}

// NewStore loads the snapshot at path. A missing file starts empty; a
// malformed one is logged and discarded rather than refusing to start.
func NewStore(log *zap.SugaredLogger, path string) *Store {
	s := &Store{log: log, path: path, accounts: map[string]*Account{}}
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnw("accounts snapshot unreadable, starting empty", "path", path, "err", err)
		}
		return s
	}
	var snap map[string]*Account
	if err := json.Unmarshal(b, &snap); err != nil {
		log.Warnw("accounts snapshot corrupt, starting empty", "path", path, "err", err)
		return s
	}
	for name, a := range snap {
		a.Name = name
		s.accounts[name] = a
	}
	log.Infow("accounts loaded", "path", path, "count", len(s.accounts))
	return s
}

// Register creates an unauthenticated account. Duplicate names always fail
// and never overwrite.
func (s *Store) Register(name, clientID, clientSecret, redirectURI string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateAccount, name)
	}
	a := &Account{
		Name:         name,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
	}
	s.accounts[name] = a
	if err := s.persistLocked(); err != nil {
		delete(s.accounts, name)
		return nil, err
	}
	cp := *a
	return &cp, nil
}

// Get returns a copy of the account, or false when absent.
func (s *Store) Get(name string) (*Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[name]
	if !ok {
		return nil, false
	}
	cp := *a
	return &cp, true
}

// List returns summaries sorted by name.
func (s *Store) List() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Summary, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, Summary{Name: a.Name, Authenticated: a.Authenticated})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Update applies mutate to a copy of the record, replaces the whole record
// and persists before returning. A persist failure rolls the record back so
// memory and disk never diverge.
func (s *Store) Update(name string, mutate func(*Account)) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.accounts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	next := *prev
	mutate(&next)
	next.Name = name
	s.accounts[name] = &next
	if err := s.persistLocked(); err != nil {
		s.accounts[name] = prev
		return nil, err
	}
	cp := next
	return &cp, nil
}

func (s *Store) persistLocked() error {
	b, err := json.MarshalIndent(s.accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal accounts: %w", err)
	}
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("write accounts snapshot: %w", err)
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write accounts snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync accounts snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close accounts snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace accounts snapshot: %w", err)
	}
	return nil
}

// Path reports the snapshot location (logged at startup).
func (s *Store) Path() string { return filepath.Clean(s.path) }
