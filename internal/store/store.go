// Package store persists Cafe24 account credentials and tokens in a
// human-editable JSON file, mirroring the current account into a legacy
// single-account config file and a .env file for sibling tooling.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrAccountNotFound is returned when an operation references an unknown shop_id.
var ErrAccountNotFound = errors.New("account not found")

// State is the full persisted structure: all accounts plus the pointer to
// the account interactive operations default to.
type State struct {
	Accounts       map[string]*Account `json:"accounts"`
	CurrentAccount string              `json:"current_account,omitempty"`
}

// NewState returns an empty store state.
func NewState() *State {
	return &State{Accounts: make(map[string]*Account)}
}

// Store owns the account file. All mutations serialize through one mutex so
// a manual refresh racing the scheduled sweep cannot interleave
// load-modify-save sequences.
type Store struct {
	path       string
	legacyPath string
	envPath    string
	mu         sync.Mutex
}

// New creates a store backed by path. legacyPath and envPath enable the
// derived projections when non-empty; they are never read back.
func New(path, legacyPath, envPath string) *Store {
	return &Store{path: path, legacyPath: legacyPath, envPath: envPath}
}

// Load reads the full state. A missing file is a valid initial state and
// yields an empty store, never an error.
func (s *Store) Load() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("read account store: %w", err)
	}
	st := NewState()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parse account store: %w", err)
	}
	if st.Accounts == nil {
		st.Accounts = make(map[string]*Account)
	}
	return st, nil
}

// Save persists the full state in one write (temp file + rename, so a crash
// mid-write cannot corrupt previously valid state) and refreshes the legacy
// and env projections of the current account.
func (s *Store) Save(st *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(st)
}

func (s *Store) saveLocked(st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	os.Chmod(s.path, 0o600)

	s.projectLocked(st)
	return nil
}

// Upsert inserts or replaces an account. The first account to appear becomes
// the current one.
func (s *Store) Upsert(shopID string, acc *Account) error {
	if shopID == "" {
		return errors.New("empty shop_id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadLocked()
	if err != nil {
		return err
	}
	acc.ShopID = shopID
	st.Accounts[shopID] = acc
	if st.CurrentAccount == "" {
		st.CurrentAccount = shopID
	}
	return s.saveLocked(st)
}

// SetCurrent points interactive operations at shopID.
func (s *Store) SetCurrent(shopID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadLocked()
	if err != nil {
		return err
	}
	if _, ok := st.Accounts[shopID]; !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, shopID)
	}
	st.CurrentAccount = shopID
	return s.saveLocked(st)
}

// Delete removes an account. Deleting the current account re-points the
// pointer to an arbitrary remaining account, or clears it when none remain.
func (s *Store) Delete(shopID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadLocked()
	if err != nil {
		return err
	}
	if _, ok := st.Accounts[shopID]; !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, shopID)
	}
	delete(st.Accounts, shopID)
	if st.CurrentAccount == shopID {
		st.CurrentAccount = ""
		for id := range st.Accounts {
			st.CurrentAccount = id
			break
		}
	}
	return s.saveLocked(st)
}

// Get returns one account by shop_id.
func (s *Store) Get(shopID string) (*Account, error) {
	st, err := s.Load()
	if err != nil {
		return nil, err
	}
	acc, ok := st.Accounts[shopID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, shopID)
	}
	return acc, nil
}

// GetCurrent resolves the current-account pointer. A dangling or unset
// pointer yields ErrAccountNotFound.
func (s *Store) GetCurrent() (*Account, error) {
	st, err := s.Load()
	if err != nil {
		return nil, err
	}
	if st.CurrentAccount == "" {
		return nil, ErrAccountNotFound
	}
	acc, ok := st.Accounts[st.CurrentAccount]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, st.CurrentAccount)
	}
	return acc, nil
}
