package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is the default in-process backend. A single RWMutex serializes
// access; at demo concurrency a global lock is sufficient and avoids lost
// updates between requests touching the same user's vault.
type Memory struct {
	mu sync.RWMutex

	users        map[string]*User   // by user ID
	usersByEmail map[string]string  // lowercased email -> user ID
	keys         map[string]*UserKeys
	sessions     map[string]*Session // by session ID
	byAccess     map[string]string   // access token -> session ID
	byRefresh    map[string]string   // refresh token -> session ID
	folders      map[string][]Folder // user ID -> folders, insertion order
	items        map[string][]Item   // user ID -> items, insertion order
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:        make(map[string]*User),
		usersByEmail: make(map[string]string),
		keys:         make(map[string]*UserKeys),
		sessions:     make(map[string]*Session),
		byAccess:     make(map[string]string),
		byRefresh:    make(map[string]string),
		folders:      make(map[string][]Folder),
		items:        make(map[string][]Item),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := m.usersByEmail[key]; exists {
		return ErrEmailTaken
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	cp := *u
	m.users[u.ID] = &cp
	m.usersByEmail[key] = u.ID
	return nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) PutUserKeys(_ context.Context, k *UserKeys) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *k
	m.keys[k.UserID] = &cp
	return nil
}

func (m *Memory) GetUserKeys(_ context.Context, userID string) (*UserKeys, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k, ok := m.keys[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *k
	return &cp, nil
}

func (m *Memory) CreateSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	cp := *s
	m.sessions[s.ID] = &cp
	m.byAccess[s.AccessToken] = s.ID
	m.byRefresh[s.RefreshToken] = s.ID
	return nil
}

func (m *Memory) GetSessionByAccessToken(_ context.Context, token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byAccess[token]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.sessions[id]
	return &cp, nil
}

func (m *Memory) GetSessionByRefreshToken(_ context.Context, token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byRefresh[token]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.sessions[id]
	return &cp, nil
}

func (m *Memory) UpdateSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.sessions[s.ID]
	if !ok {
		return ErrNotFound
	}

	delete(m.byAccess, old.AccessToken)
	delete(m.byRefresh, old.RefreshToken)

	cp := *s
	m.sessions[s.ID] = &cp
	m.byAccess[s.AccessToken] = s.ID
	m.byRefresh[s.RefreshToken] = s.ID
	return nil
}

func (m *Memory) DeleteSessionByAccessToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byAccess[token]
	if !ok {
		return nil
	}
	s := m.sessions[id]
	delete(m.byAccess, s.AccessToken)
	delete(m.byRefresh, s.RefreshToken)
	delete(m.sessions, id)
	return nil
}

func (m *Memory) ListFolders(_ context.Context, userID string) ([]Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Folder, len(m.folders[userID]))
	copy(out, m.folders[userID])
	return out, nil
}

func (m *Memory) CreateFolder(_ context.Context, userID string, f *Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	m.folders[userID] = append(m.folders[userID], *f)
	return nil
}

func (m *Memory) RenameFolder(_ context.Context, userID, folderID, name string) (*Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	folders := m.folders[userID]
	for i := range folders {
		if folders[i].ID == folderID {
			folders[i].Name = name
			cp := folders[i]
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) DeleteFolder(_ context.Context, userID, folderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	folders := m.folders[userID]
	idx := -1
	for i := range folders {
		if folders[i].ID == folderID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}
	m.folders[userID] = append(folders[:idx], folders[idx+1:]...)

	items := m.items[userID]
	for i := range items {
		if items[i].FolderID == folderID {
			items[i].FolderID = ""
		}
	}
	return nil
}

func (m *Memory) ListItems(_ context.Context, userID string) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Item, len(m.items[userID]))
	copy(out, m.items[userID])
	return out, nil
}

func (m *Memory) CreateItem(_ context.Context, userID string, it *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.LastModified = time.Now().UTC()
	m.items[userID] = append(m.items[userID], *it)
	return nil
}

func (m *Memory) UpdateItem(_ context.Context, userID, itemID string, patch ItemPatch) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.items[userID]
	for i := range items {
		if items[i].ID != itemID {
			continue
		}
		applyPatch(&items[i], patch)
		items[i].LastModified = time.Now().UTC()
		cp := items[i]
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) DeleteItem(_ context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.items[userID]
	for i := range items {
		if items[i].ID == itemID {
			m.items[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func applyPatch(it *Item, patch ItemPatch) {
	if patch.Name != nil {
		it.Name = *patch.Name
	}
	if patch.Username != nil {
		it.Username = *patch.Username
	}
	if patch.Password != nil {
		it.Password = *patch.Password
	}
	if patch.URL != nil {
		it.URL = *patch.URL
	}
	if patch.Notes != nil {
		it.Notes = *patch.Notes
	}
	if patch.FolderID != nil {
		it.FolderID = *patch.FolderID
	}
	if patch.Favorite != nil {
		it.Favorite = *patch.Favorite
	}
}
