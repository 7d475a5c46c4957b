package auth

import (
	"context"
	"sync"
	"time"

	"github.com/carlomkt/codisec-itca/internal/ids"
)

// MemoryStore is an in-process Store used for tests and DSN-less dev runs.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User // by id
	roles map[string]Role
	perms map[string]Permission // by id
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]User),
		roles: make(map[string]Role),
		perms: make(map[string]Permission),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return ErrAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = ids.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) FindUserByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]User, 0, len(s.users))
	for _, user := range s.users {
		result = append(result, user)
	}
	return result, nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return ErrNotFound
	}
	delete(s.users, userID)
	return nil
}

func (s *MemoryStore) SetUserRoles(_ context.Context, userID string, roleIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	for _, roleID := range roleIDs {
		if _, ok := s.roles[roleID]; !ok {
			return ErrNotFound
		}
	}
	user.RoleIDs = append([]string(nil), roleIDs...)
	s.users[userID] = user
	return nil
}

func (s *MemoryStore) CreateRole(_ context.Context, role *Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Name == role.Name {
			return ErrAlreadyExists
		}
	}
	if role.ID == "" {
		role.ID = ids.New()
	}
	if role.CreatedAt.IsZero() {
		role.CreatedAt = time.Now().UTC()
	}
	s.roles[role.ID] = *role
	return nil
}

func (s *MemoryStore) UpdateRole(_ context.Context, role *Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.roles[role.ID]
	if !ok {
		return ErrNotFound
	}
	role.CreatedAt = existing.CreatedAt
	s.roles[role.ID] = *role
	return nil
}

func (s *MemoryStore) DeleteRole(_ context.Context, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID]; !ok {
		return ErrNotFound
	}
	delete(s.roles, roleID)
	for id, user := range s.users {
		kept := user.RoleIDs[:0]
		for _, rid := range user.RoleIDs {
			if rid != roleID {
				kept = append(kept, rid)
			}
		}
		user.RoleIDs = kept
		s.users[id] = user
	}
	return nil
}

func (s *MemoryStore) ListRoles(_ context.Context) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Role, 0, len(s.roles))
	for _, role := range s.roles {
		result = append(result, role)
	}
	return result, nil
}

func (s *MemoryStore) FindRoleByName(_ context.Context, name string) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, role := range s.roles {
		if role.Name == name {
			r := role
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) EnsurePermissions(_ context.Context, perms []Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, perm := range perms {
		if s.findPermByName(perm.Name) != nil {
			continue
		}
		if perm.ID == "" {
			perm.ID = ids.New()
		}
		s.perms[perm.ID] = perm
	}
	return nil
}

func (s *MemoryStore) ListPermissions(_ context.Context) ([]Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Permission, 0, len(s.perms))
	for _, perm := range s.perms {
		result = append(result, perm)
	}
	return result, nil
}

func (s *MemoryStore) EffectivePermissions(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	seen := make(map[string]struct{})
	var result []string
	for _, roleID := range user.RoleIDs {
		role, ok := s.roles[roleID]
		if !ok {
			continue
		}
		for _, permID := range role.PermissionIDs {
			perm, ok := s.perms[permID]
			if !ok {
				continue
			}
			if _, dup := seen[perm.Name]; dup {
				continue
			}
			seen[perm.Name] = struct{}{}
			result = append(result, perm.Name)
		}
	}
	return result, nil
}

func (s *MemoryStore) findPermByName(name string) *Permission {
	for _, perm := range s.perms {
		if perm.Name == name {
			p := perm
			return &p
		}
	}
	return nil
}
