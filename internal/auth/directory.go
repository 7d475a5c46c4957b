package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store describes persistence for accounts, roles and permissions.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, userID string) error
	SetUserRoles(ctx context.Context, userID string, roleIDs []string) error

	CreateRole(ctx context.Context, role *Role) error
	UpdateRole(ctx context.Context, role *Role) error
	DeleteRole(ctx context.Context, roleID string) error
	ListRoles(ctx context.Context) ([]Role, error)
	FindRoleByName(ctx context.Context, name string) (*Role, error)

	EnsurePermissions(ctx context.Context, perms []Permission) error
	ListPermissions(ctx context.Context) ([]Permission, error)

	// EffectivePermissions resolves the union of permission names granted
	// through every role assigned to the user.
	EffectivePermissions(ctx context.Context, userID string) ([]string, error)
}

// Directory provides account and role administration on top of a Store.
type Directory struct {
	store Store
}

func NewDirectory(store Store) (*Directory, error) {
	if store == nil {
		return nil, errors.New("auth store is required")
	}
	return &Directory{store: store}, nil
}

// EnsureBuiltins makes sure the page permission catalog exists.
func (d *Directory) EnsureBuiltins(ctx context.Context) error {
	return d.store.EnsurePermissions(ctx, BuiltinPermissions())
}

// Register creates an account with the default role. Usernames are unique.
func (d *Directory) Register(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &User{Username: username, PasswordHash: hash}

	if defaultRole, err := d.store.FindRoleByName(ctx, RoleUser); err == nil {
		user.RoleIDs = []string{defaultRole.ID}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if err := d.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and returns a signed session token whose
// permission set is the union of the user's role grants, flattened now.
func (d *Directory) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	user, err := d.store.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	perms, err := d.store.EffectivePermissions(ctx, user.ID)
	if err != nil {
		return "", err
	}
	return IssueToken(user.Username, perms, TokenTTL)
}

func (d *Directory) ListUsers(ctx context.Context) ([]User, error) {
	return d.store.ListUsers(ctx)
}

func (d *Directory) DeleteUser(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return d.store.DeleteUser(ctx, userID)
}

// SetUserRoles replaces the user's role assignments.
func (d *Directory) SetUserRoles(ctx context.Context, userID string, roleIDs []string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return d.store.SetUserRoles(ctx, userID, dedupeStrings(roleIDs))
}

func (d *Directory) CreateRole(ctx context.Context, name, description string, permissionIDs []string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	role := &Role{
		Name:          name,
		Description:   strings.TrimSpace(description),
		PermissionIDs: dedupeStrings(permissionIDs),
	}
	if err := d.store.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (d *Directory) UpdateRole(ctx context.Context, roleID, name, description string, permissionIDs []string) (*Role, error) {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return nil, fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	role := &Role{
		ID:            roleID,
		Name:          name,
		Description:   strings.TrimSpace(description),
		PermissionIDs: dedupeStrings(permissionIDs),
	}
	if err := d.store.UpdateRole(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (d *Directory) DeleteRole(ctx context.Context, roleID string) error {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	return d.store.DeleteRole(ctx, roleID)
}

func (d *Directory) ListRoles(ctx context.Context) ([]Role, error) {
	return d.store.ListRoles(ctx)
}

func (d *Directory) ListPermissions(ctx context.Context) ([]Permission, error) {
	return d.store.ListPermissions(ctx)
}
