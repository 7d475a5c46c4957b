package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carlomkt/codisec-itca/internal/auth"
	"github.com/carlomkt/codisec-itca/internal/ids"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

var _ auth.Store = (*Store)(nil)

func (s *Store) CreateUser(ctx context.Context, user *auth.User) error {
	if user.ID == "" {
		user.ID = ids.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into users (id, username, password_hash, created_at)
		values ($1, $2, $3, $4)
	`, user.ID, user.Username, user.PasswordHash, user.CreatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrAlreadyExists
		}
		return err
	}
	for _, roleID := range user.RoleIDs {
		if _, err := tx.ExecContext(ctx, `
			insert into user_roles (user_id, role_id) values ($1, $2)
		`, user.ID, roleID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	var user auth.User
	err := s.db.QueryRowContext(ctx, `
		select id, username, password_hash, created_at
		from users
		where username = $1
	`, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.RoleIDs, err = s.userRoleIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]auth.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, username, password_hash, created_at
		from users
		order by username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.User
	for rows.Next() {
		var user auth.User
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		result[i].RoleIDs, err = s.userRoleIDs(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Store) SetUserRoles(ctx context.Context, userID string, roleIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `select 1 from users where id = $1`, userID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.ErrNotFound
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from user_roles where user_id = $1`, userID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := tx.ExecContext(ctx, `
			insert into user_roles (user_id, role_id) values ($1, $2)
		`, userID, roleID); err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
				return auth.ErrNotFound
			}
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) CreateRole(ctx context.Context, role *auth.Role) error {
	if role.ID == "" {
		role.ID = ids.New()
	}
	if role.CreatedAt.IsZero() {
		role.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into roles (id, name, description, created_at)
		values ($1, $2, $3, $4)
	`, role.ID, role.Name, role.Description, role.CreatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrAlreadyExists
		}
		return err
	}
	for _, permID := range role.PermissionIDs {
		if _, err := tx.ExecContext(ctx, `
			insert into role_permissions (role_id, permission_id) values ($1, $2)
		`, role.ID, permID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) UpdateRole(ctx context.Context, role *auth.Role) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		update roles set name = $2, description = $3 where id = $1
	`, role.ID, role.Name, role.Description)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrAlreadyExists
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return auth.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `delete from role_permissions where role_id = $1`, role.ID); err != nil {
		return err
	}
	for _, permID := range role.PermissionIDs {
		if _, err := tx.ExecContext(ctx, `
			insert into role_permissions (role_id, permission_id) values ($1, $2)
		`, role.ID, permID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) DeleteRole(ctx context.Context, roleID string) error {
	res, err := s.db.ExecContext(ctx, `delete from roles where id = $1`, roleID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context) ([]auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, description, created_at
		from roles
		order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.Role
	for rows.Next() {
		var role auth.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		result[i].PermissionIDs, err = s.rolePermissionIDs(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Store) FindRoleByName(ctx context.Context, name string) (*auth.Role, error) {
	var role auth.Role
	err := s.db.QueryRowContext(ctx, `
		select id, name, description, created_at
		from roles
		where name = $1
	`, name).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	role.PermissionIDs, err = s.rolePermissionIDs(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *Store) EnsurePermissions(ctx context.Context, perms []auth.Permission) error {
	for _, perm := range perms {
		id := perm.ID
		if id == "" {
			id = ids.New()
		}
		if _, err := s.db.ExecContext(ctx, `
			insert into permissions (id, name, description)
			values ($1, $2, $3)
			on conflict (name) do nothing
		`, id, perm.Name, perm.Description); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, description
		from permissions
		order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.Permission
	for rows.Next() {
		var perm auth.Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description); err != nil {
			return nil, err
		}
		result = append(result, perm)
	}
	return result, rows.Err()
}

// EffectivePermissions flattens the union of permission names across every
// role assigned to the user.
func (s *Store) EffectivePermissions(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select distinct p.name
		from user_roles ur
		join role_permissions rp on rp.role_id = ur.role_id
		join permissions p on p.id = rp.permission_id
		where ur.user_id = $1
		order by p.name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		result = append(result, name)
	}
	return result, rows.Err()
}

func (s *Store) userRoleIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select role_id from user_roles where user_id = $1 order by role_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

func (s *Store) rolePermissionIDs(ctx context.Context, roleID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select permission_id from role_permissions where role_id = $1 order by permission_id
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
