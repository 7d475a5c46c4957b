package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carlomkt/codisec-itca/internal/auth"
)

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("insert into users").
		WithArgs(sqlmock.AnyArg(), "codisecadm", "hash", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})
	mock.ExpectRollback()

	err := store.CreateUser(context.Background(), &auth.User{
		Username:     "codisecadm",
		PasswordHash: "hash",
	})
	if !errors.Is(err, auth.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUserAssignsGeneratedID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("insert into users").
		WithArgs(sqlmock.AnyArg(), "nuevo", "hash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into user_roles").
		WithArgs(sqlmock.AnyArg(), "role-user").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &auth.User{Username: "nuevo", PasswordHash: "hash", RoleIDs: []string{"role-user"}}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated user id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindUserByUsernameNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select id, username, password_hash, created_at").
		WithArgs("desconocido").
		WillReturnError(sql.ErrNoRows)

	_, err := store.FindUserByUsername(context.Background(), "desconocido")
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetUserRolesReplacesAssignments(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select 1 from users").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec("delete from user_roles").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into user_roles").
		WithArgs("u1", "r1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := store.SetUserRoles(context.Background(), "u1", []string{"r1"}); err != nil {
		t.Fatalf("SetUserRoles: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetUserRolesUnknownRole(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select 1 from users").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec("delete from user_roles").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("insert into user_roles").
		WithArgs("u1", "missing").
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})
	mock.ExpectRollback()

	err := store.SetUserRoles(context.Background(), "u1", []string{"missing"})
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteRoleNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("delete from roles").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteRole(context.Background(), "missing"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEffectivePermissionsFlattensRoles(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"name"}).
		AddRow("page:agenda").
		AddRow("page:eventos")
	mock.ExpectQuery("select distinct p.name").
		WithArgs("u1").
		WillReturnRows(rows)

	perms, err := store.EffectivePermissions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	if len(perms) != 2 || perms[0] != "page:agenda" {
		t.Fatalf("unexpected permissions: %v", perms)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
