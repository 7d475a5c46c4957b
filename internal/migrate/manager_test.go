package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSplitStatementsRespectsStringLiterals(t *testing.T) {
	stmts := splitStatements("insert into t (v) values ('a;b'); delete from t;")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "insert into t (v) values ('a;b');" {
		t.Fatalf("unexpected first statement: %q", stmts[0])
	}
}

func TestCollectSQLSortsByName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.up.sql", "0001_a.up.sql", "0001_a.down.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("select 1;"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	files, err := collectSQL(dir, ".up.sql")
	if err != nil {
		t.Fatalf("collectSQL: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 up migrations, got %d", len(files))
	}
	if files[0].base != "0001_a.up.sql" || files[1].base != "0002_b.up.sql" {
		t.Fatalf("unexpected order: %+v", files)
	}
}

func TestCollectSQLMissingDir(t *testing.T) {
	files, err := collectSQL(filepath.Join(t.TempDir(), "nope"), ".sql")
	if err != nil {
		t.Fatalf("expected missing dir to be tolerated, got %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %d", len(files))
	}
}

func TestUpSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "0001_init.up.sql"), []byte("create table x (id int);"), 0o644); err != nil {
		t.Fatalf("write migration: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "0002_more.up.sql"), []byte("create table y (id int);"), 0o644); err != nil {
		t.Fatalf("write migration: %v", err)
	}

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_init.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec("create table y").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec("insert into schema_migrations").
		WithArgs("0002_more.up.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mgr := NewManager(db, dir, "")
	if err := mgr.Up(context.Background()); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
