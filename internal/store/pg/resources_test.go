package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/carlomkt/codisec-itca/internal/resource"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), mock
}

func TestReplaceDistritosDeleteThenInsert(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("delete from distritos").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("insert into distritos").
		WithArgs("d1", "Chilca", "J. Perez", "", "Activo").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into distritos").
		WithArgs("d2", "Huancan", "M. Rojas", "", "Activo").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.ReplaceDistritos(context.Background(), []resource.Distrito{
		{ID: "d1", Nombre: "Chilca", Responsable: "J. Perez", Estado: "Activo"},
		{ID: "d2", Nombre: "Huancan", Responsable: "M. Rojas", Estado: "Activo"},
	})
	if err != nil {
		t.Fatalf("ReplaceDistritos: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceDistritosRollsBackOnInsertFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("delete from distritos").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("insert into distritos").
		WithArgs("d1", "Chilca", "J. Perez", "", "Activo").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.ReplaceDistritos(context.Background(), []resource.Distrito{
		{ID: "d1", Nombre: "Chilca", Responsable: "J. Perez", Estado: "Activo"},
	})
	if err == nil {
		t.Fatalf("expected insert failure to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceEventosRejectsBadDateBeforeWriting(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("delete from eventos").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.ReplaceEventos(context.Background(), []resource.Evento{
		{ID: "e1", Title: "Sesión", Start: "mañana"},
	})
	if err == nil {
		t.Fatalf("expected invalid date error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListEventosDecodesProps(t *testing.T) {
	store, mock := newMockStore(t)

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "title", "start_at", "extended_props"}).
		AddRow("e1", "Sesión ordinaria", start, []byte(`{"tema":"Patrullaje","estado":"Confirmado","duracion":90}`))
	mock.ExpectQuery("select id, title, start_at, extended_props").WillReturnRows(rows)

	eventos, err := store.ListEventos(context.Background())
	if err != nil {
		t.Fatalf("ListEventos: %v", err)
	}
	if len(eventos) != 1 {
		t.Fatalf("expected 1 evento, got %d", len(eventos))
	}
	got := eventos[0]
	if got.Start != "2025-03-10T09:00:00Z" {
		t.Fatalf("unexpected start %q", got.Start)
	}
	if got.Props.Tema != "Patrullaje" || got.Props.Duracion != 90 {
		t.Fatalf("props not decoded: %+v", got.Props)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceCatalogScopesDeleteByType(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("delete from catalog_items where catalog_type").
		WithArgs("estados").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("insert into catalog_items").
		WithArgs("estados", "Confirmado", true, 0, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into catalog_items").
		WithArgs("estados", "Cancelado", false, 1, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	inactive := false
	err := store.ReplaceCatalog(context.Background(), "estados", []resource.CatalogItem{
		{Value: "Confirmado"},
		{Value: "Cancelado", Active: &inactive, Order: 1},
	})
	if err != nil {
		t.Fatalf("ReplaceCatalog: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListCatalogFiltersActive(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"value", "active", "ord"}).
		AddRow("Confirmado", true, 0).
		AddRow("Pendiente", true, 1)
	mock.ExpectQuery("select value, active, ord").
		WithArgs("estados").
		WillReturnRows(rows)

	items, err := store.ListCatalog(context.Background(), "estados")
	if err != nil {
		t.Fatalf("ListCatalog: %v", err)
	}
	if len(items) != 2 || items[0].Value != "Confirmado" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCatalogKeepsSubmissionOrderOnEqualOrd(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("delete from catalog_items where catalog_type").
		WithArgs("estados").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("insert into catalog_items").
		WithArgs("estados", "Confirmado", true, 0, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into catalog_items").
		WithArgs("estados", "Pendiente", true, 0, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.ReplaceCatalog(context.Background(), "estados", []resource.CatalogItem{
		{Value: "Confirmado"},
		{Value: "Pendiente"},
	})
	if err != nil {
		t.Fatalf("ReplaceCatalog: %v", err)
	}

	rows := sqlmock.NewRows([]string{"value", "active", "ord"}).
		AddRow("Confirmado", true, 0).
		AddRow("Pendiente", true, 0)
	mock.ExpectQuery("order by ord, seq").
		WithArgs("estados").
		WillReturnRows(rows)

	items, err := store.ListCatalog(context.Background(), "estados")
	if err != nil {
		t.Fatalf("ListCatalog: %v", err)
	}
	if len(items) != 2 || items[0].Value != "Confirmado" || items[1].Value != "Pendiente" {
		t.Fatalf("submission order not preserved: %+v", items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
