package pg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carlomkt/codisec-itca/internal/resource"
)

var _ resource.Store = (*Store)(nil)

func (s *Store) ListEventos(ctx context.Context) ([]resource.Evento, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, title, start_at, extended_props
		from eventos
		order by start_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []resource.Evento
	for rows.Next() {
		var (
			ev      resource.Evento
			startAt time.Time
			props   []byte
		)
		if err := rows.Scan(&ev.ID, &ev.Title, &startAt, &props); err != nil {
			return nil, err
		}
		ev.Start = startAt.UTC().Format(time.RFC3339)
		if err := json.Unmarshal(props, &ev.Props); err != nil {
			return nil, fmt.Errorf("decode extended_props for %s: %w", ev.ID, err)
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}

// ReplaceEventos atomically substitutes the whole eventos collection:
// delete-all then insert-all inside one transaction. Concurrent readers never
// see the empty intermediate state and a failure rolls back to the prior
// collection.
func (s *Store) ReplaceEventos(ctx context.Context, records []resource.Evento) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from eventos`); err != nil {
		return err
	}
	for _, ev := range records {
		startAt, ok := resource.ParseDate(ev.Start)
		if !ok {
			return fmt.Errorf("invalid start date %q for evento %s", ev.Start, ev.ID)
		}
		props, err := json.Marshal(ev.Props)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			insert into eventos (id, title, start_at, extended_props)
			values ($1, $2, $3, $4)
		`, ev.ID, ev.Title, startAt, props); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListDistritos(ctx context.Context) ([]resource.Distrito, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, nombre, responsable, actividades, estado
		from distritos
		order by nombre
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []resource.Distrito
	for rows.Next() {
		var d resource.Distrito
		if err := rows.Scan(&d.ID, &d.Nombre, &d.Responsable, &d.Actividades, &d.Estado); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *Store) ReplaceDistritos(ctx context.Context, records []resource.Distrito) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from distritos`); err != nil {
		return err
	}
	for _, d := range records {
		if _, err := tx.ExecContext(ctx, `
			insert into distritos (id, nombre, responsable, actividades, estado)
			values ($1, $2, $3, $4, $5)
		`, d.ID, d.Nombre, d.Responsable, d.Actividades, d.Estado); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListResponsables(ctx context.Context) ([]resource.Responsable, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, nombre, cargo, institucion, distrito, telefono, email
		from responsables
		order by nombre
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []resource.Responsable
	for rows.Next() {
		var r resource.Responsable
		if err := rows.Scan(&r.ID, &r.Nombre, &r.Cargo, &r.Institucion, &r.Distrito, &r.Telefono, &r.Email); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *Store) ReplaceResponsables(ctx context.Context, records []resource.Responsable) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from responsables`); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := tx.ExecContext(ctx, `
			insert into responsables (id, nombre, cargo, institucion, distrito, telefono, email)
			values ($1, $2, $3, $4, $5, $6, $7)
		`, r.ID, r.Nombre, r.Cargo, r.Institucion, r.Distrito, r.Telefono, r.Email); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListActividades(ctx context.Context) ([]resource.ActividadITCA, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, linea_estrategica, actividad, responsable, fecha
		from actividades_itca
		order by id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []resource.ActividadITCA
	for rows.Next() {
		var (
			a     resource.ActividadITCA
			fecha time.Time
		)
		if err := rows.Scan(&a.ID, &a.LineaEstrategica, &a.Actividad, &a.Responsable, &fecha); err != nil {
			return nil, err
		}
		a.Fecha = fecha.UTC().Format(time.RFC3339)
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) ReplaceActividades(ctx context.Context, records []resource.ActividadITCA) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from actividades_itca`); err != nil {
		return err
	}
	for _, a := range records {
		fecha, ok := resource.ParseDate(a.Fecha)
		if !ok {
			return fmt.Errorf("invalid fecha %q for actividad %d", a.Fecha, a.ID)
		}
		if _, err := tx.ExecContext(ctx, `
			insert into actividades_itca (id, linea_estrategica, actividad, responsable, fecha)
			values ($1, $2, $3, $4, $5)
		`, a.ID, a.LineaEstrategica, a.Actividad, a.Responsable, fecha); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListOficios(ctx context.Context) ([]resource.Oficio, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, fecha, destinatario, asunto, contenido, estado, tipo
		from oficios
		order by fecha
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []resource.Oficio
	for rows.Next() {
		var (
			o     resource.Oficio
			fecha time.Time
		)
		if err := rows.Scan(&o.ID, &fecha, &o.Destinatario, &o.Asunto, &o.Contenido, &o.Estado, &o.Tipo); err != nil {
			return nil, err
		}
		o.Fecha = fecha.UTC().Format(time.RFC3339)
		result = append(result, o)
	}
	return result, rows.Err()
}

func (s *Store) ReplaceOficios(ctx context.Context, records []resource.Oficio) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from oficios`); err != nil {
		return err
	}
	for _, o := range records {
		fecha, ok := resource.ParseDate(o.Fecha)
		if !ok {
			return fmt.Errorf("invalid fecha %q for oficio %s", o.Fecha, o.ID)
		}
		if _, err := tx.ExecContext(ctx, `
			insert into oficios (id, fecha, destinatario, asunto, contenido, estado, tipo)
			values ($1, $2, $3, $4, $5, $6, $7)
		`, o.ID, fecha, o.Destinatario, o.Asunto, o.Contenido, o.Estado, o.Tipo); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListCatalog(ctx context.Context, catalogType string) ([]resource.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		select value, active, ord
		from catalog_items
		where catalog_type = $1 and active
		order by ord, seq
	`, catalogType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []resource.CatalogItem
	for rows.Next() {
		var (
			item   resource.CatalogItem
			active bool
		)
		if err := rows.Scan(&item.Value, &active, &item.Order); err != nil {
			return nil, err
		}
		item.Active = &active
		result = append(result, item)
	}
	return result, rows.Err()
}

// ReplaceCatalog narrows the delete+insert to rows of the given catalog
// type; other catalogs are untouched by the transaction.
func (s *Store) ReplaceCatalog(ctx context.Context, catalogType string, items []resource.CatalogItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from catalog_items where catalog_type = $1`, catalogType); err != nil {
		return err
	}
	// seq records the submission position so items sharing an ord value
	// come back in the order the batch supplied them.
	for seq, item := range items {
		if _, err := tx.ExecContext(ctx, `
			insert into catalog_items (catalog_type, value, active, ord, seq)
			values ($1, $2, $3, $4, $5)
		`, catalogType, item.Value, item.IsActive(), item.Order, seq); err != nil {
			return err
		}
	}
	return tx.Commit()
}
