package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/carlomkt/codisec-itca/internal/audit"
	"github.com/carlomkt/codisec-itca/internal/resource"
)

// collection binds one synchronized resource kind to its store operations.
type collection[T any] struct {
	kind    resource.Kind
	list    func(context.Context) ([]T, error)
	replace func(context.Context, []T) error
	idOf    func(T) string
}

// handleCollection serves GET (full listing) and POST (batch replace) for a
// resource kind. Both directions require the kind's page permission.
func handleCollection[T any](a *API, c collection[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if !a.ensurePermission(w, r, c.kind.Permission()) {
				return
			}
			items, err := c.list(r.Context())
			if err != nil {
				writeError(w, r, http.StatusInternalServerError, "listing failed")
				return
			}
			if items == nil {
				items = []T{}
			}
			writeJSON(w, http.StatusOK, items)
		case http.MethodPost:
			if !a.ensurePermission(w, r, c.kind.Permission()) {
				return
			}
			var records []T
			if err := decodeJSON(w, r, &records); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			if err := resource.ValidateBatch(records, c.idOf); err != nil {
				writeValidationError(w, r, err)
				return
			}
			if err := c.replace(r.Context(), records); err != nil {
				writeError(w, r, http.StatusInternalServerError, "replace failed")
				return
			}
			_ = audit.LogEvent(r.Context(), "resource.replace", map[string]any{
				"kind":  string(c.kind),
				"count": len(records),
			})
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	}
}

// writeValidationError renders batch validation failures with per-field
// issues so the client can highlight offending records.
func writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *resource.ValidationError
	if errors.As(err, &verr) {
		payload := map[string]any{
			"error":  "validation failed",
			"issues": verr.Issues,
		}
		if rid := RequestIDFromContext(r.Context()); rid != "" {
			payload["request_id"] = rid
		}
		writeJSON(w, http.StatusBadRequest, payload)
		return
	}
	writeError(w, r, http.StatusBadRequest, err.Error())
}

func eventosCollection(store resource.Store) collection[resource.Evento] {
	return collection[resource.Evento]{
		kind:    resource.KindEventos,
		list:    store.ListEventos,
		replace: store.ReplaceEventos,
		idOf:    func(e resource.Evento) string { return e.ID },
	}
}

func distritosCollection(store resource.Store) collection[resource.Distrito] {
	return collection[resource.Distrito]{
		kind:    resource.KindDistritos,
		list:    store.ListDistritos,
		replace: store.ReplaceDistritos,
		idOf:    func(d resource.Distrito) string { return d.ID },
	}
}

func responsablesCollection(store resource.Store) collection[resource.Responsable] {
	return collection[resource.Responsable]{
		kind:    resource.KindResponsables,
		list:    store.ListResponsables,
		replace: store.ReplaceResponsables,
		idOf:    func(p resource.Responsable) string { return p.ID },
	}
}

func actividadesCollection(store resource.Store) collection[resource.ActividadITCA] {
	return collection[resource.ActividadITCA]{
		kind:    resource.KindActividadesITCA,
		list:    store.ListActividades,
		replace: store.ReplaceActividades,
		idOf:    func(a resource.ActividadITCA) string { return strconv.Itoa(a.ID) },
	}
}

func oficiosCollection(store resource.Store) collection[resource.Oficio] {
	return collection[resource.Oficio]{
		kind:    resource.KindOficios,
		list:    store.ListOficios,
		replace: store.ReplaceOficios,
		idOf:    func(o resource.Oficio) string { return o.ID },
	}
}
