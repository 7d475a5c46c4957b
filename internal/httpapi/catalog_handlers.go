package httpapi

import (
	"net/http"
	"strings"

	"github.com/carlomkt/codisec-itca/internal/audit"
	"github.com/carlomkt/codisec-itca/internal/auth"
	"github.com/carlomkt/codisec-itca/internal/resource"
)

// handleCatalog serves GET and POST for /api/catalog/{type}. Reads need a
// valid session since every page renders catalog dropdowns; writes need the
// configuration page permission.
func (a *API) handleCatalog(w http.ResponseWriter, r *http.Request) {
	catalogType := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/catalog/"), "/")
	if catalogType == "" || strings.Contains(catalogType, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if !resource.ValidCatalogType(catalogType) {
		writeError(w, r, http.StatusNotFound, "unknown catalog type")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !a.ensureAuthenticated(w, r) {
			return
		}
		items, err := a.resources.ListCatalog(r.Context(), catalogType)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "listing failed")
			return
		}
		if items == nil {
			items = []resource.CatalogItem{}
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		if !a.ensurePermission(w, r, auth.PagePermission("config/catalog")) {
			return
		}
		var items []resource.CatalogItem
		if err := decodeJSON(w, r, &items); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		idOf := func(c resource.CatalogItem) string { return c.Value }
		if err := resource.ValidateBatch(items, idOf); err != nil {
			writeValidationError(w, r, err)
			return
		}
		if err := a.resources.ReplaceCatalog(r.Context(), catalogType, items); err != nil {
			writeError(w, r, http.StatusInternalServerError, "replace failed")
			return
		}
		_ = audit.LogEvent(r.Context(), "catalog.replace", map[string]any{
			"catalog": catalogType,
			"count":   len(items),
		})
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}
