package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/carlomkt/codisec-itca/internal/audit"
	"github.com/carlomkt/codisec-itca/internal/auth"
	"github.com/carlomkt/codisec-itca/internal/oficio"
)

type generateOficioRequest struct {
	Tipo   string            `json:"tipo"`
	Campos map[string]string `json:"campos"`
}

type generateOficioResponse struct {
	Asunto    string `json:"asunto"`
	Contenido string `json:"contenido"`
}

func (a *API) handleOficioPlantilla(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensurePermission(w, r, auth.PagePermission("oficios")) {
		return
	}
	tipo := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/oficios/plantillas/"), "/")
	if tipo == "" || strings.Contains(tipo, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	tpl, err := oficio.Lookup(tipo)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "unknown template")
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (a *API) handleOficioGenerar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.ensurePermission(w, r, auth.PagePermission("oficios")) {
		return
	}
	var req generateOficioRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	asunto, contenido, err := oficio.RenderTemplate(req.Tipo, req.Campos)
	if err != nil {
		if errors.Is(err, oficio.ErrUnknownTipo) {
			writeError(w, r, http.StatusBadRequest, "unknown template tipo")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "template rendering failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "oficio.generate", map[string]any{
		"tipo": req.Tipo,
	})
	writeJSON(w, http.StatusOK, generateOficioResponse{
		Asunto:    asunto,
		Contenido: contenido,
	})
}
