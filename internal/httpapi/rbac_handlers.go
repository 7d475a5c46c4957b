package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/carlomkt/codisec-itca/internal/audit"
	"github.com/carlomkt/codisec-itca/internal/auth"
)

type roleRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	PermissionIDs []string `json:"permissionIds"`
}

type setUserRolesRequest struct {
	RoleIDs []string `json:"roleIds"`
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensurePermission(w, r, auth.PagePermission("users")) {
		return
	}
	users, err := a.directory.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "listing failed")
		return
	}
	if users == nil {
		users = []auth.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/users/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if !a.ensurePermission(w, r, auth.PagePermission("users")) {
		return
	}

	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		userID := parts[0]
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		if err := a.directory.DeleteUser(r.Context(), userID); err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rbac.user.delete", map[string]any{
			"user_id": userID,
		})
		w.WriteHeader(http.StatusNoContent)
	case len(parts) == 2 && parts[1] == "roles":
		userID := parts[0]
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		var req setUserRolesRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.directory.SetUserRoles(r.Context(), userID, req.RoleIDs); err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rbac.user.set_roles", map[string]any{
			"user_id": userID,
			"count":   len(req.RoleIDs),
		})
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	if !a.ensurePermission(w, r, auth.PagePermission("users")) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		roles, err := a.directory.ListRoles(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "listing failed")
			return
		}
		if roles == nil {
			roles = []auth.Role{}
		}
		writeJSON(w, http.StatusOK, roles)
	case http.MethodPost:
		var req roleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		role, err := a.directory.CreateRole(r.Context(), req.Name, req.Description, req.PermissionIDs)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rbac.role.create", map[string]any{
			"role_id": role.ID,
			"name":    role.Name,
		})
		writeJSON(w, http.StatusCreated, role)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleRoleResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/roles/"), "/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if !a.ensurePermission(w, r, auth.PagePermission("users")) {
		return
	}
	roleID := path

	switch r.Method {
	case http.MethodPut:
		var req roleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		role, err := a.directory.UpdateRole(r.Context(), roleID, req.Name, req.Description, req.PermissionIDs)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rbac.role.update", map[string]any{
			"role_id": roleID,
		})
		writeJSON(w, http.StatusOK, role)
	case http.MethodDelete:
		if err := a.directory.DeleteRole(r.Context(), roleID); err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rbac.role.delete", map[string]any{
			"role_id": roleID,
		})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handlePermissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensurePermission(w, r, auth.PagePermission("users")) {
		return
	}
	perms, err := a.directory.ListPermissions(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "listing failed")
		return
	}
	if perms == nil {
		perms = []auth.Permission{}
	}
	writeJSON(w, http.StatusOK, perms)
}

func handleDirectoryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "directory operation failed")
	}
}
