package httpapi

import (
	"errors"
	"net/http"

	"github.com/carlomkt/codisec-itca/internal/audit"
	"github.com/carlomkt/codisec-itca/internal/auth"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type registerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, err := a.directory.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"username": req.Username,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.ensureAuthenticated(w, r) {
		return
	}
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.directory.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAlreadyExists):
			writeError(w, r, http.StatusBadRequest, "username already taken")
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"username": user.Username,
	})
	writeJSON(w, http.StatusCreated, registerResponse{ID: user.ID, Username: user.Username})
}
