package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/carlomkt/codisec-itca/internal/auth"
	"github.com/carlomkt/codisec-itca/internal/obs"
	"github.com/carlomkt/codisec-itca/internal/resource"
)

// ReadyProbe checks downstream readiness, typically a DB ping.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options configures the HTTP layer.
type Options struct {
	Directory  *auth.Directory
	Resources  resource.Store
	ReadyProbe ReadyProbe
	UploadDir  string
	Version    string
}

// API is the HTTP layer of the portal backend.
type API struct {
	mux       *http.ServeMux
	directory *auth.Directory
	resources resource.Store
	ready     ReadyProbe
	uploadDir string
	version   string
}

func New(opts Options) *API {
	a := &API{
		mux:       http.NewServeMux(),
		directory: opts.Directory,
		resources: opts.Resources,
		ready:     opts.ReadyProbe,
		uploadDir: opts.UploadDir,
		version:   opts.Version,
	}

	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReady)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.Handle("/api/login", RateLimit(http.HandlerFunc(a.handleLogin), 10, 5))
	a.mux.HandleFunc("/api/register", a.handleRegister)

	a.mux.HandleFunc("/api/eventos", handleCollection(a, eventosCollection(a.resources)))
	a.mux.HandleFunc("/api/distritos", handleCollection(a, distritosCollection(a.resources)))
	a.mux.HandleFunc("/api/responsables", handleCollection(a, responsablesCollection(a.resources)))
	a.mux.HandleFunc("/api/actividadesITCA", handleCollection(a, actividadesCollection(a.resources)))
	a.mux.HandleFunc("/api/oficios", handleCollection(a, oficiosCollection(a.resources)))

	a.mux.HandleFunc("/api/catalog/", a.handleCatalog)

	a.mux.HandleFunc("/api/users", a.handleUsers)
	a.mux.HandleFunc("/api/users/", a.handleUserResource)
	a.mux.HandleFunc("/api/roles", a.handleRoles)
	a.mux.HandleFunc("/api/roles/", a.handleRoleResource)
	a.mux.HandleFunc("/api/permissions", a.handlePermissions)

	a.mux.HandleFunc("/api/itca/upload", a.handleITCAUpload)
	a.mux.HandleFunc("/api/itca/import", a.handleITCAImport)

	a.mux.HandleFunc("/api/oficios/plantillas/", a.handleOficioPlantilla)
	a.mux.HandleFunc("/api/oficios/generar", a.handleOficioGenerar)

	if a.uploadDir != "" {
		a.mux.Handle("/uploads/", http.StripPrefix("/uploads/",
			http.FileServer(http.Dir(a.uploadDir))))
	}

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = Logging(h)
	h = RequestID(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = MaxBodyBytes(h, 120<<20)
	return obs.Instrument(h)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "codisec-api",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 8<<20)
	defer reader.Close()
	// Unknown keys are ignored on purpose: clients decorate records with
	// extra fields and expect the server to drop them, not reject the batch.
	dec := json.NewDecoder(reader)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
