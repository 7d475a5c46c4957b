package httpapi

import (
	"encoding/base64"
	"encoding/csv"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/carlomkt/codisec-itca/internal/audit"
	"github.com/carlomkt/codisec-itca/internal/auth"
)

const (
	maxUploadFiles    = 10
	maxUploadFileSize = 10 << 20
)

type uploadedFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

type importRequest struct {
	Data string `json:"data"`
}

type importResponse struct {
	Rows []map[string]string `json:"rows"`
}

// handleITCAUpload stores activity evidence files under the upload directory
// with generated names, keeping the client-supplied name only in the
// response metadata.
func (a *API) handleITCAUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.ensurePermission(w, r, auth.PagePermission("actividades")) {
		return
	}
	if a.uploadDir == "" {
		writeError(w, r, http.StatusServiceUnavailable, "uploads are not configured")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, r, http.StatusBadRequest, "no files submitted")
		return
	}
	if len(files) > maxUploadFiles {
		writeError(w, r, http.StatusBadRequest, "too many files, at most 10 allowed")
		return
	}

	stored := make([]uploadedFile, 0, len(files))
	for _, header := range files {
		if header.Size > maxUploadFileSize {
			writeError(w, r, http.StatusBadRequest, "file exceeds the 10 MiB limit")
			return
		}
		entry, err := a.storeUpload(header)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "storing upload failed")
			return
		}
		stored = append(stored, entry)
	}

	_ = audit.LogEvent(r.Context(), "itca.upload", map[string]any{
		"count": len(stored),
	})
	writeJSON(w, http.StatusOK, stored)
}

func (a *API) storeUpload(header *multipart.FileHeader) (uploadedFile, error) {
	src, err := header.Open()
	if err != nil {
		return uploadedFile{}, err
	}
	defer src.Close()

	id := uuid.NewString()
	name := id + sanitizeExtension(header.Filename)
	dst, err := os.Create(filepath.Join(a.uploadDir, name))
	if err != nil {
		return uploadedFile{}, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return uploadedFile{}, err
	}
	return uploadedFile{
		ID:   id,
		Name: header.Filename,
		URL:  "/uploads/" + name,
		Size: size,
		Type: header.Header.Get("Content-Type"),
	}, nil
}

// sanitizeExtension keeps only a plain extension from the client file name.
func sanitizeExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	for _, r := range ext {
		if r != '.' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// handleITCAImport decodes a base64 CSV payload into header-keyed rows for
// client-side column mapping. Nothing is persisted here.
func (a *API) handleITCAImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.ensurePermission(w, r, auth.PagePermission("actividades")) {
		return
	}

	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := parseCSVPayload(req.Data)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	_ = audit.LogEvent(r.Context(), "itca.import", map[string]any{
		"rows": len(rows),
	})
	writeJSON(w, http.StatusOK, importResponse{Rows: rows})
}

func parseCSVPayload(data string) ([]map[string]string, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, errors.New("data is required")
	}
	// Accept both raw base64 and data-URL payloads.
	if idx := strings.Index(data, "base64,"); idx >= 0 {
		data = data[idx+len("base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.New("data must be base64 encoded")
	}

	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.New("csv payload is empty or malformed")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.New("csv payload is malformed")
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	if rows == nil {
		rows = []map[string]string{}
	}
	return rows, nil
}
