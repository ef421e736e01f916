package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/CTAG07/nectar/pkg/nectar"
)

// TemplateAPI holds the dependencies for the template API handlers.
type TemplateAPI struct {
	eng    *nectar.Engine
	store  *StatsStore
	logger *slog.Logger
}

// renderRequest is the body accepted by the preview and test endpoints.
// Name selects a template file for preview; Source carries inline template
// text for test. Data becomes the render context.
type renderRequest struct {
	Name   string         `json:"name,omitempty"`
	Source string         `json:"source,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// NewTemplateAPI creates a new instance of the TemplateAPI.
func NewTemplateAPI(eng *nectar.Engine, store *StatsStore, logger *slog.Logger) *TemplateAPI {
	return &TemplateAPI{
		eng:    eng,
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/templates endpoints.
func (t *TemplateAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/templates/refresh", t.handleRefresh)
	mux.HandleFunc("/api/templates/test", t.handleTest)
	mux.HandleFunc("/api/templates/preview", t.handlePreview)
	mux.HandleFunc("/api/templates", t.handleList)
	mux.HandleFunc("/api/templates/", t.handleFile)
}

// handleRefresh drops the partial cache so edited files are re-read.
func (t *TemplateAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	t.eng.ClearPartialCache()
	t.logger.Info("Partial cache cleared via API")
	w.WriteHeader(http.StatusNoContent)
}

// handleList returns the names of all template files under the engine root.
func (t *TemplateAPI) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	names, err := t.eng.ListTemplates()
	if err != nil {
		t.logger.Error("Failed to list templates", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list templates: %v", err))
		return
	}
	if names == nil {
		names = []string{}
	}
	respondWithJSON(w, http.StatusOK, names)
}

// handleTest renders inline template source without saving anything. Parse
// and render problems come back as a 400 with the offset-annotated message.
func (t *TemplateAPI) handleTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if req.Source == "" {
		respondWithError(w, http.StatusBadRequest, "Field 'source' is required")
		return
	}

	out, err := t.eng.RenderAsync(r.Context(), req.Source, req.Data)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Template execution failed: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

// handlePreview renders a template file from the engine root with the
// posted context and records the render in the stats store.
func (t *TemplateAPI) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Field 'name' is required")
		return
	}
	if !strings.HasSuffix(req.Name, nectar.TemplateExt) || strings.ContainsAny(req.Name, "/\\") {
		respondWithError(w, http.StatusBadRequest, "Invalid template name format")
		return
	}

	path := filepath.Join(t.eng.TemplateDir(), req.Name)
	start := time.Now()
	out, err := t.eng.RenderFileAsync(r.Context(), path, req.Data)
	t.store.LogRender(r.Context(), req.Name, time.Since(start), err == nil)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			respondWithError(w, http.StatusNotFound, t.notFoundMessage(req.Name))
			return
		}
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to render preview: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

// notFoundMessage builds a not-found response for name, suggesting the
// closest existing template when one is close enough to be useful.
func (t *TemplateAPI) notFoundMessage(name string) string {
	msg := fmt.Sprintf("Template '%s' not found", name)
	names, err := t.eng.ListTemplates()
	if err != nil || len(names) == 0 {
		return msg
	}
	matches := fuzzy.Find(strings.TrimSuffix(name, nectar.TemplateExt), names)
	if len(matches) == 0 {
		return msg
	}
	return fmt.Sprintf("%s. Did you mean '%s'?", msg, matches[0].Str)
}

// handleFile manages CRUD operations for a single template or partial file.
func (t *TemplateAPI) handleFile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/templates/")
	if name == "" || strings.HasSuffix(name, "/") {
		respondWithError(w, http.StatusNotFound, "Not Found")
		return
	}

	if strings.Contains(name, "..") || (!strings.HasSuffix(name, nectar.TemplateExt) && !strings.HasSuffix(name, nectar.PartialExt)) {
		respondWithError(w, http.StatusBadRequest, "Invalid template name format")
		return
	}

	templateDir := t.eng.TemplateDir()
	if templateDir == "" {
		respondWithError(w, http.StatusInternalServerError, "No template directory configured")
		return
	}

	path := filepath.Join(templateDir, name)
	absPath, err := filepath.Abs(path)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid path")
		return
	}

	if !strings.HasPrefix(absPath, templateDir) {
		respondWithError(w, http.StatusForbidden, "Access denied: Path outside template directory")
		return
	}

	switch r.Method {
	case http.MethodGet:
		content, err := os.ReadFile(path)
		if err != nil {
			respondWithError(w, http.StatusNotFound, "Template not found")
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(content)

	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read request body: %v", err))
			return
		}
		if _, err = nectar.Parse(string(body)); err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Template rejected: %v", err))
			return
		}
		if err = os.WriteFile(path, body, 0644); err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to write template file: %v", err))
			return
		}
		t.eng.ClearPartialCache()
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				respondWithError(w, http.StatusNotFound, "Template not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to delete template file: %v", err))
			return
		}
		t.eng.ClearPartialCache()
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
