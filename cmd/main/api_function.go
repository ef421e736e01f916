package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CTAG07/nectar/pkg/nectar"
)

// FunctionAPI exposes the engine's function registry over HTTP.
type FunctionAPI struct {
	eng    *nectar.Engine
	logger *slog.Logger
}

// FunctionInfo describes one registered template function.
type FunctionInfo struct {
	Name    string `json:"name"`
	Builtin bool   `json:"builtin"`
	Async   bool   `json:"async"`
}

func NewFunctionAPI(eng *nectar.Engine, logger *slog.Logger) *FunctionAPI {
	return &FunctionAPI{
		eng:    eng,
		logger: logger,
	}
}

func (f *FunctionAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/functions", f.handleList)
	mux.HandleFunc("/api/functions/clear", f.handleClear)
	mux.HandleFunc("/api/functions/", f.handleFunction)
}

func (f *FunctionAPI) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	names := f.eng.RegisteredFunctions()
	infos := make([]FunctionInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, FunctionInfo{
			Name:    name,
			Builtin: f.eng.IsBuiltinFunction(name),
			Async:   f.eng.HasAsyncFunction(name),
		})
	}
	respondWithJSON(w, http.StatusOK, infos)
}

// handleClear drops every custom function, restoring the builtin set.
func (f *FunctionAPI) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	f.eng.ClearCustomFunctions()
	f.logger.Info("Custom functions cleared via API")
	w.WriteHeader(http.StatusNoContent)
}

func (f *FunctionAPI) handleFunction(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/functions/")
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "Function name is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !f.eng.HasFunction(name) && !f.eng.HasAsyncFunction(name) {
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("Function not found: %s", name))
			return
		}
		respondWithJSON(w, http.StatusOK, FunctionInfo{
			Name:    name,
			Builtin: f.eng.IsBuiltinFunction(name),
			Async:   f.eng.HasAsyncFunction(name),
		})
	case http.MethodDelete:
		if !f.eng.UnregisterFunction(name) {
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("Function not found: %s", name))
			return
		}
		f.logger.Info("Function unregistered via API", "name", name)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
