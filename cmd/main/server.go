package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/CTAG07/nectar/pkg/nectar"
)

// Server bundles the engine, the stats store and the API handlers behind
// one mux.
type Server struct {
	config      *Config
	configPath  string
	db          *sql.DB
	logger      *slog.Logger
	eng         *nectar.Engine
	store       *StatsStore
	templateAPI *TemplateAPI
	functionAPI *FunctionAPI
	statsAPI    *StatsAPI
	serverAPI   *ServerAPI
	mux         *http.ServeMux
}

func NewServer(config *Config, configPath string, logger *slog.Logger, db *sql.DB, actionChan chan string) (*Server, error) {

	// engine initialization
	eng, err := nectar.New(logger, config.Engine, config.Server.TemplateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create template engine: %w", err)
	}

	store := NewStatsStore(db, logger)

	// api initialization
	templateAPI := NewTemplateAPI(eng, store, logger)
	functionAPI := NewFunctionAPI(eng, logger)
	statsAPI := NewStatsAPI(store, logger)
	serverAPI := NewServerAPI(config, configPath, actionChan, eng, logger)

	// create object, register routes to the mux, and return it
	server := &Server{
		config:      config,
		configPath:  configPath,
		db:          db,
		logger:      logger,
		eng:         eng,
		store:       store,
		templateAPI: templateAPI,
		functionAPI: functionAPI,
		statsAPI:    statsAPI,
		serverAPI:   serverAPI,
		mux:         http.NewServeMux(),
	}

	server.templateAPI.RegisterRoutes(server.mux)
	server.functionAPI.RegisterRoutes(server.mux)
	server.statsAPI.RegisterRoutes(server.mux)
	server.serverAPI.RegisterRoutes(server.mux)

	// The health check stays unauthenticated and unversioned so something
	// like docker can use it.
	server.mux.HandleFunc("/api/health", server.serverAPI.handleHealth)

	return server, nil
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		err := json.NewEncoder(w).Encode(payload)
		if err != nil {
			fmt.Printf("ERROR: Failed to encode JSON response: %v\n", err)
		}
	}
}
