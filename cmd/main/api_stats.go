package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
)

const statsSchema = `
CREATE TABLE IF NOT EXISTS stats_render (
    template_name     TEXT PRIMARY KEY,
    render_count      INTEGER NOT NULL DEFAULT 1,
    error_count       INTEGER NOT NULL DEFAULT 0,
    total_duration_us INTEGER NOT NULL DEFAULT 0,
    first_rendered    DATETIME NOT NULL,
    last_rendered     DATETIME NOT NULL
);
`

// RenderSummary provides a high-level overview of all recorded renders.
type RenderSummary struct {
	TotalRenders  int64 `json:"total_renders"`
	TotalErrors   int64 `json:"total_errors"`
	UniqueNames   int64 `json:"unique_templates"`
	TotalDuration int64 `json:"total_duration_us"`
}

// StatsStore records per-template render counts and timings.
type StatsStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func setupStatsSchema(db *sql.DB) error {
	_, err := db.Exec(statsSchema)
	return err
}

func NewStatsStore(db *sql.DB, logger *slog.Logger) *StatsStore {
	return &StatsStore{
		db:     db,
		logger: logger,
	}
}

// LogRender records one render of the named template. Accounting failures
// are logged rather than returned, so a broken stats database never takes
// the render path down with it.
func (s *StatsStore) LogRender(ctx context.Context, name string, d time.Duration, ok bool) {
	now := time.Now()
	errs := 0
	if !ok {
		errs = 1
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO stats_render (template_name, error_count, total_duration_us, first_rendered, last_rendered)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(template_name) DO UPDATE SET
            render_count = render_count + 1,
            error_count = error_count + ?,
            total_duration_us = total_duration_us + ?,
            last_rendered = ?
    `, name, errs, d.Microseconds(), now, now, errs, d.Microseconds(), now)
	if err != nil {
		s.logger.Warn("Failed to record render stats", "template", name, "error", err)
	}
}

// Summary aggregates every row into one report.
func (s *StatsStore) Summary(ctx context.Context) (*RenderSummary, error) {
	var summary RenderSummary
	err := s.db.QueryRowContext(ctx, `
        SELECT COALESCE(SUM(render_count), 0),
               COALESCE(SUM(error_count), 0),
               COUNT(*),
               COALESCE(SUM(total_duration_us), 0)
        FROM stats_render
    `).Scan(&summary.TotalRenders, &summary.TotalErrors, &summary.UniqueNames, &summary.TotalDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate render stats: %w", err)
	}
	return &summary, nil
}

// TopTemplates returns the most-rendered templates, busiest first.
func (s *StatsStore) TopTemplates(ctx context.Context, limit int) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT template_name, render_count, error_count, total_duration_us, last_rendered
        FROM stats_render ORDER BY render_count DESC LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query render stats: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var results []map[string]any
	for rows.Next() {
		var name string
		var renders, errCount, durUS int64
		var last time.Time
		if err = rows.Scan(&name, &renders, &errCount, &durUS, &last); err != nil {
			s.logger.Error("Failed to scan render stats row", "error", err)
			continue
		}
		results = append(results, map[string]any{
			"template_name":     name,
			"render_count":      renders,
			"error_count":       errCount,
			"total_duration_us": durUS,
			"last_rendered":     last,
			"last_rendered_ago": humanize.Time(last),
		})
	}
	return results, rows.Err()
}

// Reset deletes every recorded row.
func (s *StatsStore) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM stats_render")
	return err
}

// StatsAPI holds the dependencies for the statistics handlers.
type StatsAPI struct {
	store  *StatsStore
	logger *slog.Logger
}

func NewStatsAPI(store *StatsStore, logger *slog.Logger) *StatsAPI {
	return &StatsAPI{
		store:  store,
		logger: logger,
	}
}

func (s *StatsAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stats/summary", s.handleSummary)
	mux.HandleFunc("/api/stats/top_templates", s.handleTopTemplates)
	mux.HandleFunc("/api/stats/reset", s.handleReset)
}

func (s *StatsAPI) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	summary, err := s.store.Summary(r.Context())
	if err != nil {
		s.logger.Error("Failed to build stats summary", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (s *StatsAPI) handleTopTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	results, err := s.store.TopTemplates(r.Context(), 100)
	if err != nil {
		s.logger.Error("Failed to query top templates", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	if results == nil {
		results = []map[string]any{}
	}
	respondWithJSON(w, http.StatusOK, results)
}

func (s *StatsAPI) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err := s.store.Reset(r.Context()); err != nil {
		s.logger.Error("Failed to reset stats", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	s.logger.Info("Render statistics reset via API")
	w.WriteHeader(http.StatusNoContent)
}
