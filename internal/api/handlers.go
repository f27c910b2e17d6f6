// Package api exposes HTTP handlers for the dashboard backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"example.com/fitdash/internal/dataset"
	"example.com/fitdash/internal/domain"
	"example.com/fitdash/internal/export"
	"example.com/fitdash/internal/notify"
	"example.com/fitdash/internal/observability"
)

const dateLayout = "2006-01-02"

// DataStore is the slice of the dataset store the handlers need.
type DataStore interface {
	Snapshot() *dataset.Tables
	Reload(ctx context.Context) (*dataset.Tables, error)
}

// Handler coordinates HTTP requests with the query layer.
type Handler struct {
	service   *domain.Service
	store     DataStore
	publisher notify.Publisher
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, store DataStore, publisher notify.Publisher) *Handler {
	return &Handler{service: service, store: store, publisher: publisher}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/cohort/summary", h.cohortSummary)
	mux.HandleFunc("/v1/cohort/distribution", h.cohortDistribution)
	mux.HandleFunc("/v1/cohort/correlation", h.cohortCorrelation)
	mux.HandleFunc("/v1/users", h.listUsers)
	mux.HandleFunc("/v1/users/", h.userByID)
	mux.HandleFunc("/v1/dataset/reload", h.reloadDataset)
	mux.HandleFunc("/v1/dataset/export", h.exportDataset)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) cohortSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	summary, err := h.service.Cohort()
	if err != nil {
		h.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCohortView(summary))
}

func (h *Handler) cohortDistribution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	metric, err := domain.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	values, err := h.service.MetricValues(metric)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DistributionResponse{Metric: string(metric), Values: values})
}

func (h *Handler) cohortCorrelation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	x, err := domain.ParseMetric(r.URL.Query().Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	y, err := domain.ParseMetric(r.URL.Query().Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	pairs, err := h.service.MetricPairs(x, y)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	points := make([]PointView, 0, len(pairs))
	for _, p := range pairs {
		points = append(points, PointView{X: p.X, Y: p.Y})
	}
	writeJSON(w, http.StatusOK, CorrelationResponse{XMetric: string(x), YMetric: string(y), Points: points})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	users, err := h.service.ListUsers()
	if err != nil {
		h.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UsersResponse{Users: users})
}

// userByID dispatches /v1/users/{id}/range and /v1/users/{id}/day.
func (h *Handler) userByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
		return
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "user id must be an integer")
		return
	}

	switch parts[1] {
	case "range":
		h.userRange(w, r, userID)
	case "day":
		h.userDay(w, r, userID)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
	}
}

func (h *Handler) userRange(w http.ResponseWriter, r *http.Request, userID int64) {
	rng, err := h.service.UserDateRange(userID)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RangeResponse{
		UserID:  userID,
		MinDate: rng.Min.Format(dateLayout),
		MaxDate: rng.Max.Format(dateLayout),
	})
}

func (h *Handler) userDay(w http.ResponseWriter, r *http.Request, userID int64) {
	raw := r.URL.Query().Get("date")
	date, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "date must be YYYY-MM-DD")
		return
	}

	slice, err := h.service.UserDaySlice(userID, date)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayView(slice))
}

func (h *Handler) reloadDataset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	tables, err := h.store.Reload(r.Context())
	if err != nil {
		observability.RecordReload("error")
		writeError(w, http.StatusInternalServerError, "reload_failed", err.Error())
		return
	}
	observability.RecordReload("ok")

	event := notify.DatasetReloaded{
		SnapshotID:   tables.SnapshotID,
		LoadedAt:     tables.LoadedAt,
		CombinedRows: len(tables.Combined),
	}
	if err := h.publisher.PublishReload(r.Context(), event); err != nil {
		// The reload itself succeeded; peers just miss the nudge.
		log.Printf("publish reload event: %v", err)
	}

	writeJSON(w, http.StatusOK, ReloadResponse{
		SnapshotID:   tables.SnapshotID,
		LoadedAt:     tables.LoadedAt,
		CombinedRows: len(tables.Combined),
	})
}

func (h *Handler) exportDataset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	combined := h.store.Snapshot().Combined

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="daily_combined.csv"`)
		if err := export.WriteCSV(w, combined); err != nil {
			log.Printf("export csv: %v", err)
		}
	case "parquet":
		// The parquet writer needs a seekable file, so stage to a temp path.
		path := filepath.Join(os.TempDir(), "daily_combined_"+strconv.FormatInt(time.Now().UnixNano(), 10)+".parquet")
		defer os.Remove(path)
		if err := export.WriteParquet(path, combined); err != nil {
			writeError(w, http.StatusInternalServerError, "export_failed", err.Error())
			return
		}
		f, err := os.Open(path)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "export_failed", err.Error())
			return
		}
		defer f.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="daily_combined.parquet"`)
		if _, err := io.Copy(w, f); err != nil {
			log.Printf("export parquet: %v", err)
		}
	default:
		writeError(w, http.StatusBadRequest, "validation_failed", "format must be csv or parquet")
	}
}

// writeQueryError maps query-layer errors onto the wire. NotFound and NoData
// are expected empty states; an integrity violation is a data defect and is
// surfaced with its key context.
func (h *Handler) writeQueryError(w http.ResponseWriter, err error) {
	var integrity *domain.IntegrityError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no rows for requested key")
	case errors.Is(err, domain.ErrNoData):
		writeError(w, http.StatusNotFound, "no_data", "dataset contains no combined rows")
	case errors.As(err, &integrity):
		writeError(w, http.StatusInternalServerError, "integrity_violation", integrity.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
