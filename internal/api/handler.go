package api

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cloudsqlconsole/internal/core"
	"cloudsqlconsole/internal/logger"
	"cloudsqlconsole/internal/service"
)

// Default page size when the caller does not paginate.
const defaultPageLimit = 100

// QueryHandler serves query execution, history, saved queries and CSV
// export.
type QueryHandler struct {
	executor  *service.QueryExecutor
	gate      *service.PermissionGate
	connRepo  core.ConnectionRepository
	history   core.HistoryRepository
	savedRepo core.SavedQueryRepository
}

func NewQueryHandler(executor *service.QueryExecutor, gate *service.PermissionGate,
	connRepo core.ConnectionRepository, history core.HistoryRepository, savedRepo core.SavedQueryRepository) *QueryHandler {
	return &QueryHandler{
		executor:  executor,
		gate:      gate,
		connRepo:  connRepo,
		history:   history,
		savedRepo: savedRepo,
	}
}

func (h *QueryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/query/execute", h.Execute)
	r.Get("/history", h.History)
	r.Get("/history/{id}/result", h.HistoryResult)
	r.Get("/queries", h.ListSavedQueries)
	r.Post("/queries", h.SaveQuery)
	r.Delete("/queries/{id}", h.DeleteSavedQuery)
	r.Post("/export/csv", h.ExportCSV)
}

func (h *QueryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)

	var req struct {
		ConnectionID int64  `json:"connection_id"`
		Query        string `json:"query"`
		Limit        *int   `json:"limit"`
		Offset       *int   `json:"offset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	// Gate before any network I/O: classifier rejections cost nothing.
	if err := h.gate.CheckQuery(user.Role, req.Query); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.connRepo.GetByID(req.ConnectionID)
	if err != nil {
		writeError(w, core.ErrConnectionNotFound)
		return
	}

	page := &service.PageRequest{Limit: defaultPageLimit}
	if req.Limit != nil {
		page.Limit = *req.Limit
	}
	if req.Offset != nil {
		page.Offset = *req.Offset
	}

	result, err := h.executor.Execute(r.Context(), profile, req.Query, page)
	if err != nil {
		writeError(w, err)
		return
	}

	h.recordHistory(profile.ID, req.Query, result)

	writeJSON(w, http.StatusOK, result)
}

// recordHistory persists the executed statement and its result snapshot.
// Best-effort: failures are logged and never surface to the caller.
func (h *QueryHandler) recordHistory(connectionID int64, sqlText string, result *core.ExecutionResult) {
	record := &core.QueryRecord{
		Name:         truncateName(sqlText),
		SQLText:      sqlText,
		ConnectionID: connectionID,
	}
	if err := h.history.CreateRecord(record); err != nil {
		logger.Error.Printf("Failed to record query history: %v", err)
		return
	}
	err := h.history.CreateResult(&core.QueryResultRecord{
		QueryID:    record.ID,
		Rows:       result.Rows,
		Columns:    result.Columns,
		DurationMs: result.DurationMs,
		RowCount:   result.RowCount,
	})
	if err != nil {
		logger.Error.Printf("Failed to record query result: %v", err)
	}
}

func truncateName(sqlText string) string {
	if len(sqlText) > 80 {
		return sqlText[:80]
	}
	return sqlText
}

func (h *QueryHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.history.GetRecent(50)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []core.QueryRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": records})
}

func (h *QueryHandler) HistoryResult(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	result, err := h.history.GetLatestResult(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if result == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *QueryHandler) ListSavedQueries(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	all, err := h.savedRepo.GetAll()
	if err != nil {
		writeError(w, err)
		return
	}

	visible := []core.SavedQuery{}
	for _, sq := range all {
		if h.gate.CanReadSavedQuery(user, &sq) {
			visible = append(visible, sq)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": visible})
}

func (h *QueryHandler) SaveQuery(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)

	var req struct {
		Name    string `json:"name"`
		SQLText string `json:"sql_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SQLText == "" {
		http.Error(w, "name and sql_text are required", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		req.Name = truncateName(req.SQLText)
	}

	sq := &core.SavedQuery{
		Name:       req.Name,
		SQLText:    req.SQLText,
		CreatedBy:  user.ID,
		RoleAtSave: user.Role,
	}
	if err := h.savedRepo.Create(sq); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sq)
}

func (h *QueryHandler) DeleteSavedQuery(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	sq, err := h.savedRepo.GetByID(id)
	if err == sql.ErrNoRows {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if !h.gate.CanDeleteSavedQuery(user, sq) {
		writeError(w, core.ErrInsufficientPermissions(user.Role, "delete saved query"))
		return
	}

	if err := h.savedRepo.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ExportCSV turns a previously fetched result back into a CSV attachment.
func (h *QueryHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Columns []string         `json:"columns"`
		Rows    []map[string]any `json:"rows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Columns) == 0 {
		http.Error(w, "columns and rows are required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="export.csv"`)

	cw := csv.NewWriter(w)
	cw.Write(req.Columns)
	for _, row := range req.Rows {
		record := make([]string, len(req.Columns))
		for i, col := range req.Columns {
			if v, ok := row[col]; ok && v != nil {
				record[i] = fmt.Sprint(v)
			}
		}
		cw.Write(record)
	}
	cw.Flush()
}
