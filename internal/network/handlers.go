package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"

	"github.com/leengari/importq/internal/assistant"
	"github.com/leengari/importq/internal/domain/data"
	domainerrors "github.com/leengari/importq/internal/domain/errors"
	"github.com/leengari/importq/internal/domain/schema"
	"github.com/leengari/importq/internal/engine"
	"github.com/leengari/importq/internal/importer"
)

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

// ImportRequest is the body of POST /v1/tables
type ImportRequest struct {
	TableName string `json:"table_name"`
	Format    string `json:"format"`
	Data      string `json:"data"`
}

// ImportResponse is returned for a successful import
type ImportResponse struct {
	TableID  string          `json:"table_id"`
	RowCount int             `json:"row_count"`
	Columns  []schema.Column `json:"columns"`
	Status   string          `json:"status"`
}

// QueryRequest is the body of POST /v1/query
type QueryRequest struct {
	Query    string `json:"query"`
	Insights bool   `json:"insights"`
}

// QueryResponse is returned for a successful query
type QueryResponse struct {
	Data      []data.Row `json:"data"`
	RowCount  int        `json:"rowCount"`
	Columns   []string   `json:"columns"`
	Truncated bool       `json:"truncated,omitempty"`
	Insights  string     `json:"insights,omitempty"`
	Status    string     `json:"status"`
}

// TablesResponse lists the caller's tables
type TablesResponse struct {
	Tables []*schema.TableMeta `json:"tables"`
	Status string              `json:"status"`
}

// AssistRequest is the body of POST /v1/assist
type AssistRequest struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
	Run     bool   `json:"run"`
}

// AssistResponse carries the assistant's answer. Result and RunError are
// only set when a generated query was run.
type AssistResponse struct {
	Mode     string         `json:"mode"`
	Response string         `json:"response"`
	SQL      string         `json:"sql,omitempty"`
	Result   *QueryResponse `json:"result,omitempty"`
	RunError *ErrorResponse `json:"run_error,omitempty"`
	Status   string         `json:"status"`
}

// ErrorResponse is returned for every failure
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Status string `json:"status"`
}

// Status reports liveness
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	s.rd.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ImportTable handles POST /v1/tables
func (s *Server) ImportTable(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}

	var req ImportRequest
	if !s.decode(w, r, &req) {
		return
	}

	format, err := importer.ParseFormat(req.Format)
	if err != nil {
		s.fail(w, err)
		return
	}

	res, err := s.engine.ImportTable(r.Context(), owner, strings.TrimSpace(req.TableName), format, req.Data)
	if err != nil {
		s.fail(w, err)
		return
	}

	s.rd.JSON(w, http.StatusCreated, ImportResponse{
		TableID:  res.TableID,
		RowCount: res.RowCount,
		Columns:  res.Columns,
		Status:   statusSuccess,
	})
}

// ListTables handles GET /v1/tables
func (s *Server) ListTables(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}

	tables, err := s.engine.ListTables(r.Context(), owner)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.rd.JSON(w, http.StatusOK, TablesResponse{Tables: tables, Status: statusSuccess})
}

// DropTable handles DELETE /v1/tables/{name}
func (s *Server) DropTable(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}

	name := mux.Vars(r)["name"]
	if err := s.engine.DropTable(r.Context(), owner, name); err != nil {
		s.fail(w, err)
		return
	}
	s.rd.JSON(w, http.StatusOK, map[string]string{"status": statusSuccess})
}

// RunQuery handles POST /v1/query
func (s *Server) RunQuery(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}

	var req QueryRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.engine.RunQuery(r.Context(), owner, req.Query, req.Insights)
	if err != nil {
		s.fail(w, err)
		return
	}

	s.rd.JSON(w, http.StatusOK, queryResponse(res))
}

func queryResponse(res *engine.QueryResult) QueryResponse {
	rows := res.Rows
	if rows == nil {
		rows = []data.Row{}
	}
	return QueryResponse{
		Data:      rows,
		RowCount:  res.RowCount,
		Columns:   res.Columns,
		Truncated: res.Truncated,
		Insights:  res.Insights,
		Status:    statusSuccess,
	}
}

// Assist handles POST /v1/assist
func (s *Server) Assist(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}

	var req AssistRequest
	if !s.decode(w, r, &req) {
		return
	}

	mode, err := assistant.ParseMode(req.Mode)
	if err != nil {
		s.fail(w, err)
		return
	}

	res, err := s.engine.Assist(r.Context(), owner, mode, req.Message, req.Run)
	if err != nil {
		s.fail(w, err)
		return
	}

	out := AssistResponse{
		Mode:     string(res.Mode),
		Response: res.Response,
		SQL:      res.SQL,
		Status:   statusSuccess,
	}
	if res.Result != nil {
		q := queryResponse(res.Result)
		out.Result = &q
	}
	if res.RunErr != nil {
		out.RunError = &ErrorResponse{
			Error:  res.RunErr.Error(),
			Code:   domainerrors.Name(res.RunErr),
			Status: statusFailed,
		}
	}
	s.rd.JSON(w, http.StatusOK, out)
}

func (s *Server) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
	if owner == "" {
		s.rd.JSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  fmt.Sprintf("missing %s header", OwnerHeader),
			Code:   "missing_owner",
			Status: statusFailed,
		})
		return "", false
	}
	return owner, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		msg := fmt.Sprintf("invalid request body: %v", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = fmt.Sprintf("request body exceeds %s", humanize.IBytes(uint64(maxBodyBytes)))
		}
		s.rd.JSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Code: "bad_request", Status: statusFailed})
		return false
	}
	return true
}

// fail maps err onto a status code. Internal errors are logged and their
// text is not sent to the caller.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		msg = "internal error"
	}
	s.rd.JSON(w, status, ErrorResponse{
		Error:  msg,
		Code:   domainerrors.Name(err),
		Status: statusFailed,
	})
}

// StatusFor returns the HTTP status matching err's classification
func StatusFor(err error) int {
	var (
		notFound *domainerrors.TableNotFoundError
		dup      *domainerrors.DuplicateTableNameError
		unavail  *domainerrors.AssistantUnavailableError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &dup):
		return http.StatusConflict
	case errors.As(err, &unavail):
		return http.StatusServiceUnavailable
	}

	switch domainerrors.KindOf(err) {
	case domainerrors.KindImport, domainerrors.KindQuery, domainerrors.KindRequest:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
