package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/importq/internal/domain/data"
	domainerrors "github.com/leengari/importq/internal/domain/errors"
	"github.com/leengari/importq/internal/engine"
	"github.com/leengari/importq/internal/insights"
	"github.com/leengari/importq/internal/metrics"
	"github.com/leengari/importq/internal/store"
)

type fakeSummarizer struct{}

func (fakeSummarizer) Summarize(ctx context.Context, query string, rows []data.Row) (string, error) {
	return "looks fine", nil
}

type fakeGenerator struct{}

func (fakeGenerator) Generate(ctx context.Context, prompt insights.Prompt) (string, error) {
	if strings.Contains(prompt.User, "broken") {
		return "SELECT * FROM T WHERE id > 1", nil
	}
	return "```sql\nSELECT id FROM T\n```", nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	eng := engine.New(store.NewMemory(), engine.Options{
		Summarizer: fakeSummarizer{},
		Generator:  fakeGenerator{},
		Logger:     logger,
	})
	eng.AddObserver(engine.NewMetricsObserver(m))

	ts := httptest.NewServer(NewServer(eng, m.Registry, logger).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, owner string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestImportAndQuery(t *testing.T) {
	ts := newTestServer(t)

	resp, out := do(t, "POST", ts.URL+"/v1/tables", "U", ImportRequest{
		TableName: "T", Format: "csv", Data: "id,name\n1,a\n2,b",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, out)
	assert.Equal(t, "success", out["status"])
	assert.EqualValues(t, 2, out["row_count"])
	assert.NotEmpty(t, out["table_id"])

	resp, out = do(t, "POST", ts.URL+"/v1/query", "U", QueryRequest{Query: "SELECT * FROM T WHERE id = 2", Insights: true})
	require.Equal(t, http.StatusOK, resp.StatusCode, out)
	assert.Equal(t, "success", out["status"])
	assert.EqualValues(t, 1, out["rowCount"])
	assert.Equal(t, []interface{}{map[string]interface{}{"id": float64(2), "name": "b"}}, out["data"])
	assert.Equal(t, "looks fine", out["insights"])

	resp, out = do(t, "POST", ts.URL+"/v1/query", "U", QueryRequest{Query: "SELECT * FROM T WHERE id = 9"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{}, out["data"])
	assert.Nil(t, out["insights"])
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := do(t, "POST", ts.URL+"/v1/tables", "U", ImportRequest{TableName: "T", Format: "sql",
		Data: "INSERT INTO T (id) VALUES (1);"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tests := []struct {
		name   string
		method string
		path   string
		owner  string
		body   interface{}
		status int
		code   string
	}{
		{"missing owner", "POST", "/v1/query", "", QueryRequest{Query: "SELECT * FROM T"}, http.StatusBadRequest, "missing_owner"},
		{"not found", "POST", "/v1/query", "U", QueryRequest{Query: "SELECT * FROM Missing"}, http.StatusNotFound, "table_not_found"},
		{"other owner", "POST", "/v1/query", "U2", QueryRequest{Query: "SELECT * FROM T"}, http.StatusNotFound, "table_not_found"},
		{"unparsable", "POST", "/v1/query", "U", QueryRequest{Query: "SELEC * FROM T"}, http.StatusBadRequest, "unparsable_query"},
		{"unsupported", "POST", "/v1/query", "U", QueryRequest{Query: "SELECT * FROM T WHERE id = 1 OR id = 2"}, http.StatusBadRequest, "unsupported_predicate"},
		{"duplicate", "POST", "/v1/tables", "U", ImportRequest{TableName: "T", Format: "csv", Data: "id\n1"}, http.StatusConflict, "duplicate_table_name"},
		{"empty", "POST", "/v1/tables", "U", ImportRequest{TableName: "E", Format: "csv", Data: ""}, http.StatusBadRequest, "empty_input"},
		{"bad format", "POST", "/v1/tables", "U", ImportRequest{TableName: "E", Format: "xlsx", Data: "x"}, http.StatusBadRequest, "invalid_format"},
		{"drop missing", "DELETE", "/v1/tables/nope", "U", nil, http.StatusNotFound, "table_not_found"},
		{"dot-dot owner", "POST", "/v1/tables", "..", ImportRequest{TableName: "E", Format: "csv", Data: "id\n1"}, http.StatusBadRequest, "invalid_owner"},
		{"dot owner", "POST", "/v1/query", ".", QueryRequest{Query: "SELECT * FROM T"}, http.StatusBadRequest, "invalid_owner"},
		{"separator owner", "GET", "/v1/tables", "../U", nil, http.StatusBadRequest, "invalid_owner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := do(t, tt.method, ts.URL+tt.path, tt.owner, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, out)
			assert.Equal(t, "failed", out["status"])
			assert.Equal(t, tt.code, out["code"])
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest("POST", ts.URL+"/v1/query", strings.NewReader("{not json"))
	require.NoError(t, err)
	req.Header.Set(OwnerHeader, "U")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListAndDropTables(t *testing.T) {
	ts := newTestServer(t)

	for _, name := range []string{"b_table", "a_table"} {
		resp, _ := do(t, "POST", ts.URL+"/v1/tables", "U", ImportRequest{TableName: name, Format: "csv", Data: "x\n1"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, out := do(t, "GET", ts.URL+"/v1/tables", "U", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tables := out["tables"].([]interface{})
	require.Len(t, tables, 2)
	assert.Equal(t, "a_table", tables[0].(map[string]interface{})["table_name"])

	resp, _ = do(t, "DELETE", ts.URL+"/v1/tables/a_table", "U", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, out = do(t, "GET", ts.URL+"/v1/tables", "U", nil)
	assert.Len(t, out["tables"].([]interface{}), 1)
}

func TestAssist(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := do(t, "POST", ts.URL+"/v1/tables", "U", ImportRequest{TableName: "T", Format: "csv", Data: "id\n1\n2"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, out := do(t, "POST", ts.URL+"/v1/assist", "U", AssistRequest{Message: "all ids", Mode: "generate", Run: true})
	require.Equal(t, http.StatusOK, resp.StatusCode, out)
	assert.Equal(t, "generate", out["mode"])
	assert.Equal(t, "SELECT id FROM T", out["sql"])
	result := out["result"].(map[string]interface{})
	assert.EqualValues(t, 2, result["rowCount"])
	assert.Nil(t, out["run_error"])

	resp, out = do(t, "POST", ts.URL+"/v1/assist", "U", AssistRequest{Message: "broken", Mode: "generate", Run: true})
	require.Equal(t, http.StatusOK, resp.StatusCode, out)
	assert.Nil(t, out["result"])
	runErr := out["run_error"].(map[string]interface{})
	assert.Equal(t, "unsupported_predicate", runErr["code"])

	resp, out = do(t, "POST", ts.URL+"/v1/assist", "U", AssistRequest{Message: "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode, out)
	assert.Equal(t, "chat", out["mode"])
	assert.Nil(t, out["sql"])

	resp, out = do(t, "POST", ts.URL+"/v1/assist", "U", AssistRequest{Message: "hi", Mode: "poem"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_assist_mode", out["code"])
}

func TestAssistUnavailable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(store.NewMemory(), engine.Options{Logger: logger})
	ts := httptest.NewServer(NewServer(eng, nil, logger).Handler())
	defer ts.Close()

	resp, out := do(t, "POST", ts.URL+"/v1/assist", "U", AssistRequest{Message: "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "assistant_unavailable", out["code"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	do(t, "POST", ts.URL+"/v1/query", "U", QueryRequest{Query: "SELECT * FROM T"})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `importq_query_total{result="failed"} 1`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(&domainerrors.TableNotFoundError{}))
	assert.Equal(t, http.StatusConflict, StatusFor(&domainerrors.DuplicateTableNameError{}))
	assert.Equal(t, http.StatusBadRequest, StatusFor(&domainerrors.RowArityMismatchError{}))
	assert.Equal(t, http.StatusBadRequest, StatusFor(&domainerrors.UnparsableQueryError{}))
	assert.Equal(t, http.StatusBadRequest, StatusFor(&domainerrors.InvalidOwnerError{Owner: ".."}))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(&domainerrors.AssistantUnavailableError{}))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(engine.New(store.NewMemory(), engine.Options{Logger: logger}), nil, logger)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.serve(ctx, lis) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + lis.Addr().String() + "/status")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
