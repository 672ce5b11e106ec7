package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/importq/internal/engine"
	"github.com/leengari/importq/internal/metrics"
	"github.com/leengari/importq/internal/network"
)

func post(t *testing.T, url, owner string, body interface{}, out interface{}) int {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(buf))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(network.OwnerHeader, owner)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

// TestServerJSON drives a durable store through the HTTP API and checks the
// engine's lifecycle events and metrics along the way
func TestServerJSON(t *testing.T) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			defer s.Close()

			eng := newEngine(s)
			observer := &MockObserver{}
			eng.AddObserver(observer)
			m := metrics.New()
			eng.AddObserver(engine.NewMetricsObserver(m))

			srv := httptest.NewServer(network.NewServer(eng, m.Registry, quietLogger()).Handler())
			defer srv.Close()

			var imported network.ImportResponse
			code := post(t, srv.URL+"/v1/tables", "alice", network.ImportRequest{
				TableName: "users",
				Format:    "csv",
				Data:      usersCSV,
			}, &imported)
			require.Equal(t, http.StatusCreated, code)
			assert.Equal(t, 3, imported.RowCount)
			assert.NotEmpty(t, imported.TableID)

			var res network.QueryResponse
			code = post(t, srv.URL+"/v1/query", "alice", network.QueryRequest{
				Query: "SELECT username FROM users WHERE username = 'admin'",
			}, &res)
			require.Equal(t, http.StatusOK, code)
			require.Equal(t, 1, res.RowCount)
			assert.Equal(t, "admin", res.Data[0]["username"])
			assert.Equal(t, "success", res.Status)

			var failed network.ErrorResponse
			code = post(t, srv.URL+"/v1/query", "bob", network.QueryRequest{
				Query: "SELECT * FROM users",
			}, &failed)
			assert.Equal(t, http.StatusNotFound, code)
			assert.Equal(t, "failed", failed.Status)

			events := observer.snapshot()
			want := []engine.EventType{
				engine.EventImportStart, engine.EventImportEnd,
				engine.EventQueryStart, engine.EventQueryEnd,
				engine.EventQueryStart, engine.EventQueryEnd,
			}
			require.Len(t, events, len(want))
			for i, typ := range want {
				assert.Equal(t, typ, events[i].Type, "event %d", i)
			}
			// start and end of one call share a request id
			for i := 0; i < len(events); i += 2 {
				assert.Equal(t, events[i].RequestID, events[i+1].RequestID)
			}
			assert.NotEqual(t, events[0].RequestID, events[2].RequestID)
			assert.Equal(t, "bob", events[4].Owner)
			assert.Error(t, events[5].Err)

			resp, err := http.Get(srv.URL + "/metrics")
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}
