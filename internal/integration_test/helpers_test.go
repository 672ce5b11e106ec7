package integration

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leengari/importq/internal/engine"
	"github.com/leengari/importq/internal/store"
	"github.com/leengari/importq/internal/store/jsonfile"
	"github.com/leengari/importq/internal/store/sqlite"
)

const (
	usersCSV = "id,username,role\n1,admin,owner\n2,joy,\n3,kim,viewer\n"

	ordersSQL = `INSERT INTO orders (id, user_id, total) VALUES (1, 1, 9.5);
INSERT INTO orders (id, user_id, total) VALUES (2, 3, 12), (3, 3, NULL);`
)

// backend opens the same durable location every time it is called
type backend struct {
	name string
	open func(t *testing.T) store.Store
}

func backends(t *testing.T) []backend {
	logger := quietLogger()
	dir := t.TempDir()
	return []backend{
		{"json", func(t *testing.T) store.Store {
			s, err := jsonfile.Open(filepath.Join(dir, "tables"), logger)
			require.NoError(t, err)
			return s
		}},
		{"sqlite", func(t *testing.T) store.Store {
			s, err := sqlite.Open(context.Background(), filepath.Join(dir, "importq.db"), logger)
			require.NoError(t, err)
			return s
		}},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(s store.Store) *engine.Engine {
	return engine.New(s, engine.Options{Logger: quietLogger()})
}

// MockObserver records every event it receives
type MockObserver struct {
	mu     sync.Mutex
	Events []engine.Event
}

func (m *MockObserver) OnEvent(event engine.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

func (m *MockObserver) snapshot() []engine.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]engine.Event(nil), m.Events...)
}
