package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/importq/internal/store"
	"github.com/leengari/importq/internal/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return store.NewMemory()
	})
}

func TestMemoryCancelledContext(t *testing.T) {
	s := store.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CreateTable(ctx, "u1", "t", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
