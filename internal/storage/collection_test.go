package storage

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func newFileCollection(t *testing.T) (*Collection[note], *FileBackend) {
	t.Helper()
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return NewCollection[note](backend, "notes"), backend
}

func TestCollectionLoadAbsentIsEmpty(t *testing.T) {
	c, _ := newFileCollection(t)
	items, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCollectionLoadCorruptIsEmpty(t *testing.T) {
	c, backend := newFileCollection(t)
	require.NoError(t, os.WriteFile(backend.Path("notes"), []byte("{not json"), 0o644))

	items, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCollectionMutatePersistsIndentedUnescaped(t *testing.T) {
	ctx := context.Background()
	c, backend := newFileCollection(t)

	err := c.Mutate(ctx, func(items []note) ([]note, bool) {
		return append(items, note{Key: "부서", Value: "물류"}), true
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(backend.Path("notes"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  {")
	assert.Contains(t, string(raw), "물류")

	items, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []note{{Key: "부서", Value: "물류"}}, items)
}

func TestCollectionMutateUnchangedSkipsWrite(t *testing.T) {
	ctx := context.Background()
	c, backend := newFileCollection(t)
	require.NoError(t, c.Mutate(ctx, func(items []note) ([]note, bool) {
		return append(items, note{Key: "a"}), true
	}))
	before, err := os.ReadFile(backend.Path("notes"))
	require.NoError(t, err)
	info, err := os.Stat(backend.Path("notes"))
	require.NoError(t, err)

	require.NoError(t, c.Mutate(ctx, func(items []note) ([]note, bool) {
		return nil, false
	}))

	after, err := os.ReadFile(backend.Path("notes"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
	info2, err := os.Stat(backend.Path("notes"))
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), info2.ModTime())
}

func TestCollectionNilSavesEmptyArray(t *testing.T) {
	ctx := context.Background()
	c, backend := newFileCollection(t)
	require.NoError(t, c.Mutate(ctx, func([]note) ([]note, bool) { return nil, true }))

	raw, err := os.ReadFile(backend.Path("notes"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestCollectionConcurrentMutationsKeepEveryItem(t *testing.T) {
	ctx := context.Background()
	c, _ := newFileCollection(t)

	const writers = 50
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- c.Mutate(ctx, func(items []note) ([]note, bool) {
				return append(items, note{Key: fmt.Sprintf("k%d", i)}), true
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	items, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, items, writers)
	seen := make(map[string]bool, writers)
	for _, it := range items {
		seen[it.Key] = true
	}
	assert.Len(t, seen, writers)
}
