package todotest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/slackmgr/todo/todo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreSuite runs every conformance test against store as subtests. Each
// test works on freshly generated ids, so the store does not need to be
// empty.
func RunStoreSuite(t *testing.T, store todo.Store) {
	t.Helper()

	t.Run("Probe", func(t *testing.T) { TestProbe(t, store) })
	t.Run("PutAndGetItem", func(t *testing.T) { TestPutAndGetItem(t, store) })
	t.Run("ScanItems", func(t *testing.T) { TestScanItems(t, store) })
	t.Run("UpdateItem", func(t *testing.T) { TestUpdateItem(t, store) })
	t.Run("UpdateMissingItem", func(t *testing.T) { TestUpdateMissingItem(t, store) })
	t.Run("DeleteItem", func(t *testing.T) { TestDeleteItem(t, store) })
}

func TestProbe(t *testing.T, store todo.Store) {
	t.Helper()

	require.NoError(t, store.Probe(context.Background()))
}

func TestPutAndGetItem(t *testing.T, store todo.Store) {
	t.Helper()

	ctx := context.Background()
	item := todo.Item{ID: uuid.NewString(), Title: "buy milk"}

	require.NoError(t, store.PutItem(ctx, item))

	got, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, item, *got)

	// Put overwrites unconditionally.
	item.Title = "buy oat milk"
	item.Done = true
	require.NoError(t, store.PutItem(ctx, item))

	got, err = store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, item, *got)

	missing, err := store.GetItem(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestScanItems(t *testing.T, store todo.Store) {
	t.Helper()

	ctx := context.Background()
	want := map[string]todo.Item{}

	for _, title := range []string{"one", "two", "three"} {
		item := todo.Item{ID: uuid.NewString(), Title: title}
		require.NoError(t, store.PutItem(ctx, item))
		want[item.ID] = item
	}

	items, err := store.ScanItems(ctx)
	require.NoError(t, err)

	found := 0

	for _, item := range items {
		if expected, ok := want[item.ID]; ok {
			assert.Equal(t, expected, item)
			found++
		}
	}

	assert.Equal(t, len(want), found)
}

func TestUpdateItem(t *testing.T, store todo.Store) {
	t.Helper()

	ctx := context.Background()
	item := todo.Item{ID: uuid.NewString(), Title: "write report"}

	require.NoError(t, store.PutItem(ctx, item))

	done := true
	require.NoError(t, store.UpdateItem(ctx, item.ID, todo.ItemUpdate{Done: &done}.Fields()))

	got, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, todo.Item{ID: item.ID, Title: "write report", Done: true}, *got)

	title := "write final report"
	require.NoError(t, store.UpdateItem(ctx, item.ID, todo.ItemUpdate{Title: &title}.Fields()))

	got, err = store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, todo.Item{ID: item.ID, Title: "write final report", Done: true}, *got)

	notDone := false
	title = "archive report"
	require.NoError(t, store.UpdateItem(ctx, item.ID, todo.ItemUpdate{Title: &title, Done: &notDone}.Fields()))

	got, err = store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, todo.Item{ID: item.ID, Title: "archive report", Done: false}, *got)
}

func TestUpdateMissingItem(t *testing.T, store todo.Store) {
	t.Helper()

	ctx := context.Background()
	id := uuid.NewString()
	done := true

	err := store.UpdateItem(ctx, id, todo.ItemUpdate{Done: &done}.Fields())
	require.ErrorIs(t, err, todo.ErrItemNotFound)

	got, err := store.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got, "a failed update must not create a partial item")
}

func TestDeleteItem(t *testing.T, store todo.Store) {
	t.Helper()

	ctx := context.Background()
	item := todo.Item{ID: uuid.NewString(), Title: "call mum"}

	require.NoError(t, store.PutItem(ctx, item))
	require.NoError(t, store.DeleteItem(ctx, item.ID))

	got, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again is not an error.
	require.NoError(t, store.DeleteItem(ctx, item.ID))
}
