package entity

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func newDocStore() *MemStore[*testDoc] {
	return NewMemStore(func(d *testDoc) string { return d.Name })
}

func TestMemStoreInsertAssignsIDs(t *testing.T) {
	ctx := context.Background()
	store := newDocStore()

	a, err := store.Insert(ctx, &testDoc{Name: "a"})
	require.NoError(t, err)
	b, err := store.Insert(ctx, &testDoc{Name: "b"})
	require.NoError(t, err)

	require.Equal(t, int64(1), a.EntityVersion)
	require.Equal(t, int64(1), b.EntityVersion)
	require.NotEqual(t, a.ID, b.ID)
}

func TestMemStoreInsertUniqueness(t *testing.T) {
	ctx := context.Background()
	store := newDocStore()

	_, err := store.Insert(ctx, &testDoc{Name: "taken"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, &testDoc{Name: "taken"})
	require.ErrorIs(t, err, ErrDuplicate)

	total, err := store.CountAll(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestMemStoreCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := newDocStore()

	stored, err := store.Insert(ctx, &testDoc{Name: "doc"})
	require.NoError(t, err)

	// Two writers read version 1; only the first may win.
	winner := stored.Clone()
	winner.Body = "first"
	updated, err := store.UpdateByID(ctx, stored.ID, winner, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.EntityVersion)

	loser := stored.Clone()
	loser.Body = "second"
	_, err = store.UpdateByID(ctx, stored.ID, loser, 1)
	require.ErrorIs(t, err, ErrStaleVersion)

	current, err := store.FindByID(ctx, stored.ID)
	require.NoError(t, err)
	require.Equal(t, "first", current.Body)
}

func TestMemStoreUpdateUniquenessExcludesSelf(t *testing.T) {
	ctx := context.Background()
	store := newDocStore()

	a, err := store.Insert(ctx, &testDoc{Name: "a"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, &testDoc{Name: "b"})
	require.NoError(t, err)

	// Keeping its own name is not a collision.
	same := a.Clone()
	same.Body = "edited"
	_, err = store.UpdateByID(ctx, a.ID, same, 1)
	require.NoError(t, err)

	// Taking another row's name is.
	steal := a.Clone()
	steal.Name = "b"
	_, err = store.UpdateByID(ctx, a.ID, steal, 2)
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestMemStoreDeleteMissing(t *testing.T) {
	store := newDocStore()
	require.ErrorIs(t, store.DeleteByID(context.Background(), 42), ErrNotFound)
}

func TestMemStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := newDocStore()

	stored, err := store.Insert(ctx, &testDoc{Name: "immutable"})
	require.NoError(t, err)
	stored.Name = "mutated locally"

	reread, err := store.FindByID(ctx, stored.ID)
	require.NoError(t, err)
	require.Equal(t, "immutable", reread.Name)
}

func TestMemStoreFindAllFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	store := newDocStore()

	for i := 0; i < 5; i++ {
		doc := &testDoc{Name: fmt.Sprintf("doc%d", i), Body: "keep"}
		if i%2 == 0 {
			doc.Body = "skip"
		}
		_, err := store.Insert(ctx, doc)
		require.NoError(t, err)
	}

	page, err := store.FindAll(ctx, Eq("body", "keep"), -1, -1, []Order{{Field: "name", Desc: true}})
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	require.Equal(t, "doc3", page.Results[0].Name)
	require.Equal(t, "doc1", page.Results[1].Name)
	require.Equal(t, int64(2), page.Total)
}
