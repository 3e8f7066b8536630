package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testStoreContract(t *testing.T, store Store) {
	t.Helper()

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	var got record
	found, err := store.Get("missing", &got)
	require.NoError(t, err)
	require.False(t, found, "absent key should report not found")

	want := record{Name: "alpha", Count: 3}
	require.NoError(t, store.Set("rec", want))

	found, err = store.Get("rec", &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, want, got)

	// Set is a full replacement, not a merge.
	require.NoError(t, store.Set("rec", record{Name: "beta"}))
	got = record{}
	found, err = store.Get("rec", &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, record{Name: "beta"}, got)

	require.NoError(t, store.Remove("rec"))
	found, err = store.Get("rec", &got)
	require.NoError(t, err)
	require.False(t, found)

	// Removing an absent key is fine.
	require.NoError(t, store.Remove("rec"))
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	testStoreContract(t, store)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	testStoreContract(t, store)
}

func TestMemoryStoreKeys(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set("a", 1))
	require.NoError(t, store.Set("b", 2))
	require.ElementsMatch(t, []string{"a", "b"}, store.Keys())

	require.NoError(t, store.Remove("a"))
	require.ElementsMatch(t, []string{"b"}, store.Keys())
}
