package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPersistenceStore_BasicOperations(t *testing.T) {
	ps, err := NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer ps.Close()

	key := []byte("test-key")
	value := []byte("test-value")
	require.NoError(t, ps.Put(key, value))

	got, found, err := ps.Get(key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, value, got)

	_, found, err = ps.Get([]byte("non-existent"))
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, ps.Delete(key))
	_, found, err = ps.Get(key)
	require.NoError(t, err)
	require.False(t, found)
}

func TestPersistenceStore_KeysWithPrefix(t *testing.T) {
	ps, err := NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer ps.Close()

	require.NoError(t, ps.Put([]byte("a:1"), nil))
	require.NoError(t, ps.Put([]byte("a:2"), nil))
	require.NoError(t, ps.Put([]byte("b:1"), nil))
	keys, err := ps.KeysWithPrefix([]byte("a:"))
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("a:1"), []byte("a:2")}, keys)
}

func TestPersistenceStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ps, err := NewPersistenceStore(dir)
	require.NoError(t, err)
	require.NoError(t, ps.Put([]byte("k"), []byte("v")))
	require.NoError(t, ps.Close())

	ps, err = NewPersistenceStore(dir)
	require.NoError(t, err)
	defer ps.Close()
	got, found, err := ps.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v"), got)
}
