package badger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/shigen/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := OpenBackend(path, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = backend.WithTx(func(*badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestWithTx(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	t.Run("committed write is visible", func(t *testing.T) {
		err := backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Set([]byte("k"), []byte("v")); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		require.NoError(t, err)

		err = backend.WithTx(func(tx *badger.Txn) error {
			_, err := tx.Get([]byte("k"))
			return err
		}, false)
		assert.NoError(t, err)
	})

	t.Run("error discards the transaction", func(t *testing.T) {
		boom := errors.New("boom")
		err := backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Set([]byte("discarded"), []byte("v")); err != nil {
				return err
			}
			return boom
		}, true)
		assert.ErrorIs(t, err, boom)

		err = backend.WithTx(func(tx *badger.Txn) error {
			_, err := tx.Get([]byte("discarded"))
			return err
		}, false)
		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
	})
}
