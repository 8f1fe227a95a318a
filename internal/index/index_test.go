package index

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIndex(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	idx, err := Open(filepath.Join(dir, "index"))
	require.NoError(t, err)

	filename := filepath.Join(dir, "main.go")
	writeFile(t, filename, "package main\n\nfunc main() {}\n")

	t.Run("NotFound", func(t *testing.T) {
		_, ok := idx.Get(filepath.Join(dir, "missing.go"))
		assert.False(t, ok)
	})

	t.Run("PutAndGet", func(t *testing.T) {
		require.NoError(t, idx.Put(filename, []byte("stream"), []string{"main"}))
		got, ok := idx.Get(filename)
		require.True(t, ok)
		assert.Equal(t, []byte("stream"), got)
		assert.Equal(t, []string{filename}, idx.Files())
	})

	t.Run("SaveAndReopen", func(t *testing.T) {
		require.NoError(t, idx.Save())
		reopened, err := Open(idx.Dir)
		require.NoError(t, err)
		got, ok := reopened.Get(filename)
		require.True(t, ok)
		assert.Equal(t, []byte("stream"), got)
	})
}

func TestIndexFileModified(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	idx, err := Open(dir)
	require.NoError(t, err)

	filename := filepath.Join(dir, "modified.go")
	writeFile(t, filename, "package main\n")
	require.NoError(t, idx.Put(filename, []byte("old"), nil))

	writeFile(t, filename, "package main\n\nfunc main() { println(\"changed\") }\n")
	_, ok := idx.Get(filename)
	assert.False(t, ok)
	assert.Equal(t, 0, idx.Len())
}

func TestIndexMaxAge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	idx, err := Open(dir)
	require.NoError(t, err)

	filename := filepath.Join(dir, "old.go")
	writeFile(t, filename, "package main\n")
	require.NoError(t, idx.Put(filename, []byte("s"), nil))

	idx.SetMaxAge(time.Nanosecond)
	time.Sleep(time.Millisecond)
	_, ok := idx.Get(filename)
	assert.False(t, ok)
}

func TestIndexVersionMismatch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	filename := filepath.Join(dir, "a.go")
	writeFile(t, filename, "package a\n")

	f, err := os.Create(filepath.Join(dir, indexFile))
	require.NoError(t, err)
	require.NoError(t, gob.NewEncoder(f).Encode(snapshot{
		Version: FormatVersion + 1,
		Entries: map[string]Entry{filename: {Stream: []byte("future")}},
	}))
	require.NoError(t, f.Close())

	idx, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())

	// the stale file is replaced on save
	require.NoError(t, idx.Save())
	idx, err = Open(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}

func TestIndexInvalidateAll(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	idx, err := Open(dir)
	require.NoError(t, err)

	filename := filepath.Join(dir, "a.go")
	writeFile(t, filename, "package a\n")
	require.NoError(t, idx.Put(filename, []byte("s"), nil))
	idx.InvalidateAll()
	assert.Empty(t, idx.Files())
}

func TestIndexConcurrency(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	idx, err := Open(dir)
	require.NoError(t, err)

	filename := filepath.Join(dir, "test.go")
	writeFile(t, filename, "package main\n")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, idx.Put(filename, []byte("s"), nil))
		}()
		go func() {
			defer wg.Done()
			_, _ = idx.Get(filename)
		}()
	}
	wg.Wait()
	assert.NoError(t, idx.Save())
}
