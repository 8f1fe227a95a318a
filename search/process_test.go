package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Run(ctx context.Context, filename string) ([]Match, error) {
	args := m.Called(ctx, filename)
	return args.Get(0).([]Match), args.Error(1)
}

func (m *mockSearcher) RunSource(ctx context.Context, filename string, src []byte) ([]Match, error) {
	args := m.Called(ctx, filename, src)
	return args.Get(0).([]Match), args.Error(1)
}

func (m *mockSearcher) IgnoreHint(name string) {
	m.Called(name)
}

func (m *mockSearcher) IgnorePath(path string) {
	m.Called(path)
}

func (m *mockSearcher) IgnoredPaths() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func writeFiles(t *testing.T, dir string, n int) []string {
	t.Helper()
	var files []string
	for i := 0; i < n; i++ {
		filename := filepath.Join(dir, fmt.Sprintf("file%d.go", i))
		require.NoError(t, os.WriteFile(filename, []byte("package p\n"), 0o644))
		files = append(files, filename)
	}
	return files
}

func TestProcessPathDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	files := writeFiles(t, dir, 5)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	engine := new(mockSearcher)
	engine.On("IgnoredPaths").Return([]string(nil))
	for i, f := range files {
		engine.On("Run", mock.Anything, f).Return([]Match{{Hint: "h", Filename: f, Func: fmt.Sprint(i)}}, nil)
	}

	matches, err := ProcessPath(context.Background(), zap.NewNop(), engine, dir, nil, ProcessFile)
	require.NoError(t, err)
	require.Len(t, matches, 5)
	for i, m := range matches {
		// file order is kept whatever the completion order
		assert.Equal(t, files[i], m.Filename)
	}
	engine.AssertExpectations(t)
	engine.AssertNotCalled(t, "Run", mock.Anything, filepath.Join(dir, "notes.txt"))
}

func TestProcessPathSkipsFailingFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	files := writeFiles(t, dir, 2)

	engine := new(mockSearcher)
	engine.On("IgnoredPaths").Return([]string(nil))
	engine.On("Run", mock.Anything, files[0]).Return([]Match(nil), errors.New("syntax error"))
	engine.On("Run", mock.Anything, files[1]).Return([]Match{{Hint: "h", Filename: files[1]}}, nil)

	matches, err := ProcessPath(context.Background(), nil, engine, dir, nil, ProcessFile)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, files[1], matches[0].Filename)
}

func TestProcessPathIgnoredPaths(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	files := writeFiles(t, dir, 3)

	engine := new(mockSearcher)
	engine.On("IgnoredPaths").Return([]string{files[1]})
	engine.On("Run", mock.Anything, mock.Anything).Return([]Match{{Hint: "h"}}, nil)

	matches, err := ProcessPath(context.Background(), nil, engine, dir, nil, ProcessFile)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
	engine.AssertNotCalled(t, "Run", mock.Anything, files[1])
}

func TestProcessPathSingleFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	files := writeFiles(t, dir, 1)
	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("x"), 0o644))

	engine := new(mockSearcher)
	engine.On("Run", mock.Anything, files[0]).Return([]Match{{Hint: "h"}}, nil)

	matches, err := ProcessPath(context.Background(), nil, engine, files[0], nil, ProcessFile)
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	matches, err = ProcessPath(context.Background(), nil, engine, text, nil, ProcessFile)
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = ProcessPath(context.Background(), nil, engine, filepath.Join(dir, "missing"), nil, ProcessFile)
	assert.Error(t, err)
}

func TestProcessPathCancellation(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, 10)

	engine := newTestEngine(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	matches, err := ProcessPath(ctx, nil, engine, dir, nil, ProcessFile)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, matches)
}

func TestProcessFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	filename := filepath.Join(dir, "sample.go")
	require.NoError(t, os.WriteFile(filename, []byte(sample), 0o644))
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "other.go"), []byte(sample), 0o644))

	engine := newTestEngine(t, testConfig())
	matches, err := ProcessFiles(context.Background(), zap.NewNop(), engine, []string{filename, sub}, nil, ProcessFile)
	require.NoError(t, err)
	assert.Len(t, matches, 8)

	_, err = ProcessFiles(context.Background(), zap.NewNop(), engine, []string{filepath.Join(dir, "missing")}, nil, ProcessFile)
	assert.Error(t, err)
}
