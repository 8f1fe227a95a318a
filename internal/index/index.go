// Package index persists the encoded streams of source files so that
// frequency queries can run without parsing the files again.
//
// The encoded stream carries no version of its own. The index file records
// FormatVersion and is discarded as a whole when it was written by another
// version.
package index

import (
	"crypto/md5"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FormatVersion identifies the layout of the encoded streams stored in an
// index. Bump it whenever the encoder output changes.
const FormatVersion = 1

const indexFile = "bulkgrep_index.gob"

type fileMetadata struct {
	Hash         string
	LastModified time.Time
}

// Entry is the stored encoding of one file.
type Entry struct {
	Metadata  fileMetadata
	Stream    []byte
	Names     []string
	CreatedAt time.Time
}

type snapshot struct {
	Version int
	Entries map[string]Entry
}

// Index maps file paths to their encoded streams. It is safe for concurrent
// use. Changes are kept in memory until Save.
type Index struct {
	Dir string

	mutex   sync.RWMutex
	entries map[string]Entry
	maxAge  time.Duration
	dirty   bool
}

// Open loads the index stored in dir, creating the directory if needed. An
// index written with another FormatVersion opens empty.
func Open(dir string) (*Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	x := &Index{
		Dir:     dir,
		entries: make(map[string]Entry),
	}
	if err := x.load(); err != nil {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}
	return x, nil
}

func (x *Index) path() string {
	return filepath.Join(x.Dir, indexFile)
}

func (x *Index) load() error {
	file, err := os.Open(x.path())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode index file: %w", err)
	}
	if snap.Version != FormatVersion {
		x.dirty = true
		return nil
	}
	if snap.Entries != nil {
		x.entries = snap.Entries
	}
	return nil
}

// Save writes the index to disk if it changed since it was opened.
func (x *Index) Save() error {
	x.mutex.Lock()
	defer x.mutex.Unlock()

	if !x.dirty {
		return nil
	}
	tmp, err := os.CreateTemp(x.Dir, indexFile+".*")
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	snap := snapshot{Version: FormatVersion, Entries: x.entries}
	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), x.path()); err != nil {
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	x.dirty = false
	return nil
}

// Put stores the stream of filename along with the file's current hash and
// modification time.
func (x *Index) Put(filename string, stream []byte, names []string) error {
	metadata, err := getFileMetadata(filename)
	if err != nil {
		return fmt.Errorf("failed to get file metadata: %w", err)
	}

	x.mutex.Lock()
	defer x.mutex.Unlock()

	x.entries[filename] = Entry{
		Metadata:  metadata,
		Stream:    stream,
		Names:     names,
		CreatedAt: time.Now(),
	}
	x.dirty = true
	return nil
}

// Get returns the stored stream of filename. Entries whose file changed,
// disappeared or outlived the maximum age are dropped and reported missing.
func (x *Index) Get(filename string) ([]byte, bool) {
	x.mutex.RLock()
	entry, ok := x.entries[filename]
	x.mutex.RUnlock()
	if !ok {
		return nil, false
	}

	if x.isEntryInvalid(filename, entry) {
		x.mutex.Lock()
		delete(x.entries, filename)
		x.dirty = true
		x.mutex.Unlock()
		return nil, false
	}
	return entry.Stream, true
}

func (x *Index) isEntryInvalid(filename string, entry Entry) bool {
	x.mutex.RLock()
	maxAge := x.maxAge
	x.mutex.RUnlock()
	if maxAge > 0 && time.Since(entry.CreatedAt) > maxAge {
		return true
	}

	current, err := getFileMetadata(filename)
	return err != nil || !current.LastModified.Equal(entry.Metadata.LastModified) || current.Hash != entry.Metadata.Hash
}

// Files returns the indexed paths in sorted order.
func (x *Index) Files() []string {
	x.mutex.RLock()
	defer x.mutex.RUnlock()

	files := make([]string, 0, len(x.entries))
	for name := range x.entries {
		files = append(files, name)
	}
	sort.Strings(files)
	return files
}

// Len returns the number of entries.
func (x *Index) Len() int {
	x.mutex.RLock()
	defer x.mutex.RUnlock()
	return len(x.entries)
}

// SetMaxAge bounds the age of the entries Get returns. Zero disables the
// bound.
func (x *Index) SetMaxAge(d time.Duration) {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	x.maxAge = d
}

// InvalidateAll drops every entry.
func (x *Index) InvalidateAll() {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	x.entries = make(map[string]Entry)
	x.dirty = true
}

func getFileMetadata(filename string) (fileMetadata, error) {
	file, err := os.Open(filename)
	if err != nil {
		return fileMetadata{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fileMetadata{}, fmt.Errorf("failed to calculate hash: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return fileMetadata{}, fmt.Errorf("failed to get file info: %w", err)
	}

	return fileMetadata{
		Hash:         fmt.Sprintf("%x", hash.Sum(nil)),
		LastModified: info.ModTime(),
	}, nil
}
