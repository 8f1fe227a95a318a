package scanner

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

type FileInfo struct {
	Path string
	Size int64
}

// Scanner lists the source files under a root.
type Scanner struct {
	rootDir    string
	extensions []string
	ignored    []string
}

func New(rootDir string, extensions ...string) *Scanner {
	return &Scanner{
		rootDir:    rootDir,
		extensions: extensions,
	}
}

// Ignore skips files and directories matching any of the patterns. A
// pattern matches a path prefix or, as a filepath.Match glob, a base name.
func (s *Scanner) Ignore(patterns ...string) *Scanner {
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			s.ignored = append(s.ignored, filepath.Clean(p))
		}
	}
	return s
}

// Scan walks the root and returns the target files sorted by path. Hidden
// directories are skipped.
func (s *Scanner) Scan() ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if s.IsIgnored(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != s.rootDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.isTargetFile(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, FileInfo{Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// IsIgnored reports whether path matches one of the ignore patterns.
func (s *Scanner) IsIgnored(path string) bool {
	clean := filepath.Clean(path)
	base := filepath.Base(clean)
	for _, p := range s.ignored {
		if clean == p || strings.HasPrefix(clean, p+string(filepath.Separator)) {
			return true
		}
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) isTargetFile(path string) bool {
	if len(s.extensions) == 0 {
		return true
	}

	ext := filepath.Ext(path)
	for _, targetExt := range s.extensions {
		if ext == targetExt {
			return true
		}
	}
	return false
}
