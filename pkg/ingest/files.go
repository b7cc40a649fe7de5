package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Extensions are the file types indexed by default.
var Extensions = []string{".txt", ".md"}

// Indexable reports whether path has one of the indexed extensions.
func Indexable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// DocumentID is the slash separated path of file relative to root. A file
// given as root itself is identified by its base name.
func DocumentID(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Base(file)
	}
	return filepath.ToSlash(rel)
}

// IndexJob builds the job that indexes file under root.
func IndexJob(root, file string) Job {
	return Job{
		Op:         OpIndex,
		DocumentID: DocumentID(root, file),
		Title:      filepath.Base(file),
		Path:       file,
	}
}

// Collect returns index jobs for path: the file itself, or every indexable
// file below it when path is a directory. Hidden directories are skipped.
func Collect(path string) ([]Job, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if !info.IsDir() {
		return []Job{IndexJob(filepath.Dir(path), path)}, nil
	}

	var jobs []Job
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if Indexable(p) {
			jobs = append(jobs, IndexJob(path, p))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}

	return jobs, nil
}
