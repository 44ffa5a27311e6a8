package index

import (
	"os"
	"strings"
)

// IsStale reports whether the directory has diverged from the index:
// the file count changed, a currently-present file is strictly newer
// than GeneratedAt, or a previously-seen file is gone. The check is
// O(n) over directory entries with no content hashing; a file rewritten
// within the mtime clock granularity is missed (accepted limitation —
// callers that know a file changed should use UpsertOne).
//
// Directory read errors degrade to "stale": recomputing is always safe.
func (p *Project) IsStale(idx *Index) bool {
	entries, readErr := os.ReadDir(p.dir)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			// Directory gone: stale unless the index is already empty.
			return len(idx.FilesScanned)+len(idx.OrphanedFiles) != 0
		}

		return true
	}

	current := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".md") {
			continue
		}

		current[name] = struct{}{}

		info, infoErr := entry.Info()
		if infoErr != nil {
			return true
		}

		if info.ModTime().After(idx.GeneratedAt) {
			return true
		}
	}

	// Orphaned files still exist on disk; they count toward the known
	// set or every index with a bad file would be permanently stale.
	if len(current) != len(idx.FilesScanned)+len(idx.OrphanedFiles) {
		return true
	}

	for _, name := range idx.FilesScanned {
		if _, ok := current[name]; !ok {
			return true
		}
	}

	for _, name := range idx.OrphanedFiles {
		if _, ok := current[name]; !ok {
			return true
		}
	}

	return false
}
