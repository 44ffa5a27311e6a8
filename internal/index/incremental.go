package index

import (
	"path/filepath"
	"slices"

	"github.com/boardfile-dev/boardfile/internal/record"
)

// UpsertOne re-parses a single known file and folds it into the index:
// the record is replaced or appended, subtask aggregates are recomputed
// over the whole set, the lookup maps are rebuilt, and the result is
// persisted. This is the cheap path for a file known to have changed
// (e.g. a direct edit through an API), avoiding a full directory
// rescan. If the file no longer parses it moves to the orphaned list.
//
// The input index is not mutated; a new one is returned.
func (p *Project) UpsertOne(idx *Index, filename string) (*Index, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := filepath.Base(filename)
	path := filepath.Join(p.dir, name)

	records, scanned, orphaned := cloneEntries(idx, name)

	rec, parseErr := parseFile(path)
	if parseErr != nil {
		orphaned = append(orphaned, name)
	} else {
		records = append(records, rec)
		scanned = append(scanned, name)
	}

	next := p.assemble(records, scanned, orphaned)

	persistErr := p.persist(next)
	if persistErr != nil {
		return nil, persistErr
	}

	return next, nil
}

// RemoveOne drops a record by id and rebuilds maps and aggregates. The
// file itself is not touched; callers remove it separately (or it is
// already gone). The input index is not mutated.
func (p *Project) RemoveOne(idx *Index, id string) (*Index, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	dropName := record.Filename(id)
	if rec := idx.TaskByID[id]; rec != nil && rec.Path != "" {
		dropName = filepath.Base(rec.Path)
	}

	records, scanned, orphaned := cloneEntries(idx, dropName)

	next := p.assemble(records, scanned, orphaned)

	persistErr := p.persist(next)
	if persistErr != nil {
		return nil, persistErr
	}

	return next, nil
}

// cloneEntries copies the index's record set minus the named file. The
// records themselves are shallow copies so aggregate recomputation in
// assemble does not mutate the caller's index.
func cloneEntries(idx *Index, dropName string) ([]*record.Record, []string, []string) {
	records := make([]*record.Record, 0, len(idx.Tasks))

	for _, rec := range idx.Tasks {
		if filepath.Base(rec.Path) == dropName {
			continue
		}

		clone := *rec
		records = append(records, &clone)
	}

	scanned := make([]string, 0, len(idx.FilesScanned))

	for _, name := range idx.FilesScanned {
		if name != dropName {
			scanned = append(scanned, name)
		}
	}

	orphaned := slices.DeleteFunc(slices.Clone(idx.OrphanedFiles), func(name string) bool {
		return name == dropName
	})

	return records, scanned, orphaned
}
