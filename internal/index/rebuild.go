package index

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/boardfile-dev/boardfile/internal/record"
)

// scanWorkers bounds the parallelism of a full rescan.
const scanWorkers = 16

// Rebuild performs a full rescan of the project directory: every record
// file is re-parsed, files that fail to parse are collected as
// orphaned, aggregates and lookup maps are recomputed, and the result
// is persisted. A missing directory yields a valid empty index.
func (p *Project) Rebuild() (*Index, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.rebuildLocked()
}

func (p *Project) rebuildLocked() (*Index, error) {
	records, scanned, orphaned, scanErr := p.scan()
	if scanErr != nil {
		return nil, scanErr
	}

	idx := p.assemble(records, scanned, orphaned)

	persistErr := p.persist(idx)
	if persistErr != nil {
		return nil, persistErr
	}

	return idx, nil
}

// GetFresh returns a current index: the persisted one if it is still
// valid, otherwise a full rebuild. Callers always get some valid index,
// possibly empty.
func (p *Project) GetFresh() (*Index, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.Load()
	if idx != nil && !p.IsStale(idx) {
		return idx, nil
	}

	return p.rebuildLocked()
}

type scanJob struct {
	idx  int
	name string
	path string
}

type scanResult struct {
	name string
	rec  *record.Record
	err  error
}

// scan parses every record file in the directory in parallel. Parse
// failures never abort the scan; they come back as orphaned filenames.
func (p *Project) scan() ([]*record.Record, []string, []string, error) {
	entries, readErr := os.ReadDir(p.dir)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, nil, nil, nil
		}

		return nil, nil, nil, fmt.Errorf("reading work-items directory: %w", readErr)
	}

	jobs := make([]scanJob, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".md") {
			continue
		}

		jobs = append(jobs, scanJob{idx: len(jobs), name: name, path: filepath.Join(p.dir, name)})
	}

	results := make([]scanResult, len(jobs))

	workerCount := min(len(jobs), scanWorkers)
	jobCh := make(chan scanJob, workerCount)

	var waitGroup sync.WaitGroup

	worker := func() {
		defer waitGroup.Done()

		for job := range jobCh {
			rec, parseErr := parseFile(job.path)

			results[job.idx] = scanResult{name: job.name, rec: rec, err: parseErr}
		}
	}

	waitGroup.Add(workerCount)

	for range workerCount {
		go worker()
	}

	for _, job := range jobs {
		jobCh <- job
	}

	close(jobCh)

	waitGroup.Wait()

	var (
		records  []*record.Record
		scanned  []string
		orphaned []string
	)

	for _, res := range results {
		if res.err != nil {
			fmt.Fprintf(p.diag, "orphaned %s: %v\n", res.name, res.err)

			orphaned = append(orphaned, res.name)

			continue
		}

		records = append(records, res.rec)
		scanned = append(scanned, res.name)
	}

	return records, scanned, orphaned, nil
}

func parseFile(path string) (*record.Record, error) {
	raw, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("reading record: %w", readErr)
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		return nil, fmt.Errorf("stat record: %w", statErr)
	}

	rec, parseErr := record.Parse(raw, path, record.FileStat{Mtime: info.ModTime(), Size: info.Size()})
	if parseErr != nil {
		return nil, parseErr
	}

	return rec, nil
}

// assemble builds a complete Index from a record set: subtask
// aggregates in one pass over parentId, then the four lookup maps.
// GeneratedAt is refreshed here; it is the sole staleness baseline.
func (p *Project) assemble(records []*record.Record, scanned, orphaned []string) *Index {
	byID := make(map[string]*record.Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	// One pass over parentId relationships. Dangling parents are
	// tolerated and reported, never fatal.
	byParent := make(map[string][]string)

	for _, rec := range records {
		rec.SubtaskCount = 0
		rec.HasSubtasks = false
	}

	for _, rec := range records {
		if rec.ParentID == "" {
			continue
		}

		parent, ok := byID[rec.ParentID]
		if !ok {
			fmt.Fprintf(p.diag, "dangling parentId %s on %s\n", rec.ParentID, rec.ID)
		} else {
			parent.SubtaskCount++
			parent.HasSubtasks = true
		}

		byParent[rec.ParentID] = append(byParent[rec.ParentID], rec.ID)
	}

	// Readdir order is not stable; sort every derived list explicitly.
	sortRecords(records)

	for parentID := range byParent {
		sortIDs(byParent[parentID], byID)
	}

	byStatus := make(map[string][]string)
	byType := make(map[string][]string)

	for _, rec := range records {
		byStatus[rec.Status] = append(byStatus[rec.Status], rec.ID)
		byType[rec.Type] = append(byType[rec.Type], rec.ID)
	}

	sort.Strings(scanned)
	sort.Strings(orphaned)

	if scanned == nil {
		scanned = []string{}
	}

	if orphaned == nil {
		orphaned = []string{}
	}

	if records == nil {
		records = []*record.Record{}
	}

	return &Index{
		Version:       Version,
		ProjectName:   p.name,
		GeneratedAt:   time.Now(),
		TotalTasks:    len(records),
		Tasks:         records,
		TaskByID:      byID,
		TasksByParent: byParent,
		TasksByStatus: byStatus,
		TasksByType:   byType,
		LastScanPath:  p.dir,
		FilesScanned:  scanned,
		OrphanedFiles: orphaned,
	}
}

// sortRecords orders the task list by (orderIndex, id).
func sortRecords(records []*record.Record) {
	sort.Slice(records, func(a, b int) bool {
		if records[a].OrderIndex != records[b].OrderIndex {
			return records[a].OrderIndex < records[b].OrderIndex
		}

		return records[a].ID < records[b].ID
	})
}

// sortIDs orders child id lists by (orderIndex, id).
func sortIDs(ids []string, byID map[string]*record.Record) {
	sort.Slice(ids, func(a, b int) bool {
		ra, rb := byID[ids[a]], byID[ids[b]]
		if ra == nil || rb == nil {
			return ids[a] < ids[b]
		}

		if ra.OrderIndex != rb.OrderIndex {
			return ra.OrderIndex < rb.OrderIndex
		}

		return ids[a] < ids[b]
	})
}
