// Package index maintains the derived JSON cache over a project's
// work-item files.
//
// The index is disposable: it can always be regenerated from the files
// and is never the system of record. Callers ask a Project for fresh
// data; the Project checks staleness against the directory and rebuilds
// when needed. Load failures of any kind (missing file, corrupt JSON,
// version mismatch) degrade to a rebuild, never to an error surfaced to
// the caller.
package index

import (
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/boardfile-dev/boardfile/internal/record"
)

// Version tags the on-disk index format. Any other value on load is
// treated as corrupt and triggers a rebuild.
const Version = "v2"

// Index is the derived, persisted summary of one project's records,
// with the lookup maps UI-facing query code consumes. The JSON shape is
// an external contract; field names must not change.
type Index struct {
	Version     string    `json:"version"`
	ProjectName string    `json:"projectName"`
	GeneratedAt time.Time `json:"generatedAt"`
	TotalTasks  int       `json:"totalTasks"`

	Tasks    []*record.Record          `json:"tasks"`
	TaskByID map[string]*record.Record `json:"taskById"`

	// TasksByParent maps a parent id to its child ids, sorted by
	// (orderIndex, id). TasksByStatus and TasksByType group ids by the
	// literal frontmatter value.
	TasksByParent map[string][]string `json:"tasksByParent"`
	TasksByStatus map[string][]string `json:"tasksByStatus"`
	TasksByType   map[string][]string `json:"tasksByType"`

	LastScanPath  string   `json:"lastScanPath"`
	FilesScanned  []string `json:"filesScanned"`
	OrphanedFiles []string `json:"orphanedFiles"`
}

// Get returns the record for an id, or nil.
func (idx *Index) Get(id string) *record.Record {
	return idx.TaskByID[id]
}

// Children returns the ordered child ids of a record.
func (idx *Index) Children(id string) []string {
	return idx.TasksByParent[id]
}

// Project maintains the index for one project directory. Instances are
// independent; two projects may rebuild concurrently. Within one
// Project, rebuilds and incremental updates are serialized by a mutex
// so a rebuild never interleaves with another rebuild of the same
// directory.
type Project struct {
	name string
	dir  string // work-items directory
	diag io.Writer

	mu sync.Mutex
}

// Option configures a Project.
type Option func(*Project)

// WithDiagnostics directs scan warnings (orphaned files, reconcile
// notes) to w. The default discards them.
func WithDiagnostics(w io.Writer) Option {
	return func(p *Project) {
		if w != nil {
			p.diag = w
		}
	}
}

// New creates the index component for one project. dir is the
// work-items directory; the index file lives in a ".boardfile"
// directory next to it.
func New(projectName, dir string, opts ...Option) *Project {
	p := &Project{
		name: projectName,
		dir:  dir,
		diag: io.Discard,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// Dir returns the work-items directory the project scans.
func (p *Project) Dir() string {
	return p.dir
}

// IndexPath returns the path of the persisted index file.
func (p *Project) IndexPath() string {
	return filepath.Join(filepath.Dir(p.dir), indexDirName, indexFileName)
}

const (
	indexDirName  = ".boardfile"
	indexFileName = "index.json"
)
