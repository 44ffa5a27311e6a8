// Package rehydrate reconciles a project directory tree with the
// structured store, in both directions.
//
// Import walks the tree (project descriptor, work-items directory,
// agents directory), parses each file through the record codec and the
// snippet parser, and creates the corresponding documents in the
// store. Export is the inverse: it renders one file per document,
// re-serializing snippet directives, and is idempotent — exporting and
// re-importing the same structured data yields byte-equivalent files.
//
// The engine bypasses the cache index entirely; it reads files through
// the codec directly.
package rehydrate

import (
	"io"

	"github.com/boardfile-dev/boardfile/internal/store"
)

// Directory layout under a project root.
const (
	descriptorFile = "project.md"
	workItemsDir   = "work-items"
	agentsDir      = "agents"
)

// agentOrderBase is the ordering sentinel for agent records: agents
// sort after all ordinary work items without needing a separate
// schema.
const agentOrderBase = 1_000_000

// Engine converts between project trees and the structured store.
type Engine struct {
	store *store.Store
	diag  io.Writer
}

// Option configures an Engine.
type Option func(*Engine)

// WithDiagnostics directs skip warnings to w. The default discards
// them.
func WithDiagnostics(w io.Writer) Option {
	return func(e *Engine) {
		if w != nil {
			e.diag = w
		}
	}
}

// New creates an engine over a store.
func New(s *store.Store, opts ...Option) *Engine {
	engine := &Engine{store: s, diag: io.Discard}

	for _, opt := range opts {
		if opt != nil {
			opt(engine)
		}
	}

	return engine
}

// ImportResult is everything one import created in the store.
type ImportResult struct {
	Project   store.Project
	WorkItems []store.WorkItem
	Agents    []store.Agent

	// Skipped lists files that failed codec parsing. They are logged
	// and skipped, never fatal to the import.
	Skipped []string
}
