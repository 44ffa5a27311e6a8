package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

const indexDirPerms = 0o750

// persist writes the index file via write-to-temp-then-rename so an
// interrupted write never leaves a half-written index behind.
func (p *Project) persist(idx *Index) error {
	path := p.IndexPath()

	mkdirErr := os.MkdirAll(filepath.Dir(path), indexDirPerms)
	if mkdirErr != nil {
		return fmt.Errorf("creating index directory: %w", mkdirErr)
	}

	data, marshalErr := json.MarshalIndent(idx, "", "  ")
	if marshalErr != nil {
		return fmt.Errorf("encoding index: %w", marshalErr)
	}

	writeErr := atomic.WriteFile(path, bytes.NewReader(data))
	if writeErr != nil {
		return fmt.Errorf("writing index: %w", writeErr)
	}

	return nil
}

// Load reads the persisted index. It returns nil on a missing,
// unreadable, corrupt, or version-mismatched file; every such failure
// means "rebuild", never an error surfaced to the caller.
func (p *Project) Load() *Index {
	data, readErr := os.ReadFile(p.IndexPath())
	if readErr != nil {
		return nil
	}

	var idx Index

	unmarshalErr := json.Unmarshal(data, &idx)
	if unmarshalErr != nil {
		fmt.Fprintf(p.diag, "loading index: invalid format, rebuilding\n")

		return nil
	}

	if idx.Version != Version {
		fmt.Fprintf(p.diag, "loading index: version %q, want %q, rebuilding\n", idx.Version, Version)

		return nil
	}

	return &idx
}
