package rehydrate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/boardfile-dev/boardfile/internal/record"
	"github.com/boardfile-dev/boardfile/internal/snippet"
	"github.com/boardfile-dev/boardfile/internal/store"
)

// ImportProject walks a project tree and creates its documents in the
// store. Files that fail codec parsing are logged and skipped.
func (e *Engine) ImportProject(ctx context.Context, root string) (*ImportResult, error) {
	result := &ImportResult{}

	name, createdAt := e.readDescriptor(root)

	proj, createErr := e.store.CreateProject(ctx, name, createdAt)
	if createErr != nil {
		return nil, createErr
	}

	result.Project = proj

	itemsErr := e.importWorkItems(ctx, root, proj.ID, result)
	if itemsErr != nil {
		return nil, itemsErr
	}

	agentsErr := e.importAgents(ctx, root, proj.ID, result)
	if agentsErr != nil {
		return nil, agentsErr
	}

	return result, nil
}

// readDescriptor parses the top-level project.md. A missing or
// unparsable descriptor degrades to the directory name.
func (e *Engine) readDescriptor(root string) (string, time.Time) {
	path := filepath.Join(root, descriptorFile)

	raw, readErr := os.ReadFile(path)
	if readErr != nil {
		return filepath.Base(root), time.Now()
	}

	rec, parseErr := record.Parse(raw, path, record.FileStat{})
	if parseErr != nil {
		fmt.Fprintf(e.diag, "skipping descriptor %s: %v\n", path, parseErr)

		return filepath.Base(root), time.Now()
	}

	name := rec.Title
	if name == "" {
		name = filepath.Base(root)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return name, createdAt
}

func (e *Engine) importWorkItems(ctx context.Context, root, projectID string, result *ImportResult) error {
	for _, path := range recordFiles(filepath.Join(root, workItemsDir)) {
		rec, parseErr := parseRecordFile(path)
		if parseErr != nil {
			fmt.Fprintf(e.diag, "skipping %s: %v\n", path, parseErr)

			result.Skipped = append(result.Skipped, path)

			continue
		}

		doc := snippet.Parse(rec.Body)
		applyDirectiveDefaults(rec, doc.Snippets)

		item := store.WorkItem{
			ProjectID:       projectID,
			RecordID:        rec.ID,
			Title:           rec.Title,
			Type:            rec.Type,
			Status:          rec.Status,
			Priority:        rec.Priority,
			FunctionalArea:  rec.FunctionalArea,
			ParentRecordID:  rec.ParentID,
			Depth:           rec.Depth,
			OrderIndex:      rec.OrderIndex,
			EstimatedEffort: rec.EstimatedEffort,
			CreatedAt:       rec.CreatedAt,
			UpdatedAt:       rec.UpdatedAt,
			Body:            doc.Rendered,
			Snippets:        encodeSnippets(doc.Snippets),
		}

		created, createErr := e.store.CreateWorkItem(ctx, item)
		if createErr != nil {
			return createErr
		}

		result.WorkItems = append(result.WorkItems, created)
	}

	return nil
}

func (e *Engine) importAgents(ctx context.Context, root, projectID string, result *ImportResult) error {
	for pos, path := range recordFiles(filepath.Join(root, agentsDir)) {
		rec, parseErr := parseRecordFile(path)
		if parseErr != nil {
			fmt.Fprintf(e.diag, "skipping %s: %v\n", path, parseErr)

			result.Skipped = append(result.Skipped, path)

			continue
		}

		doc := snippet.Parse(rec.Body)

		name := rec.Title
		if name == "" {
			name = rec.ID
		}

		orderIndex := rec.OrderIndex
		if orderIndex < agentOrderBase {
			orderIndex = agentOrderBase + pos
		}

		agent := store.Agent{
			ProjectID:  projectID,
			RecordID:   rec.ID,
			Name:       name,
			OrderIndex: orderIndex,
			Body:       doc.Rendered,
			Snippets:   encodeSnippets(doc.Snippets),
		}

		created, createErr := e.store.CreateAgent(ctx, agent)
		if createErr != nil {
			return createErr
		}

		result.Agents = append(result.Agents, created)
	}

	return nil
}

// recordFiles lists the .md files of a directory in sorted order. A
// missing directory yields nothing.
func recordFiles(dir string) []string {
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		return nil
	}

	var paths []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".md") {
			continue
		}

		paths = append(paths, filepath.Join(dir, name))
	}

	sort.Strings(paths)

	return paths
}

func parseRecordFile(path string) (*record.Record, error) {
	raw, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("reading record: %w", readErr)
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		return nil, fmt.Errorf("stat record: %w", statErr)
	}

	return record.Parse(raw, path, record.FileStat{Mtime: info.ModTime(), Size: info.Size()})
}

// applyDirectiveDefaults fills missing type/status/priority from the
// first task directive in the body, then from the codec defaults.
// Directives act as the fallback source of truth for files whose
// frontmatter predates those fields.
func applyDirectiveDefaults(rec *record.Record, snippets []snippet.Snippet) {
	var taskSnip *snippet.Snippet

	for idx := range snippets {
		if snippets[idx].Type == snippet.TypeTask {
			taskSnip = &snippets[idx]

			break
		}
	}

	if rec.Type == "" {
		rec.Type = defaultFrom(taskSnip, "type", record.DefaultType)
	}

	if rec.Status == "" {
		rec.Status = defaultFrom(taskSnip, "status", record.DefaultStatus)
	}

	if rec.Priority == "" {
		rec.Priority = defaultFrom(taskSnip, "priority", record.DefaultPriority)
	}
}

func defaultFrom(taskSnip *snippet.Snippet, key, fallback string) string {
	if taskSnip != nil {
		if value := taskSnip.Attr(key); value != "" {
			return value
		}
	}

	return fallback
}

func encodeSnippets(snippets []snippet.Snippet) string {
	if len(snippets) == 0 {
		return "[]"
	}

	data, marshalErr := json.Marshal(snippets)
	if marshalErr != nil {
		// Snippets are plain strings; marshaling cannot fail in
		// practice. Degrade to an empty list rather than aborting.
		return "[]"
	}

	return string(data)
}
