package rehydrate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/boardfile-dev/boardfile/internal/record"
	"github.com/boardfile-dev/boardfile/internal/snippet"
)

const (
	exportDirPerms  = 0o750
	exportFilePerms = 0o600
)

// ExportProject writes a project's documents from the store back into a
// directory tree, one file per record, creating parent directories as
// needed. Known snippet directives are re-serialized into
// ::type[label]{attrs} source form. Export is idempotent: exporting,
// re-importing, and exporting again produces byte-equivalent files.
func (e *Engine) ExportProject(ctx context.Context, projectID, root string) error {
	proj, getErr := e.store.GetProject(ctx, projectID)
	if getErr != nil {
		return getErr
	}

	mkdirErr := os.MkdirAll(root, exportDirPerms)
	if mkdirErr != nil {
		return fmt.Errorf("creating project root: %w", mkdirErr)
	}

	descriptor := &record.Record{
		ID:        proj.ID,
		Title:     proj.Name,
		CreatedAt: proj.CreatedAt,
	}

	descriptorErr := writeRecordFile(filepath.Join(root, descriptorFile), descriptor)
	if descriptorErr != nil {
		return descriptorErr
	}

	items, listErr := e.store.ListWorkItems(ctx, projectID)
	if listErr != nil {
		return listErr
	}

	itemsPath := filepath.Join(root, workItemsDir)

	mkdirErr = os.MkdirAll(itemsPath, exportDirPerms)
	if mkdirErr != nil {
		return fmt.Errorf("creating work-items directory: %w", mkdirErr)
	}

	for _, item := range items {
		rec := &record.Record{
			ID:              item.RecordID,
			Title:           item.Title,
			Type:            item.Type,
			Status:          item.Status,
			Priority:        item.Priority,
			FunctionalArea:  item.FunctionalArea,
			ParentID:        item.ParentRecordID,
			Depth:           item.Depth,
			OrderIndex:      item.OrderIndex,
			EstimatedEffort: item.EstimatedEffort,
			CreatedAt:       item.CreatedAt,
			UpdatedAt:       item.UpdatedAt,
			Body:            restoreBody(item.Body, item.Snippets),
		}

		writeErr := writeRecordFile(filepath.Join(itemsPath, record.Filename(rec.ID)), rec)
		if writeErr != nil {
			return writeErr
		}
	}

	agents, agentsErr := e.store.ListAgents(ctx, projectID)
	if agentsErr != nil {
		return agentsErr
	}

	if len(agents) == 0 {
		return nil
	}

	agentsPath := filepath.Join(root, agentsDir)

	mkdirErr = os.MkdirAll(agentsPath, exportDirPerms)
	if mkdirErr != nil {
		return fmt.Errorf("creating agents directory: %w", mkdirErr)
	}

	for _, agent := range agents {
		rec := &record.Record{
			ID:         agent.RecordID,
			Title:      agent.Name,
			OrderIndex: agent.OrderIndex,
			Body:       restoreBody(agent.Body, agent.Snippets),
		}

		writeErr := writeRecordFile(filepath.Join(agentsPath, record.Filename(rec.ID)), rec)
		if writeErr != nil {
			return writeErr
		}
	}

	return nil
}

// restoreBody converts a rendered body back into directive source form
// by replacing each snippet placeholder with its serialized directive.
// Placeholders with no matching snippet are left in place.
func restoreBody(rendered, snippetsJSON string) string {
	var snippets []snippet.Snippet

	unmarshalErr := json.Unmarshal([]byte(snippetsJSON), &snippets)
	if unmarshalErr != nil || len(snippets) == 0 {
		return rendered
	}

	body := rendered

	for idx := range snippets {
		snip := &snippets[idx]
		body = strings.ReplaceAll(body, snippet.Placeholder(snip.ID), snippet.Serialize(snip))
	}

	return body
}

func writeRecordFile(path string, rec *record.Record) error {
	content := record.Render(rec)

	writeErr := atomic.WriteFile(path, strings.NewReader(content))
	if writeErr != nil {
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}

	// atomic.WriteFile does not set permissions for new files.
	chmodErr := os.Chmod(path, exportFilePerms)
	if chmodErr != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, chmodErr)
	}

	return nil
}
