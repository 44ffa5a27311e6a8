package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateProject inserts a project document and returns it with its
// generated UUID key.
func (s *Store) CreateProject(ctx context.Context, name string, createdAt time.Time) (Project, error) {
	proj := Project{ID: uuid.NewString(), Name: name, CreatedAt: createdAt.UTC()}

	_, execErr := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)`,
		proj.ID, proj.Name, proj.CreatedAt.Format(time.RFC3339),
	)
	if execErr != nil {
		return Project{}, fmt.Errorf("creating project: %w", execErr)
	}

	return proj, nil
}

// GetProject reads one project document.
func (s *Store) GetProject(ctx context.Context, id string) (Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM projects WHERE id = ?`, id,
	)

	var (
		proj    Project
		created string
	)

	scanErr := row.Scan(&proj.ID, &proj.Name, &created)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return Project{}, fmt.Errorf("%w: project %s", ErrNotFound, id)
		}

		return Project{}, fmt.Errorf("reading project: %w", scanErr)
	}

	proj.CreatedAt, _ = time.Parse(time.RFC3339, created)

	return proj, nil
}

// CreateWorkItem inserts a work-item document. The UUID key is
// generated here; item.ID is ignored on input.
func (s *Store) CreateWorkItem(ctx context.Context, item WorkItem) (WorkItem, error) {
	item.ID = uuid.NewString()

	_, execErr := s.db.ExecContext(ctx,
		`INSERT INTO work_items (
			id, project_id, record_id, title, item_type, status, priority,
			functional_area, parent_record_id, depth, order_index,
			estimated_effort, created_at, updated_at, body, snippets
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.ProjectID, item.RecordID, item.Title, item.Type,
		item.Status, item.Priority, item.FunctionalArea, item.ParentRecordID,
		item.Depth, item.OrderIndex, item.EstimatedEffort,
		item.CreatedAt.UTC().Format(time.RFC3339), item.UpdatedAt.UTC().Format(time.RFC3339),
		item.Body, item.Snippets,
	)
	if execErr != nil {
		return WorkItem{}, fmt.Errorf("creating work item %s: %w", item.RecordID, execErr)
	}

	return item, nil
}

// ListWorkItems reads all work items for a project, ordered by
// (order_index, record_id).
func (s *Store) ListWorkItems(ctx context.Context, projectID string) ([]WorkItem, error) {
	rows, queryErr := s.db.QueryContext(ctx,
		`SELECT id, project_id, record_id, title, item_type, status, priority,
			functional_area, parent_record_id, depth, order_index,
			estimated_effort, created_at, updated_at, body, snippets
		FROM work_items WHERE project_id = ?
		ORDER BY order_index, record_id`, projectID,
	)
	if queryErr != nil {
		return nil, fmt.Errorf("listing work items: %w", queryErr)
	}

	defer func() { _ = rows.Close() }()

	var items []WorkItem

	for rows.Next() {
		var (
			item             WorkItem
			created, updated string
		)

		scanErr := rows.Scan(
			&item.ID, &item.ProjectID, &item.RecordID, &item.Title, &item.Type,
			&item.Status, &item.Priority, &item.FunctionalArea, &item.ParentRecordID,
			&item.Depth, &item.OrderIndex, &item.EstimatedEffort,
			&created, &updated, &item.Body, &item.Snippets,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning work item: %w", scanErr)
		}

		item.CreatedAt, _ = time.Parse(time.RFC3339, created)
		item.UpdatedAt, _ = time.Parse(time.RFC3339, updated)

		items = append(items, item)
	}

	rowsErr := rows.Err()
	if rowsErr != nil {
		return nil, fmt.Errorf("listing work items: %w", rowsErr)
	}

	return items, nil
}

// CreateAgent inserts an agent document.
func (s *Store) CreateAgent(ctx context.Context, agent Agent) (Agent, error) {
	agent.ID = uuid.NewString()

	_, execErr := s.db.ExecContext(ctx,
		`INSERT INTO agents (id, project_id, record_id, name, order_index, body, snippets)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		agent.ID, agent.ProjectID, agent.RecordID, agent.Name, agent.OrderIndex,
		agent.Body, agent.Snippets,
	)
	if execErr != nil {
		return Agent{}, fmt.Errorf("creating agent %s: %w", agent.RecordID, execErr)
	}

	return agent, nil
}

// ListAgents reads all agents for a project, ordered by
// (order_index, record_id).
func (s *Store) ListAgents(ctx context.Context, projectID string) ([]Agent, error) {
	rows, queryErr := s.db.QueryContext(ctx,
		`SELECT id, project_id, record_id, name, order_index, body, snippets
		FROM agents WHERE project_id = ?
		ORDER BY order_index, record_id`, projectID,
	)
	if queryErr != nil {
		return nil, fmt.Errorf("listing agents: %w", queryErr)
	}

	defer func() { _ = rows.Close() }()

	var agents []Agent

	for rows.Next() {
		var agent Agent

		scanErr := rows.Scan(
			&agent.ID, &agent.ProjectID, &agent.RecordID, &agent.Name,
			&agent.OrderIndex, &agent.Body, &agent.Snippets,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning agent: %w", scanErr)
		}

		agents = append(agents, agent)
	}

	rowsErr := rows.Err()
	if rowsErr != nil {
		return nil, fmt.Errorf("listing agents: %w", rowsErr)
	}

	return agents, nil
}
