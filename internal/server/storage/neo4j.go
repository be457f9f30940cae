package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/task"
)

// Neo4j stores tasks as Task nodes in a Neo4j database.
type Neo4j struct {
	driver neo4j.DriverWithContext
}

// OpenNeo4j connects to the configured Neo4j instance and verifies it is
// reachable.
func OpenNeo4j(ctx context.Context, cfg config.Neo4jConfig) (*Neo4j, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("storage: neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("storage: neo4j connect %s: %w", cfg.URI, err)
	}
	return &Neo4j{driver: driver}, nil
}

// List implements Repository.
func (n *Neo4j) List(ctx context.Context) ([]task.Task, error) {
	session := n.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task) RETURN t.id AS id, t.title AS title, t.description AS description, t.completed AS completed",
			nil,
		)
		if err != nil {
			return nil, err
		}
		var tasks []task.Task
		for res.Next(ctx) {
			tasks = append(tasks, recordToTask(res.Record().Values))
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return tasks, nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: neo4j list: %w", err)
	}
	tasks, _ := result.([]task.Task)
	return tasks, nil
}

// Get implements Repository.
func (n *Neo4j) Get(ctx context.Context, id string) (task.Task, error) {
	session := n.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {id: $id}) RETURN t.id AS id, t.title AS title, t.description AS description, t.completed AS completed",
			map[string]any{"id": id},
		)
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			if err := res.Err(); err != nil {
				return nil, err
			}
			return nil, ErrNotFound
		}
		t := recordToTask(res.Record().Values)
		return t, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return task.Task{}, ErrNotFound
		}
		return task.Task{}, fmt.Errorf("storage: neo4j get %s: %w", id, err)
	}
	return result.(task.Task), nil
}

// Create implements Repository.
func (n *Neo4j) Create(ctx context.Context, title, description string) (task.Task, error) {
	t := task.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
	}
	session := n.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"CREATE (t:Task {id: $id, title: $title, description: $description, completed: $completed})",
			map[string]any{
				"id":          t.ID,
				"title":       t.Title,
				"description": t.Description,
				"completed":   t.Completed,
			},
		)
		return nil, err
	})
	if err != nil {
		return task.Task{}, fmt.Errorf("storage: neo4j create: %w", err)
	}
	return t, nil
}

// Update implements Repository. The read and write share one transaction
// so a concurrent update cannot be lost between them.
func (n *Neo4j) Update(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	session := n.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {id: $id}) RETURN t.id AS id, t.title AS title, t.description AS description, t.completed AS completed",
			map[string]any{"id": id},
		)
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			if err := res.Err(); err != nil {
				return nil, err
			}
			return nil, ErrNotFound
		}
		updated := patch.Apply(recordToTask(res.Record().Values))
		_, err = tx.Run(ctx,
			"MATCH (t:Task {id: $id}) SET t.title = $title, t.description = $description, t.completed = $completed",
			map[string]any{
				"id":          id,
				"title":       updated.Title,
				"description": updated.Description,
				"completed":   updated.Completed,
			},
		)
		if err != nil {
			return nil, err
		}
		return updated, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return task.Task{}, ErrNotFound
		}
		return task.Task{}, fmt.Errorf("storage: neo4j update %s: %w", id, err)
	}
	return result.(task.Task), nil
}

// Delete implements Repository.
func (n *Neo4j) Delete(ctx context.Context, id string) error {
	session := n.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {id: $id}) DETACH DELETE t RETURN count(t) AS deleted",
			map[string]any{"id": id},
		)
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			deleted, _ := res.Record().Values[0].(int64)
			return deleted, nil
		}
		return int64(0), res.Err()
	})
	if err != nil {
		return fmt.Errorf("storage: neo4j delete %s: %w", id, err)
	}
	if deleted, _ := result.(int64); deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// Close implements Repository.
func (n *Neo4j) Close(ctx context.Context) error {
	return n.driver.Close(ctx)
}

func recordToTask(values []any) task.Task {
	var t task.Task
	if v, ok := values[0].(string); ok {
		t.ID = v
	}
	if v, ok := values[1].(string); ok {
		t.Title = v
	}
	if v, ok := values[2].(string); ok {
		t.Description = v
	}
	if v, ok := values[3].(bool); ok {
		t.Completed = v
	}
	return t
}
