package services

import (
	"context"
	"fmt"

	"github.com/adjutant-ai/adjutant/internal/capability"
	"github.com/adjutant-ai/adjutant/internal/store"
)

// Tasks is the task-list collaborator, backed by the task store.
type Tasks struct {
	tasks *store.TaskStore
}

func NewTasks(tasks *store.TaskStore) *Tasks {
	return &Tasks{tasks: tasks}
}

func (t *Tasks) Methods() []capability.Method {
	return []capability.Method{
		{
			Name: "create_task",
			Params: []capability.ParamSpec{
				{Name: "title", Type: capability.TypeString, Required: true},
				{Name: "description", Type: capability.TypeString, HasDefault: true, Default: ""},
				{Name: "due_date", Type: capability.TypeString, HasDefault: true, Default: ""},
			},
			Invoke: t.createTask,
		},
		{
			Name: "get_tasks",
			Params: []capability.ParamSpec{
				{Name: "include_completed", Type: capability.TypeBool, HasDefault: true, Default: false},
			},
			Invoke: t.getTasks,
		},
	}
}

func (t *Tasks) createTask(ctx context.Context, args capability.Args) (any, error) {
	title := stringArg(args, "title")
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	id, err := t.tasks.Insert(ctx, store.Task{
		Title: title,
		Notes: stringArg(args, "description"),
		Due:   stringArg(args, "due_date"),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"status": "created", "id": id, "title": title}, nil
}

func (t *Tasks) getTasks(ctx context.Context, args capability.Args) (any, error) {
	tasks, err := t.tasks.List(ctx, boolArg(args, "include_completed"))
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, map[string]any{
			"id":    task.ID,
			"title": task.Title,
			"notes": task.Notes,
			"due":   task.Due,
			"done":  task.Done,
		})
	}
	return out, nil
}
