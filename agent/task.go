package agent

import (
	"context"

	"github.com/hupe1980/taskmesh/core"
)

// TaskAgent implements the task_* business actions. It never touches
// persistence directly: every read and write is a storage_* envelope sent to
// its storage peer, carrying the correlation id of the request being served.
type TaskAgent struct {
	*BaseAgent
	storage     core.Handler
	storageName string
}

// NewTaskAgent creates a task agent that talks to storage through the given
// handler (the storage agent itself or a router in front of it).
func NewTaskAgent(storage core.Handler, optFns ...func(o *Options)) *TaskAgent {
	opts := buildOptions(TaskAgentName, optFns)

	storageName := StorageAgentName
	if named, ok := storage.(interface{ Name() string }); ok {
		storageName = named.Name()
	}

	a := &TaskAgent{BaseAgent: opts.base("task"), storage: storage, storageName: storageName}

	a.Register("task_add", a.add)
	a.Register("task_list", a.list)
	a.Register("task_get", a.get)
	a.Register("task_update", a.update)
	a.Register("task_complete", a.complete)
	a.Register("task_reopen", a.reopen)
	a.Register("task_delete", a.delete)
	a.Register("task_search", a.search)

	return a
}

// Handle serves task_* actions.
func (a *TaskAgent) Handle(ctx context.Context, msg core.Message) core.Response {
	return a.Dispatch(ctx, msg)
}

func (a *TaskAgent) add(ctx context.Context, msg core.Message) (any, error) {
	p := msg.Payload()

	title, err := p.String("title")
	if err != nil {
		return nil, err
	}
	description, _, err := p.OptionalString("description")
	if err != nil {
		return nil, err
	}
	userID, _, err := p.OptionalString("user_id")
	if err != nil {
		return nil, err
	}

	t, err := core.NewTask(title, description)
	if err != nil {
		return nil, err
	}
	t.UserID = userID

	return a.call(ctx, msg, "storage_save", core.Payload{"task": t})
}

func (a *TaskAgent) list(ctx context.Context, msg core.Message) (any, error) {
	p := msg.Payload()
	query := core.Payload{}
	if status, ok, err := p.OptionalString("status"); err != nil {
		return nil, err
	} else if ok && status != "" {
		query["status"] = status
	}
	if userID, ok, err := p.OptionalString("user_id"); err != nil {
		return nil, err
	} else if ok {
		query["user_id"] = userID
	}
	return a.call(ctx, msg, "storage_query", query)
}

func (a *TaskAgent) get(ctx context.Context, msg core.Message) (any, error) {
	t, err := a.load(ctx, msg)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": t}, nil
}

func (a *TaskAgent) update(ctx context.Context, msg core.Message) (any, error) {
	p := msg.Payload()

	var title, description *string
	if s, ok, err := p.OptionalString("title"); err != nil {
		return nil, err
	} else if ok {
		title = &s
	}
	if s, ok, err := p.OptionalString("description"); err != nil {
		return nil, err
	} else if ok {
		description = &s
	}
	if title == nil && description == nil {
		return nil, core.NewValidationError("title", "no update fields provided")
	}

	t, err := a.load(ctx, msg)
	if err != nil {
		return nil, err
	}
	updated, err := t.Update(title, description)
	if err != nil {
		return nil, err
	}
	return a.call(ctx, msg, "storage_update", core.Payload{"task": updated})
}

func (a *TaskAgent) complete(ctx context.Context, msg core.Message) (any, error) {
	t, err := a.load(ctx, msg)
	if err != nil {
		return nil, err
	}
	return a.call(ctx, msg, "storage_update", core.Payload{"task": t.MarkComplete()})
}

func (a *TaskAgent) reopen(ctx context.Context, msg core.Message) (any, error) {
	t, err := a.load(ctx, msg)
	if err != nil {
		return nil, err
	}
	return a.call(ctx, msg, "storage_update", core.Payload{"task": t.MarkPending()})
}

func (a *TaskAgent) delete(ctx context.Context, msg core.Message) (any, error) {
	p := msg.Payload()
	id, err := p.String("task_id")
	if err != nil {
		return nil, err
	}
	query := core.Payload{"task_id": id}
	if userID, ok, err := p.OptionalString("user_id"); err != nil {
		return nil, err
	} else if ok {
		query["user_id"] = userID
	}

	result, err := a.call(ctx, msg, "storage_delete", query)
	if err != nil {
		return nil, err
	}
	if deleted, _ := result["deleted"].(bool); !deleted {
		return nil, core.NewNotFoundError("task", id)
	}
	return map[string]any{"deleted": true, "task_id": id}, nil
}

func (a *TaskAgent) search(ctx context.Context, msg core.Message) (any, error) {
	p := msg.Payload()
	keyword, err := p.String("keyword")
	if err != nil {
		return nil, err
	}
	query := core.Payload{"keyword": keyword}
	if status, ok, err := p.OptionalString("status"); err != nil {
		return nil, err
	} else if ok && status != "" {
		query["status"] = status
	}
	if userID, ok, err := p.OptionalString("user_id"); err != nil {
		return nil, err
	} else if ok {
		query["user_id"] = userID
	}
	return a.call(ctx, msg, "storage_query", query)
}

// load fetches the task named by the payload's task_id through storage.
func (a *TaskAgent) load(ctx context.Context, msg core.Message) (core.Task, error) {
	p := msg.Payload()
	id, err := p.String("task_id")
	if err != nil {
		return core.Task{}, err
	}
	query := core.Payload{"task_id": id}
	if userID, ok, err := p.OptionalString("user_id"); err != nil {
		return core.Task{}, err
	} else if ok {
		query["user_id"] = userID
	}

	result, err := a.call(ctx, msg, "storage_get", query)
	if err != nil {
		return core.Task{}, err
	}
	return core.TaskFromValue(result["task"])
}

// call sends action to the storage peer on behalf of msg and returns the
// success result. Error responses come back as categorized errors.
func (a *TaskAgent) call(ctx context.Context, msg core.Message, action string, payload core.Payload) (map[string]any, error) {
	req, err := core.NewMessage(a.Name(), a.storageName, action, payload, core.WithCorrelationID(msg.CorrelationID()))
	if err != nil {
		return nil, err
	}

	resp := a.storage.Handle(ctx, req)
	if err := core.ResponseError(resp); err != nil {
		return nil, err
	}

	result, _ := resp.ResultMap()
	if result == nil {
		result = map[string]any{}
	}
	return result, nil
}
