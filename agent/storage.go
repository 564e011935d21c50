package agent

import (
	"context"

	"github.com/hupe1980/taskmesh/core"
)

// StorageAgent adapts storage_* envelopes onto a core.TaskStore. It holds no
// business rules: validation beyond decoding the payload belongs to the task
// agent.
type StorageAgent struct {
	*BaseAgent
	store core.TaskStore
}

// NewStorageAgent creates a storage agent backed by store.
func NewStorageAgent(store core.TaskStore, optFns ...func(o *Options)) *StorageAgent {
	opts := buildOptions(StorageAgentName, optFns)

	a := &StorageAgent{BaseAgent: opts.base("storage"), store: store}

	a.Register("storage_save", a.save)
	a.Register("storage_get", a.get)
	a.Register("storage_get_all", a.getAll)
	a.Register("storage_update", a.update)
	a.Register("storage_delete", a.delete)
	a.Register("storage_query", a.query)
	a.Register("storage_clear", a.clear)

	return a
}

// Start activates the agent. When the store can be pinged and the ping
// fails the agent enters core.AgentError instead.
func (a *StorageAgent) Start(ctx context.Context) {
	if p, ok := a.store.(core.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			a.Logger().Error("storage backend unavailable", "error", err)
			a.SetStatus(core.AgentError)
			return
		}
	}
	a.BaseAgent.Start(ctx)
}

// Handle serves storage_* actions.
func (a *StorageAgent) Handle(ctx context.Context, msg core.Message) core.Response {
	return a.Dispatch(ctx, msg)
}

func (a *StorageAgent) save(ctx context.Context, msg core.Message) (any, error) {
	t, err := core.TaskFromValue(msg.Payload()["task"])
	if err != nil {
		return nil, err
	}
	saved, err := a.store.Save(ctx, t)
	if err != nil {
		return nil, storeError("save", err)
	}
	return map[string]any{"task": saved}, nil
}

func (a *StorageAgent) get(ctx context.Context, msg core.Message) (any, error) {
	p := msg.Payload()
	id, err := p.String("task_id")
	if err != nil {
		return nil, err
	}
	userID, _, err := p.OptionalString("user_id")
	if err != nil {
		return nil, err
	}

	t, ok, err := a.store.Get(ctx, id, userID)
	if err != nil {
		return nil, storeError("get", err)
	}
	if !ok {
		return nil, core.NewNotFoundError("task", id)
	}
	return map[string]any{"task": t}, nil
}

func (a *StorageAgent) getAll(ctx context.Context, msg core.Message) (any, error) {
	userID, _, err := msg.Payload().OptionalString("user_id")
	if err != nil {
		return nil, err
	}
	tasks, err := a.store.GetAll(ctx, userID)
	if err != nil {
		return nil, storeError("get_all", err)
	}
	return taskList(tasks), nil
}

func (a *StorageAgent) update(ctx context.Context, msg core.Message) (any, error) {
	t, err := core.TaskFromValue(msg.Payload()["task"])
	if err != nil {
		return nil, err
	}
	updated, err := a.store.Update(ctx, t)
	if err != nil {
		return nil, storeError("update", err)
	}
	return map[string]any{"task": updated}, nil
}

func (a *StorageAgent) delete(ctx context.Context, msg core.Message) (any, error) {
	p := msg.Payload()
	id, err := p.String("task_id")
	if err != nil {
		return nil, err
	}
	userID, _, err := p.OptionalString("user_id")
	if err != nil {
		return nil, err
	}

	deleted, err := a.store.Delete(ctx, id, userID)
	if err != nil {
		return nil, storeError("delete", err)
	}
	return map[string]any{"deleted": deleted, "task_id": id}, nil
}

func (a *StorageAgent) query(ctx context.Context, msg core.Message) (any, error) {
	filter, err := filterFromPayload(msg.Payload())
	if err != nil {
		return nil, err
	}
	tasks, err := a.store.Query(ctx, filter)
	if err != nil {
		return nil, storeError("query", err)
	}
	return taskList(tasks), nil
}

func (a *StorageAgent) clear(ctx context.Context, msg core.Message) (any, error) {
	userID, _, err := msg.Payload().OptionalString("user_id")
	if err != nil {
		return nil, err
	}
	n, err := a.store.Clear(ctx, userID)
	if err != nil {
		return nil, storeError("clear", err)
	}
	return map[string]any{"cleared": n}, nil
}

// storeError keeps not found and validation failures in their category and
// reports everything else as a storage failure of op.
func storeError(op string, err error) error {
	switch core.KindOf(err) {
	case core.KindNotFound, core.KindValidation, core.KindStorage:
		return err
	}
	return core.NewStorageError(op, err)
}

func filterFromPayload(p core.Payload) (core.TaskFilter, error) {
	var f core.TaskFilter

	status, ok, err := p.OptionalString("status")
	if err != nil {
		return f, err
	}
	if ok && status != "" {
		if f.Status, err = core.ParseTaskStatus(status); err != nil {
			return f, err
		}
	}

	if f.UserID, _, err = p.OptionalString("user_id"); err != nil {
		return f, err
	}
	if f.Keyword, _, err = p.OptionalString("keyword"); err != nil {
		return f, err
	}
	return f, nil
}

func taskList(tasks []core.Task) map[string]any {
	if tasks == nil {
		tasks = []core.Task{}
	}
	return map[string]any{"tasks": tasks, "count": len(tasks)}
}
