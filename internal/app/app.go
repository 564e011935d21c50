// Package app implements the interactive menu loop. It never touches agents
// directly: every step is an envelope sent to the router, ui_* actions for
// input and output and task_* actions for data.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
)

// Router is the subset of the orchestrator the loop depends on.
type Router interface {
	core.Handler
	Running() bool
}

// Options configures an App.
type Options struct {
	// Name is the sender of every envelope.
	Name string
	// Recipient names the router.
	Recipient string
	// Title is shown in the welcome banner and the menu.
	Title string
	// Version is shown in the welcome banner.
	Version string
	// UserID scopes every task action when set.
	UserID string
	Logger logging.Logger
}

// App is the menu driven console application.
type App struct {
	opts   Options
	router Router
	logger logging.Logger
	quit   bool
}

// New creates an app sending envelopes to router.
func New(router Router, optFns ...func(o *Options)) *App {
	opts := Options{
		Name:      "app",
		Recipient: "orchestrator",
		Title:     "Todo App",
		Version:   "1.0.0",
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &App{opts: opts, router: router, logger: logging.With(opts.Logger, "component", "app")}
}

// Run shows the menu until the user quits, the input ends, ctx is done or
// the router stops running.
func (a *App) Run(ctx context.Context) error {
	a.quit = false
	a.send(ctx, "ui_welcome", core.Payload{"app_name": a.opts.Title, "version": a.opts.Version})

	for !a.quit && a.router.Running() {
		if err := ctx.Err(); err != nil {
			return err
		}

		a.send(ctx, "ui_display_menu", core.Payload{"title": a.opts.Title + " Menu"})

		resp, err := a.request(ctx, "ui_get_choice", nil)
		if err != nil {
			return err
		}
		if !resp.IsSuccess() {
			// the presenter can no longer read input
			a.logger.Info("input closed", "error", resp.ErrorMessage())
			break
		}
		result, _ := resp.ResultMap()
		choice, _ := result["choice"].(string)

		switch strings.ToLower(strings.TrimSpace(choice)) {
		case "1":
			a.addTask(ctx)
		case "2":
			a.listTasks(ctx)
		case "3":
			a.updateTask(ctx)
		case "4":
			a.completeTask(ctx)
		case "5":
			a.deleteTask(ctx)
		case "6":
			a.viewTask(ctx)
		case "q":
			if r, ok := a.call(ctx, "ui_confirm", core.Payload{"prompt": "Are you sure you want to quit?", "default": true}); ok {
				a.quit, _ = r["confirmed"].(bool)
			}
		default:
			a.notify(ctx, core.MessageWarning, fmt.Sprintf("Unknown option: %s", choice))
		}
	}

	a.send(ctx, "ui_goodbye", nil)
	return nil
}

func (a *App) addTask(ctx context.Context) {
	details, ok := a.call(ctx, "ui_get_task_details", nil)
	if !ok {
		return
	}
	title, _ := details["title"].(string)
	if strings.TrimSpace(title) == "" {
		a.notify(ctx, core.MessageError, "Task title is required")
		return
	}

	payload := a.scoped(core.Payload{"title": title})
	if d, ok := details["description"].(string); ok {
		payload["description"] = d
	}
	if _, ok := a.call(ctx, "task_add", payload); ok {
		a.notify(ctx, core.MessageSuccess, "Task added successfully!")
	}
}

func (a *App) listTasks(ctx context.Context) {
	result, ok := a.call(ctx, "task_list", a.scoped(core.Payload{}))
	if !ok {
		return
	}
	a.send(ctx, "ui_display_tasks", core.Payload{"tasks": result["tasks"], "title": "All Tasks"})
}

func (a *App) updateTask(ctx context.Context) {
	id, ok := a.selectTask(ctx, core.Payload{}, "No tasks to update", "Select task to update")
	if !ok {
		return
	}
	current, ok := a.loadTask(ctx, id)
	if !ok {
		return
	}

	details, ok := a.call(ctx, "ui_get_update_details", core.Payload{
		"current_title":       current.Title,
		"current_description": current.Description,
	})
	if !ok {
		return
	}

	title, _ := details["title"].(string)
	description, _ := details["description"].(string)
	if title == current.Title && description == current.Description {
		a.notify(ctx, core.MessageInfo, "No changes made")
		return
	}

	payload := a.scoped(core.Payload{"task_id": id})
	if title != "" {
		payload["title"] = title
	}
	if description != "" {
		payload["description"] = description
	}
	if _, ok := a.call(ctx, "task_update", payload); ok {
		a.notify(ctx, core.MessageSuccess, "Task updated successfully!")
	}
}

func (a *App) completeTask(ctx context.Context) {
	id, ok := a.selectTask(ctx, core.Payload{"status": string(core.TaskPending)}, "No pending tasks to complete", "Select task to complete")
	if !ok {
		return
	}
	if !a.confirm(ctx, "Mark this task as complete?", true) {
		return
	}
	if _, ok := a.call(ctx, "task_complete", a.scoped(core.Payload{"task_id": id})); ok {
		a.notify(ctx, core.MessageSuccess, "Task completed!")
	}
}

func (a *App) deleteTask(ctx context.Context) {
	id, ok := a.selectTask(ctx, core.Payload{}, "No tasks to delete", "Select task to delete")
	if !ok {
		return
	}
	if !a.confirm(ctx, "Are you sure you want to delete this task?", false) {
		return
	}
	if _, ok := a.call(ctx, "task_delete", a.scoped(core.Payload{"task_id": id})); ok {
		a.notify(ctx, core.MessageSuccess, "Task deleted!")
	}
}

func (a *App) viewTask(ctx context.Context) {
	id, ok := a.selectTask(ctx, core.Payload{}, "No tasks to view", "Select task to view")
	if !ok {
		return
	}
	if t, ok := a.loadTask(ctx, id); ok {
		a.send(ctx, "ui_display_task", core.Payload{"task": t})
	}
}

// selectTask lists tasks matching query and lets the user pick one.
func (a *App) selectTask(ctx context.Context, query core.Payload, empty, prompt string) (string, bool) {
	result, ok := a.call(ctx, "task_list", a.scoped(query))
	if !ok {
		return "", false
	}
	if n, _ := result["count"].(int); n == 0 {
		a.notify(ctx, core.MessageInfo, empty)
		return "", false
	}

	selected, ok := a.call(ctx, "ui_select_task", core.Payload{"tasks": result["tasks"], "prompt": prompt})
	if !ok {
		return "", false
	}
	id, _ := selected["task_id"].(string)
	return id, id != ""
}

func (a *App) loadTask(ctx context.Context, id string) (core.Task, bool) {
	result, ok := a.call(ctx, "task_get", a.scoped(core.Payload{"task_id": id}))
	if !ok {
		return core.Task{}, false
	}
	t, err := core.TaskFromValue(result["task"])
	if err != nil {
		a.notify(ctx, core.MessageError, err.Error())
		return core.Task{}, false
	}
	return t, true
}

func (a *App) confirm(ctx context.Context, prompt string, def bool) bool {
	result, ok := a.call(ctx, "ui_confirm", core.Payload{"prompt": prompt, "default": def})
	if ok {
		if confirmed, _ := result["confirmed"].(bool); confirmed {
			return true
		}
	}
	a.notify(ctx, core.MessageInfo, "Cancelled")
	return false
}

func (a *App) scoped(p core.Payload) core.Payload {
	if a.opts.UserID != "" {
		p["user_id"] = a.opts.UserID
	}
	return p
}

// call sends action and returns its result map. Error responses are shown
// to the user and reported as !ok.
func (a *App) call(ctx context.Context, action string, payload core.Payload) (map[string]any, bool) {
	resp, err := a.request(ctx, action, payload)
	if err != nil {
		a.logger.Error("invalid envelope", "action", action, "error", err)
		return nil, false
	}
	if !resp.IsSuccess() {
		a.notify(ctx, core.MessageError, resp.ErrorMessage())
		return nil, false
	}
	result, _ := resp.ResultMap()
	if result == nil {
		result = map[string]any{}
	}
	return result, true
}

func (a *App) send(ctx context.Context, action string, payload core.Payload) {
	a.call(ctx, action, payload)
}

func (a *App) notify(ctx context.Context, kind core.MessageKind, text string) {
	if _, err := a.request(ctx, "ui_display_message", core.Payload{"message": text, "type": string(kind)}); err != nil {
		a.logger.Error("invalid envelope", "action", "ui_display_message", "error", err)
	}
}

func (a *App) request(ctx context.Context, action string, payload core.Payload) (core.Response, error) {
	msg, err := core.NewMessage(a.opts.Name, a.opts.Recipient, action, payload)
	if err != nil {
		return core.Response{}, err
	}
	a.logger.Debug("sending", "action", action, "request_id", msg.RequestID())
	return a.router.Handle(ctx, msg), nil
}
