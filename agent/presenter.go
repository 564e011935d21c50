package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/taskmesh/core"
)

// MainMenu lists the options of the interactive task menu.
var MainMenu = []core.MenuOption{
	{Key: "1", Label: "Add Task"},
	{Key: "2", Label: "View All Tasks"},
	{Key: "3", Label: "Update Task"},
	{Key: "4", Label: "Mark Task Complete"},
	{Key: "5", Label: "Delete Task"},
	{Key: "6", Label: "View Task Details"},
	{Key: "q", Label: "Quit"},
}

// PresenterAgent adapts ui_* envelopes onto a core.Presenter.
type PresenterAgent struct {
	*BaseAgent
	presenter core.Presenter
}

// NewPresenterAgent creates a ui agent rendering through presenter.
func NewPresenterAgent(presenter core.Presenter, optFns ...func(o *Options)) *PresenterAgent {
	opts := buildOptions(PresenterAgentName, optFns)

	a := &PresenterAgent{BaseAgent: opts.base("ui"), presenter: presenter}

	a.Register("ui_display_menu", a.displayMenu)
	a.Register("ui_get_choice", a.getChoice)
	a.Register("ui_get_task_details", a.getTaskDetails)
	a.Register("ui_get_update_details", a.getUpdateDetails)
	a.Register("ui_display_tasks", a.displayTasks)
	a.Register("ui_display_task", a.displayTask)
	a.Register("ui_display_message", a.displayMessage)
	a.Register("ui_confirm", a.confirm)
	a.Register("ui_select_task", a.selectTask)
	a.Register("ui_welcome", a.welcome)
	a.Register("ui_goodbye", a.goodbye)

	return a
}

// Handle serves ui_* actions.
func (a *PresenterAgent) Handle(ctx context.Context, msg core.Message) core.Response {
	return a.Dispatch(ctx, msg)
}

func (a *PresenterAgent) displayMenu(_ context.Context, msg core.Message) (any, error) {
	p := msg.Payload()
	title := stringOr(p, "title", "Todo App Menu")

	options := MainMenu
	if p.Has("options") {
		parsed, err := menuOptions(p["options"])
		if err != nil {
			return nil, err
		}
		options = parsed
	}

	a.presenter.DisplayMenu(title, options)
	return nil, nil
}

func (a *PresenterAgent) getChoice(_ context.Context, msg core.Message) (any, error) {
	choice, err := a.presenter.Choice(stringOr(msg.Payload(), "prompt", "Choose an option"))
	if err != nil {
		return nil, fmt.Errorf("read choice: %w", err)
	}
	return map[string]any{"choice": choice}, nil
}

func (a *PresenterAgent) getTaskDetails(_ context.Context, _ core.Message) (any, error) {
	title, err := a.presenter.Text("Task title", "", true)
	if err != nil {
		return nil, fmt.Errorf("read title: %w", err)
	}
	description, err := a.presenter.Text("Description (optional)", "", false)
	if err != nil {
		return nil, fmt.Errorf("read description: %w", err)
	}
	return map[string]any{"title": title, "description": optional(description)}, nil
}

func (a *PresenterAgent) getUpdateDetails(_ context.Context, msg core.Message) (any, error) {
	p := msg.Payload()
	currentTitle := stringOr(p, "current_title", "")
	currentDescription := stringOr(p, "current_description", "")

	shown := currentDescription
	if shown == "" {
		shown = "No description"
	}
	a.presenter.DisplayMessage(core.MessageInfo, "Current title: "+currentTitle)
	a.presenter.DisplayMessage(core.MessageInfo, "Current description: "+shown)
	a.presenter.DisplayMessage(core.MessageInfo, "Press Enter to keep current value")

	title, err := a.presenter.Text("New title", currentTitle, false)
	if err != nil {
		return nil, fmt.Errorf("read title: %w", err)
	}
	description, err := a.presenter.Text("New description", currentDescription, false)
	if err != nil {
		return nil, fmt.Errorf("read description: %w", err)
	}
	return map[string]any{"title": optional(title), "description": optional(description)}, nil
}

func (a *PresenterAgent) displayTasks(_ context.Context, msg core.Message) (any, error) {
	p := msg.Payload()
	tasks, err := tasksFromPayload(p)
	if err != nil {
		return nil, err
	}
	a.presenter.DisplayTasks(tasks, stringOr(p, "title", "Tasks"))
	return map[string]any{"displayed": len(tasks)}, nil
}

func (a *PresenterAgent) displayTask(_ context.Context, msg core.Message) (any, error) {
	t, err := core.TaskFromValue(msg.Payload()["task"])
	if err != nil {
		return nil, err
	}
	a.presenter.DisplayTask(t)
	return nil, nil
}

func (a *PresenterAgent) displayMessage(_ context.Context, msg core.Message) (any, error) {
	p := msg.Payload()
	a.presenter.DisplayMessage(core.ParseMessageKind(stringOr(p, "type", "info")), stringOr(p, "message", ""))
	return nil, nil
}

func (a *PresenterAgent) confirm(_ context.Context, msg core.Message) (any, error) {
	p := msg.Payload()
	def, err := p.Bool("default", false)
	if err != nil {
		return nil, err
	}
	confirmed, err := a.presenter.Confirm(stringOr(p, "prompt", "Are you sure?"), def)
	if err != nil {
		return nil, fmt.Errorf("read confirmation: %w", err)
	}
	return map[string]any{"confirmed": confirmed}, nil
}

func (a *PresenterAgent) selectTask(_ context.Context, msg core.Message) (any, error) {
	p := msg.Payload()
	tasks, err := tasksFromPayload(p)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, core.NewValidationError("tasks", "no tasks available to select")
	}

	a.presenter.DisplayTasks(tasks, "Select a Task")

	choice, err := a.presenter.Text(stringOr(p, "prompt", "Select task number"), "", true)
	if err != nil {
		return nil, fmt.Errorf("read selection: %w", err)
	}

	n, err := strconv.Atoi(strings.TrimSpace(choice))
	if err != nil {
		return nil, core.NewValidationError("selection", fmt.Sprintf("invalid number: %s", choice))
	}
	idx := n - 1
	if idx < 0 || idx >= len(tasks) {
		return nil, core.NewValidationError("selection", fmt.Sprintf("invalid selection: %s", choice))
	}
	return map[string]any{"task_id": tasks[idx].ID, "index": idx}, nil
}

func (a *PresenterAgent) welcome(_ context.Context, msg core.Message) (any, error) {
	p := msg.Payload()
	a.presenter.DisplayWelcome(stringOr(p, "app_name", "Todo App"), stringOr(p, "version", DefaultVersion))
	return nil, nil
}

func (a *PresenterAgent) goodbye(_ context.Context, _ core.Message) (any, error) {
	a.presenter.DisplayGoodbye()
	return nil, nil
}

func stringOr(p core.Payload, key, def string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return def
}

// optional maps blank input to an absent value.
func optional(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func tasksFromPayload(p core.Payload) ([]core.Task, error) {
	items, err := p.Slice("tasks")
	if err != nil {
		return nil, err
	}
	tasks := make([]core.Task, 0, len(items))
	for _, item := range items {
		t, err := core.TaskFromValue(item)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func menuOptions(v any) ([]core.MenuOption, error) {
	switch opts := v.(type) {
	case []core.MenuOption:
		return opts, nil
	case []any:
		out := make([]core.MenuOption, 0, len(opts))
		for _, o := range opts {
			switch x := o.(type) {
			case core.MenuOption:
				out = append(out, x)
			case map[string]any:
				key, _ := x["key"].(string)
				label, _ := x["label"].(string)
				out = append(out, core.MenuOption{Key: key, Label: label})
			case []any:
				if len(x) != 2 {
					return nil, core.NewValidationError("options", "menu option pairs need a key and a label")
				}
				out = append(out, core.MenuOption{Key: fmt.Sprint(x[0]), Label: fmt.Sprint(x[1])})
			default:
				return nil, core.NewValidationError("options", fmt.Sprintf("unsupported menu option %T", o))
			}
		}
		return out, nil
	}
	return nil, core.NewValidationError("options", fmt.Sprintf("'options' must be a list, got %T", v))
}
