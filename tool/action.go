package tool

import (
	"strings"

	"github.com/hupe1980/taskmesh/core"
)

// NewActionTool exposes action as a tool. The parameter schema is derived
// from args, a struct describing the accepted arguments (see
// NewFunctionToolFromStruct). The validated arguments become the envelope
// payload and the success result is returned to the model. Error responses
// surface as *ToolError whose code is the error kind.
//
// When the tool context carries a user id it is added to the payload unless
// the model supplied one.
func NewActionTool(name, description, action string, args any) *FunctionTool {
	return NewFunctionToolFromStruct(name, description, args, func(tc *Context, args map[string]any) (any, error) {
		payload := core.Payload(args).Clone()
		if tc.UserID != "" && !payload.Has("user_id") {
			payload["user_id"] = tc.UserID
		}

		resp, err := tc.Send(action, payload)
		if err != nil {
			return nil, err
		}
		if !resp.IsSuccess() {
			return nil, NewToolError(name, resp.ErrorMessage(), strings.ToUpper(string(resp.ErrorKind())))
		}
		return resp.Result(), nil
	})
}

// Tool arguments of the task_* actions.
type (
	AddTaskArgs struct {
		Title       string `json:"title" description:"Short task title (max 200 characters)"`
		Description string `json:"description,omitempty" description:"Optional details (max 1000 characters)"`
	}

	ListTasksArgs struct {
		Status string `json:"status,omitempty" description:"Filter by status" enum:"pending,completed"`
	}

	TaskIDArgs struct {
		TaskID string `json:"task_id" description:"Task id"`
	}

	UpdateTaskArgs struct {
		TaskID      string  `json:"task_id" description:"Task id"`
		Title       *string `json:"title" description:"New title"`
		Description *string `json:"description" description:"New description, empty to clear"`
	}

	SearchTasksArgs struct {
		Keyword string `json:"keyword" description:"Case-insensitive keyword"`
		Status  string `json:"status,omitempty" description:"Filter by status" enum:"pending,completed"`
	}
)

// TaskTools returns the tools exposing the task_* actions to a model.
func TaskTools() []Tool {
	return []Tool{
		NewActionTool("add_task", "Create a new task with a title and an optional description.", "task_add", AddTaskArgs{}),
		NewActionTool("list_tasks", "List tasks, optionally filtered by status.", "task_list", ListTasksArgs{}),
		NewActionTool("get_task", "Fetch a single task by id.", "task_get", TaskIDArgs{}),
		NewActionTool("update_task", "Change the title and/or description of a task.", "task_update", UpdateTaskArgs{}),
		NewActionTool("complete_task", "Mark a task as completed.", "task_complete", TaskIDArgs{}),
		NewActionTool("reopen_task", "Mark a completed task as pending again.", "task_reopen", TaskIDArgs{}),
		NewActionTool("delete_task", "Delete a task permanently.", "task_delete", TaskIDArgs{}),
		NewActionTool("search_tasks", "Search tasks whose title or description contains a keyword.", "task_search", SearchTasksArgs{}),
	}
}
