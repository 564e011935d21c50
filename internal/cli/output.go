package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hupe1980/taskmesh/console"
	"github.com/hupe1980/taskmesh/core"
)

func printJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// printTask renders result["task"] with a leading status line.
func printTask(w io.Writer, result map[string]any, asJSON bool, headline string) error {
	if asJSON {
		return printJSON(w, result)
	}
	t, err := core.TaskFromValue(result["task"])
	if err != nil {
		return err
	}
	c := console.New(nil, w)
	if headline != "" {
		c.DisplayMessage(core.MessageSuccess, headline)
	}
	c.DisplayTask(t)
	return nil
}

// printTasks renders result["tasks"] as a table.
func printTasks(w io.Writer, result map[string]any, asJSON bool, title string) error {
	if asJSON {
		return printJSON(w, result)
	}
	tasks, err := tasksFrom(result["tasks"])
	if err != nil {
		return err
	}
	console.New(nil, w).DisplayTasks(tasks, title)
	return nil
}

func tasksFrom(v any) ([]core.Task, error) {
	switch tasks := v.(type) {
	case nil:
		return nil, nil
	case []core.Task:
		return tasks, nil
	case []any:
		out := make([]core.Task, 0, len(tasks))
		for _, item := range tasks {
			t, err := core.TaskFromValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected task list %T", v)
	}
}
