package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/taskmesh/console"
	"github.com/hupe1980/taskmesh/core"
)

// taskRunner opens a session, runs fn and closes the session again.
func taskRunner(flags *rootFlags, fn func(cmd *cobra.Command, s *session, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		s, err := openSession(cmd, flags)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := s.Close(cmd.Context()); cerr != nil && err == nil {
				err = cerr
			}
		}()
		return fn(cmd, s, args)
	}
}

func newTaskCmds(flags *rootFlags) []*cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: taskRunner(flags, func(cmd *cobra.Command, s *session, args []string) error {
			payload := s.scoped(core.Payload{"title": strings.Join(args, " ")})
			if d, _ := cmd.Flags().GetString("description"); d != "" {
				payload["description"] = d
			}
			result, err := s.send(cmd.Context(), "task_add", payload)
			if err != nil {
				return err
			}
			return printTask(cmd.OutOrStdout(), result, flags.asJSON, "Task added")
		}),
	}
	addCmd.Flags().StringP("description", "d", "", "Task description")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: taskRunner(flags, func(cmd *cobra.Command, s *session, _ []string) error {
			payload := s.scoped(core.Payload{})
			title := "All Tasks"
			if status, _ := cmd.Flags().GetString("status"); status != "" {
				payload["status"] = status
				title = strings.ToUpper(status[:1]) + status[1:] + " Tasks"
			}
			result, err := s.send(cmd.Context(), "task_list", payload)
			if err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), result, flags.asJSON, title)
		}),
	}
	listCmd.Flags().String("status", "", "Filter by status (pending or completed)")

	getCmd := &cobra.Command{
		Use:   "get <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: taskRunner(flags, func(cmd *cobra.Command, s *session, args []string) error {
			result, err := s.send(cmd.Context(), "task_get", s.scoped(core.Payload{"task_id": args[0]}))
			if err != nil {
				return err
			}
			return printTask(cmd.OutOrStdout(), result, flags.asJSON, "")
		}),
	}

	updateCmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Change a task's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: taskRunner(flags, func(cmd *cobra.Command, s *session, args []string) error {
			payload := s.scoped(core.Payload{"task_id": args[0]})
			if cmd.Flags().Changed("title") {
				payload["title"], _ = cmd.Flags().GetString("title")
			}
			if cmd.Flags().Changed("description") {
				payload["description"], _ = cmd.Flags().GetString("description")
			}
			result, err := s.send(cmd.Context(), "task_update", payload)
			if err != nil {
				return err
			}
			return printTask(cmd.OutOrStdout(), result, flags.asJSON, "Task updated")
		}),
	}
	updateCmd.Flags().String("title", "", "New title")
	updateCmd.Flags().StringP("description", "d", "", "New description")

	completeCmd := simpleTaskCmd(flags, "complete", "Mark a task as completed", "task_complete", "Task completed")
	reopenCmd := simpleTaskCmd(flags, "reopen", "Mark a completed task as pending again", "task_reopen", "Task reopened")

	deleteCmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: taskRunner(flags, func(cmd *cobra.Command, s *session, args []string) error {
			result, err := s.send(cmd.Context(), "task_delete", s.scoped(core.Payload{"task_id": args[0]}))
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			console.New(nil, cmd.OutOrStdout()).DisplayMessage(core.MessageSuccess, fmt.Sprintf("Task deleted: %s", args[0]))
			return nil
		}),
	}

	searchCmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search task titles and descriptions",
		Args:  cobra.MinimumNArgs(1),
		RunE: taskRunner(flags, func(cmd *cobra.Command, s *session, args []string) error {
			keyword := strings.Join(args, " ")
			payload := s.scoped(core.Payload{"keyword": keyword})
			if status, _ := cmd.Flags().GetString("status"); status != "" {
				payload["status"] = status
			}
			result, err := s.send(cmd.Context(), "task_search", payload)
			if err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), result, flags.asJSON, fmt.Sprintf("Tasks matching %q", keyword))
		}),
	}
	searchCmd.Flags().String("status", "", "Filter by status (pending or completed)")

	return []*cobra.Command{addCmd, listCmd, getCmd, updateCmd, completeCmd, reopenCmd, deleteCmd, searchCmd}
}

func simpleTaskCmd(flags *rootFlags, use, short, action, headline string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: taskRunner(flags, func(cmd *cobra.Command, s *session, args []string) error {
			result, err := s.send(cmd.Context(), action, s.scoped(core.Payload{"task_id": args[0]}))
			if err != nil {
				return err
			}
			return printTask(cmd.OutOrStdout(), result, flags.asJSON, headline)
		}),
	}
}
