package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/orchestrator"
)

func newStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show orchestrator and agent status",
		Args:  cobra.NoArgs,
		RunE: taskRunner(flags, func(cmd *cobra.Command, s *session, _ []string) error {
			result, err := s.send(cmd.Context(), "system_status", nil)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			return printStatus(cmd.OutOrStdout(), result)
		}),
	}
}

func printStatus(w io.Writer, result map[string]any) error {
	orch, _ := result["orchestrator"].(map[string]any)
	running := "stopped"
	if r, _ := orch["running"].(bool); r {
		running = "running"
	}
	_, _ = fmt.Fprintf(w, "%s %v v%v (%v, %s)\n", color.New(color.Bold).Sprint("Orchestrator:"), orch["name"], orch["version"], orch["status"], running)

	agents, _ := result["agents"].([]core.AgentDescriptor)
	_, _ = fmt.Fprintf(w, "Agents (%d):\n", len(agents))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, a := range agents {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\tv%s\t%d actions\n", a.Name, a.Status, a.Version, len(a.SupportedActions))
	}
	return tw.Flush()
}

func newRoutesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Show the action prefix routing table",
		Args:  cobra.NoArgs,
		RunE: taskRunner(flags, func(cmd *cobra.Command, s *session, _ []string) error {
			result, err := s.send(cmd.Context(), "system_routes", nil)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			routes, _ := result["routes"].([]orchestrator.Route)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "PREFIX\tAGENT")
			for _, r := range routes {
				_, _ = fmt.Fprintf(tw, "%s*\t%s\n", r.Prefix, r.Agent)
			}
			return tw.Flush()
		}),
	}
}
