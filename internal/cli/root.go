// Package cli implements the taskmesh command line.
package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/taskmesh"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/hupe1980/taskmesh/internal/cli.version=1.2.3"
	version = taskmesh.Version
	logo    = "\n" +
		"  _            _                        _\n" +
		" | |_ __ _ ___| | ___ __ ___   ___  ___| |__\n" +
		" | __/ _` / __| |/ / '_ ` _ \\ / _ \\/ __| '_ \\\n" +
		" | || (_| \\__ \\   <| | | | | |  __/\\__ \\ | | |\n" +
		"  \\__\\__,_|___/_|\\_\\_| |_| |_|\\___||___/_| |_|\n"
)

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	configPath string
	backend    string
	dbPath     string
	logLevel   string
	userID     string
	asJSON     bool
}

// NewRootCommand builds the command tree. Every call returns an independent
// tree so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "taskmesh",
		Short:         "taskmesh - agent based task manager",
		Long:          color.CyanString(logo) + "\nManage tasks through a mesh of cooperating agents.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML config file")
	pf.StringVar(&flags.backend, "backend", "", "Storage backend (memory or sqlite)")
	pf.StringVar(&flags.dbPath, "db", "", "SQLite database path")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.userID, "user", "", "Scope every task action to this user id")
	pf.BoolVar(&flags.asJSON, "json", false, "Output machine-readable JSON")

	root.AddCommand(
		newVersionCmd(),
		newRunCmd(flags),
		newStatusCmd(flags),
		newRoutesCmd(flags),
		newChatCmd(flags),
	)
	root.AddCommand(newTaskCmds(flags)...)

	return root
}

// Execute runs the root command. An interrupt cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}
