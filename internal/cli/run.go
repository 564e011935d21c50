package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/taskmesh/internal/app"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive task menu",
		Args:  cobra.NoArgs,
		RunE: taskRunner(flags, func(cmd *cobra.Command, s *session, _ []string) error {
			a := app.New(s.mesh, func(o *app.Options) {
				o.UserID = s.userID
				o.Version = version
				o.Logger = s.logger
			})
			return a.Run(cmd.Context())
		}),
	}
}
