package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/taskmesh/agent"
	"github.com/hupe1980/taskmesh/core"
)

func newChatCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the chat assistant to manage tasks",
		Long:  "Send one message to the chat assistant. Requires a model provider (model.provider or TASKMESH_MODEL_PROVIDER).",
		Args:  cobra.MinimumNArgs(1),
		RunE: taskRunner(flags, func(cmd *cobra.Command, s *session, args []string) error {
			if !s.mesh.ChatEnabled() {
				return errors.New("chat is disabled: configure a model provider")
			}

			payload := s.scoped(core.Payload{"message": strings.Join(args, " ")})
			if conv, _ := cmd.Flags().GetString("conversation"); conv != "" {
				payload["conversation_id"] = conv
			}

			result, err := s.send(cmd.Context(), "chat_send", payload)
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}

			w := cmd.OutOrStdout()
			if actions, _ := result["actions"].([]agent.ToolAction); len(actions) > 0 {
				for _, a := range actions {
					mark := color.GreenString("✓")
					if !a.OK {
						mark = color.RedString("✗")
					}
					_, _ = fmt.Fprintf(w, "%s %s\n", mark, a.Tool)
				}
			}
			_, _ = fmt.Fprintln(w, result["reply"])
			_, _ = fmt.Fprintln(w, color.New(color.Faint).Sprintf("conversation: %v", result["conversation_id"]))
			return nil
		}),
	}
	cmd.Flags().String("conversation", "", "Continue an existing conversation id")
	return cmd
}
