package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/assistant/internal/agent"
)

func newSendCmd() *cobra.Command {
	var (
		instructions string
		stream       bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Send one request and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")

			ctx, stop := signalContext()
			defer stop()

			cfg, err := loadValidConfig()
			if err != nil {
				return err
			}
			c, err := buildContainer(ctx, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			runner := c.Runner()
			sess := runner.StartSession(ctx, instructions)

			var cb agent.StreamCallback
			if stream && !asJSON {
				cb = func(ev agent.Event) {
					if ev.Type == agent.EventDelta {
						fmt.Fprint(out, ev.Content)
					}
				}
			}
			result, err := runner.RunStream(ctx, sess, message, cb)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			if stream {
				fmt.Fprintln(out)
			} else {
				fmt.Fprintln(out, result.Response)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "\n[model=%s hops=%d tools=%d tokens=%d+%d]\n",
				result.Model, result.Hops, result.ToolCalls, result.Usage.InputTokens, result.Usage.OutputTokens)
			return nil
		},
	}

	cmd.Flags().StringVar(&instructions, "instructions", "", "system instructions for this request")
	cmd.Flags().BoolVar(&stream, "stream", false, "stream the answer as it is produced")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}
