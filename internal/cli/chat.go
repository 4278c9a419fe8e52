package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/assistant/internal/agent"
)

func newChatCmd() *cobra.Command {
	var (
		instructions string
		showTools    bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant on the console",
		Long: "Starts one conversation and reads requests from stdin until EOF or /exit.\n" +
			"Answers stream back as the model produces them.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			return chatLoop(ctx, c.Runner(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), chatOptions{
				instructions: instructions,
				showTools:    showTools,
			})
		},
	}

	cmd.Flags().StringVar(&instructions, "instructions", "", "system instructions for this conversation")
	cmd.Flags().BoolVar(&showTools, "show-tools", false, "print each tool call and its outcome")
	return cmd
}

type chatOptions struct {
	instructions string
	showTools    bool
}

// chatLoop reads one request per line. A failed turn is reported and the
// conversation continues with its history intact.
func chatLoop(ctx context.Context, r *agent.Runner, in io.Reader, out, errOut io.Writer, opts chatOptions) error {
	sess := r.StartSession(ctx, opts.instructions)

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		fmt.Fprint(out, "\nYour request:\n")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		request := strings.TrimSpace(sc.Text())
		switch request {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		}

		fmt.Fprint(out, "Assistant:\n")
		for ev := range r.Submit(ctx, sess, request) {
			switch ev.Type {
			case agent.EventDelta:
				fmt.Fprint(out, ev.Content)
			case agent.EventToolResult:
				if !opts.showTools {
					break
				}
				if ev.Reason != "" {
					fmt.Fprintf(errOut, "[%s %s: %s]\n", ev.Tool, ev.Status, ev.Reason)
				} else {
					fmt.Fprintf(errOut, "[%s %s]\n", ev.Tool, ev.Status)
				}
			case agent.EventError:
				fmt.Fprintf(errOut, "error: %v\n", ev.Err)
			}
		}
		fmt.Fprintln(out)

		if ctx.Err() != nil {
			return nil
		}
	}
}
