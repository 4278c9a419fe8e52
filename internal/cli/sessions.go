package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/assistant/internal/domain"
	"github.com/soyeahso/assistant/internal/store"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Browse recorded conversations",
	}

	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsShowCmd())
	cmd.AddCommand(newSessionsSearchCmd())
	cmd.AddCommand(newSessionsDeleteCmd())
	return cmd
}

// withTranscripts opens the store for the duration of fn.
func withTranscripts(fn func(ctx context.Context, ts *store.TranscriptStore) error) error {
	ctx, stop := signalContext()
	defer stop()

	db, ts, err := openTranscripts(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, ts)
}

// resolveSession expands an id prefix, turning a miss into a readable error.
func resolveSession(ctx context.Context, ts *store.TranscriptStore, prefix string) (string, error) {
	id, err := ts.ResolveID(ctx, prefix)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("no session matches %q", prefix)
	}
	return id, err
}

func newSessionsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recently active first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTranscripts(func(ctx context.Context, ts *store.TranscriptStore) error {
				sums, err := ts.ListSessions(ctx, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(sums) == 0 {
					fmt.Fprintln(out, "no sessions recorded")
					return nil
				}
				for _, s := range sums {
					fmt.Fprintf(out, "%-36s  %-16s  %3d turns  %s\n",
						s.ID, s.Model, s.TurnCount, s.UpdatedAt.Local().Format(time.DateTime))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of sessions")
	return cmd
}

func newSessionsShowCmd() *cobra.Command {
	var showSystem bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the transcript of a session",
		Long:  "Print the transcript of a session. Any unique prefix of the id is accepted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTranscripts(func(ctx context.Context, ts *store.TranscriptStore) error {
				id, err := resolveSession(ctx, ts, args[0])
				if err != nil {
					return err
				}
				turns, err := ts.Turns(ctx, id)
				if err != nil {
					return err
				}
				invs, err := ts.Invocations(ctx, id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session %s\n", id)
				for _, t := range turns {
					if t.Role == domain.RoleSystem && !showSystem {
						continue
					}
					printTurn(out, t)
				}
				if len(invs) > 0 {
					fmt.Fprintln(out, "\nTool runs:")
					for _, inv := range invs {
						line := fmt.Sprintf("  %s %s %s", inv.Tool, inv.Status, inv.Duration)
						if inv.Reason != "" {
							line += " (" + inv.Reason + ")"
						}
						fmt.Fprintln(out, line)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showSystem, "system", false, "include the system instructions")
	return cmd
}

func printTurn(w io.Writer, t domain.Turn) {
	switch {
	case t.Role == domain.RoleTool:
		fmt.Fprintf(w, "\n[tool %s] %s\n", t.ToolName, t.Content)
	case t.HasToolCalls():
		for _, c := range t.ToolCalls {
			fmt.Fprintf(w, "\n[%s -> %s] %s\n", t.Role, c.Name, c.Input)
		}
		if t.Content != "" {
			fmt.Fprintf(w, "[%s] %s\n", t.Role, t.Content)
		}
	default:
		fmt.Fprintf(w, "\n[%s] %s\n", t.Role, t.Content)
	}
}

func newSessionsSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across recorded turns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withTranscripts(func(ctx context.Context, ts *store.TranscriptStore) error {
				hits, err := ts.Search(ctx, query, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(hits) == 0 {
					fmt.Fprintln(out, "no matches")
					return nil
				}
				for _, h := range hits {
					fmt.Fprintf(out, "%s #%d [%s] %s\n", shortID(h.SessionID), h.Index, h.Turn.Role, snippet(h.Turn.Content, 100))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of matches")
	return cmd
}

func newSessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTranscripts(func(ctx context.Context, ts *store.TranscriptStore) error {
				id, err := resolveSession(ctx, ts, args[0])
				if err != nil {
					return err
				}
				if err := ts.DeleteSession(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				return nil
			})
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
