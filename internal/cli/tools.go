package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/assistant/internal/tool"
)

func newToolsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the model can call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			c, err := buildContainer(ctx, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			if asJSON {
				descs := c.Tools().Descriptors()
				type entry struct {
					Name        string           `json:"name"`
					Description string           `json:"description"`
					Parameters  tool.InputSchema `json:"parameters"`
					Returns     string           `json:"returns,omitempty"`
				}
				entries := make([]entry, 0, len(descs))
				for _, d := range descs {
					entries = append(entries, entry{d.Name, d.Description, d.Schema(), d.Returns})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			if c.Plugins().Count() == 0 {
				fmt.Fprintln(out, "no tools enabled (plugins.enabled is empty)")
				return nil
			}
			for _, info := range c.Plugins().Info() {
				fmt.Fprintf(out, "%s: %s\n", info.ID, info.Description)
				for _, name := range info.Tools {
					t, err := c.Tools().Resolve(name)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "  %s(%s)\n", t.Name, formatParams(t.Parameters))
					fmt.Fprintf(out, "      %s\n", t.Description)
					if t.Returns != "" {
						fmt.Fprintf(out, "      returns: %s\n", t.Returns)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print descriptors with their JSON schema")
	return cmd
}

func formatParams(params []tool.Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		s := p.Name + " " + string(p.Type)
		if !p.Required {
			s += "?"
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}
