package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/assistant/internal/config"
	"github.com/soyeahso/assistant/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show paths and a configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n", version.Info())

			fmt.Fprintf(out, "Config:  %s", paths.Config)
			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprint(out, " (not found, using defaults)")
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Data:    %s\n\n", paths.Data)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:  error loading: %v\n", err)
				return nil
			}

			fmt.Fprintf(out, "Gateway: port=%d bind=%s auth=%s\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Mode)

			providers := make([]string, 0, len(cfg.Models.Providers))
			for name, p := range cfg.Models.Providers {
				providers = append(providers, name+"("+p.API+")")
			}
			slices.Sort(providers)
			fmt.Fprintf(out, "Models:  default=%s providers=%s\n", cfg.Models.Default, strings.Join(providers, ", "))
			fmt.Fprintf(out, "Agent:   model=%s maxHops=%d toolTimeout=%s parallel=%v\n",
				cfg.Agent.Model, cfg.Agent.MaxHops, cfg.Agent.ToolTimeout, cfg.Agent.ParallelTools)
			fmt.Fprintf(out, "Plugins: %s\n", strings.Join(cfg.Plugins.Enabled, ", "))
			fmt.Fprintf(out, "Mail:    %s\n", cfg.Mail.Provider)

			switch {
			case cfg.Store.Disabled:
				fmt.Fprintln(out, "Store:   disabled")
			case cfg.Store.Path != "":
				fmt.Fprintf(out, "Store:   %s\n", cfg.Store.Path)
			default:
				fmt.Fprintf(out, "Store:   %s\n", paths.Transcripts)
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}
			return nil
		},
	}

	return cmd
}
