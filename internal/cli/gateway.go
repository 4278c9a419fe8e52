package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/assistant/internal/config"
	"github.com/soyeahso/assistant/internal/gateway"
)

func newGatewayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Serve the assistant over WebSocket",
	}

	cmd.AddCommand(newGatewayRunCmd())
	cmd.AddCommand(newGatewayHealthCmd())
	return cmd
}

func newGatewayRunCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}
			if err := checkConfig(cfg); err != nil {
				return err
			}

			c, err := buildContainer(ctx, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			log.Info().
				Strs("plugins", c.Plugins().List()).
				Strs("providers", c.Models().List()).
				Int("tools", c.Tools().Len()).
				Msg("gateway services ready")
			return c.Gateway().Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")
	return cmd
}

func newGatewayHealthCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe a running gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			url := "http://" + net.JoinHostPort(probeHost(cfg.Gateway), strconv.Itoa(cfg.Gateway.Port)) + "/health"
			h, err := fetchHealth(ctx, url)
			if err != nil {
				return fmt.Errorf("gateway not reachable at %s: %w", url, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", url, h.Status)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "probe timeout")
	return cmd
}

// probeHost picks an address a local client can reach the gateway on.
func probeHost(g config.GatewayConfig) string {
	if g.Bind == "custom" && g.CustomBindHost != "" {
		return g.CustomBindHost
	}
	return "127.0.0.1"
}

func fetchHealth(ctx context.Context, url string) (gateway.HealthResponse, error) {
	var h gateway.HealthResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return h, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return h, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return h, fmt.Errorf("unexpected status %s", resp.Status)
	}
	err = json.NewDecoder(resp.Body).Decode(&h)
	return h, err
}
