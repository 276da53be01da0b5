// cmd/mvp-server/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"presales-mvp/internal/common/config"
	"presales-mvp/internal/common/logger"
	"presales-mvp/internal/mcpserver"
	"presales-mvp/internal/models"
)

var (
	configPath string

	runScenario  string
	runBrief     string
	runSessionID string
)

var rootCmd = &cobra.Command{
	Use:   "mvp-server",
	Short: "Pre-sales scenario service",
	Long: `Runs pre-sales scenarios (qualify, proposal, pricing) against a customer brief.

Serve the HTTP API with "serve", run a single scenario with "run",
or expose the scenarios as an MCP tool over stdio with "mcp".`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /api/mvp/run plus health, readiness and metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			return a.serve(ctx)
		})
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one scenario and print the JSON result",
	Example: `  mvp-server run --scenario pricing --brief "ACME, 3 month data platform rollout"
  mvp-server run --scenario qualify --brief - < brief.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		brief, err := readBrief(runBrief)
		if err != nil {
			return err
		}
		req := models.MVPRequest{Scenario: models.Scenario(runScenario), Brief: brief}
		if runSessionID != "" {
			req.SessionID = &runSessionID
		}

		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			resp, err := a.dispatcher.Execute(ctx, req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(resp)
		})
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the mvp_run tool over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			s := mcpserver.New(a.cfg.App.Version, a.dispatcher, a.catalog, a.log)
			return mcpserver.ServeStdio(s)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: configs/config.yaml plus config.<APP_ENVIRONMENT>.yaml)")

	runCmd.Flags().StringVarP(&runScenario, "scenario", "s", "", "Scenario id: qualify, proposal or pricing")
	runCmd.Flags().StringVarP(&runBrief, "brief", "b", "", `Customer brief, or "-" to read it from stdin`)
	runCmd.Flags().StringVar(&runSessionID, "session-id", "", "Session id echoed in the result")
	_ = runCmd.MarkFlagRequired("scenario")
	_ = runCmd.MarkFlagRequired("brief")

	rootCmd.AddCommand(serveCmd, runCmd, mcpCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// withApp loads config, builds the app, runs fn and releases the app.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		zapLog.Error("startup failed", zap.Error(err))
		return err
	}
	defer a.close()

	if err := fn(ctx, a); err != nil && !errors.Is(err, context.Canceled) {
		zapLog.Error("command failed", zap.Error(err))
		return err
	}
	return nil
}

func readBrief(arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read brief from stdin: %w", err)
	}
	return string(data), nil
}
