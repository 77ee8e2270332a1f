// Command agentbridge runs the A2A bridge: it registers a fleet of remote
// agents at startup and exposes them over a plain HTTP and SSE API.
//
// Usage:
//
//	agentbridge serve --config config.yaml
//	agentbridge validate --config config.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"golang.org/x/sync/errgroup"

	"github.com/agentbridge/agentbridge"
	"github.com/agentbridge/agentbridge/pkg/agent"
	"github.com/agentbridge/agentbridge/pkg/bridge"
	"github.com/agentbridge/agentbridge/pkg/config"
	"github.com/agentbridge/agentbridge/pkg/config/provider"
	"github.com/agentbridge/agentbridge/pkg/discovery"
	"github.com/agentbridge/agentbridge/pkg/observability"
	"github.com/agentbridge/agentbridge/pkg/server"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the bridge server."`
	Validate ValidateCmd `cmd:"" help:"Validate configuration file."`

	Config    string `short:"c" help:"Path to config file." type:"path" default:"config.yaml"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(agentbridge.GetVersion())
	return nil
}

// ServeCmd starts the bridge server.
type ServeCmd struct {
	Port  int  `help:"Port to listen on (overrides config)."`
	Watch bool `help:"Watch config file for changes."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	p, err := provider.NewFileProvider(cli.Config)
	if err != nil {
		return err
	}
	loader := config.NewLoader(p)
	defer loader.Close()

	cfg, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	slog.Info("Loaded configuration", "path", cli.Config, "agents", len(cfg.Agents))

	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	obs, err := observability.Init(ctx, observability.Config{
		Tracing: observability.TracerConfig{
			Enabled:      cfg.Observability.Tracing.Enabled,
			ExporterType: cfg.Observability.Tracing.ExporterType,
			EndpointURL:  cfg.Observability.Tracing.EndpointURL,
			SamplingRate: cfg.Observability.Tracing.SamplingRate,
			ServiceName:  cfg.Observability.Tracing.ServiceName,
		},
		Metrics: observability.MetricsConfig{
			Enabled: cfg.Observability.Metrics.Enabled,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			slog.Warn("observability shutdown failed", "error", err)
		}
	}()

	var clientOpts []agent.ClientOption
	if cfg.Client.SendTimeout > 0 {
		clientOpts = append(clientOpts, agent.WithSendTimeout(cfg.Client.SendTimeout))
	}

	registry, err := agent.NewRegistry(ctx,
		discovery.NewStaticSource(cfg.Endpoints()),
		agent.WithClientOptions(clientOpts...),
	)
	if err != nil {
		return fmt.Errorf("failed to build agent registry: %w", err)
	}

	b := bridge.New(registry, bridge.WithBufferSize(cfg.Bridge.BufferSize))

	srv := server.New(cfg.Server.Host, cfg.Server.Port, registry, b,
		server.WithObservability(obs),
	)

	fmt.Printf("\nagentbridge ready\n")
	fmt.Printf("   Discovery:  http://%s/v1/agents\n", srv.Address())
	fmt.Printf("   Health:     http://%s/health\n", srv.Address())
	if cfg.Observability.Metrics.Enabled {
		fmt.Printf("   Metrics:    http://%s/metrics\n", srv.Address())
	}
	fmt.Println("\n   Agents:")
	for _, client := range registry.All() {
		status := "healthy"
		if !client.Healthy() {
			status = "unhealthy"
		}
		fmt.Printf("     - %s (%s)\n", client.Name(), status)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if c.Watch {
		g.Go(func() error {
			return loader.Watch(gctx)
		})
	}
	return g.Wait()
}

// ValidateCmd checks a configuration file without starting anything.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := config.LoadFromFile(context.Background(), cli.Config)
	if err != nil {
		return err
	}

	fmt.Printf("Configuration valid: %s\n", cli.Config)
	fmt.Printf("  Server: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  Agents: %d\n", len(cfg.Agents))
	for _, a := range cfg.Agents {
		transport := a.Transport
		if transport == "" {
			transport = "jsonrpc"
		}
		fmt.Printf("    - %s (%s)\n", a.Name, transport)
	}
	return nil
}

func main() {
	_ = config.LoadDotEnv("")

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("agentbridge"),
		kong.Description("agentbridge - HTTP and SSE gateway for A2A agents"),
		kong.UsageOnError(),
	)

	cleanup, err := initLogger(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
