package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/df-mc/dragonfly/server"
	"github.com/df-mc/dragonfly/server/player/chat"
	"github.com/dm-vev/netcore/core"
	"github.com/dm-vev/netcore/core/console"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"
)

type options struct {
	networkConfig string
	serverConfig  string
	console       bool
}

func newRootCmd() *cobra.Command {
	opts := options{networkConfig: "netcore.toml", serverConfig: "config.toml", console: true}
	rootCmd := &cobra.Command{
		Use:   "netcore",
		Short: "Runs a server of the network",
		Long: `netcore runs a Dragonfly server with the network core: shared ranks,
economy, achievements and cross-server messaging.

Network settings are read from the network config and may be overridden by
NETCORE_* environment variables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.networkConfig, "config", opts.networkConfig, "Network config file")
	rootCmd.Flags().StringVar(&opts.serverConfig, "server-config", opts.serverConfig, "Dragonfly server config file")
	rootCmd.Flags().BoolVar(&opts.console, "console", opts.console, "Read commands from stdin")
	rootCmd.AddCommand(newInspectCmd(&opts))
	return rootCmd
}

func run(ctx context.Context, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := core.LoadConfig(opts.networkConfig)
	if err != nil {
		return fmt.Errorf("load network config: %w", err)
	}
	level, err := core.ParseLevel(conf.Server.LogLevel)
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	chat.Global.Subscribe(chat.StdoutSubscriber{})

	c, err := core.New(ctx, conf, log)
	if err != nil {
		return fmt.Errorf("start network core: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Error("Failed to close network core.", "err", err)
		}
	}()

	srvConf, err := readServerConfig(opts.serverConfig, log)
	if err != nil {
		return err
	}
	c.Configure(&srvConf)
	srv := srvConf.New()
	srv.CloseOnProgramEnd()

	c.Start(srv)
	if opts.console {
		go console.New(srv.World(), log).Run(ctx)
	}
	srv.Listen()
	for p := range srv.Accept() {
		c.Accept(p)
	}
	return nil
}

// readServerConfig reads the Dragonfly config at path, writing the defaults
// if the file does not exist.
func readServerConfig(path string, log *slog.Logger) (server.Config, error) {
	c := server.DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		data, err := toml.Marshal(c)
		if err != nil {
			return server.Config{}, fmt.Errorf("encode default server config: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return server.Config{}, fmt.Errorf("create default server config: %w", err)
		}
	case err != nil:
		return server.Config{}, fmt.Errorf("read server config: %w", err)
	default:
		if err := toml.Unmarshal(data, &c); err != nil {
			return server.Config{}, fmt.Errorf("decode server config: %w", err)
		}
	}
	return c.Config(log)
}
