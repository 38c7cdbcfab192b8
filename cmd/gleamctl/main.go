// gleamctl queries relays and publishes events from the command line,
// using the same client and configuration as the web server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v2"

	"gleam/internal/cache"
	"gleam/internal/client"
	"gleam/internal/config"
	"gleam/internal/relay"
)

// Version is set by ldflags
var Version = "snapshot"

var (
	longctx      context.Context
	shutdownFunc func()
)

var app = cli.App{
	Name:    "gleamctl",
	Usage:   "query and publish to nostr relays",
	Version: Version,

	Flags: []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to gleam.yaml", EnvVars: []string{"GLEAM_CONFIG"}},
		&cli.StringSliceFlag{Name: "relay", Aliases: []string{"r"}, Usage: "relay URL, replaces the configured default and publish relays"},
		&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "overall deadline for the command"},
		&cli.BoolFlag{Name: "verbose", Usage: "debug logging on stderr"},
	},

	Before: initContext,
	After: func(*cli.Context) error {
		if shutdownFunc != nil {
			shutdownFunc()
		}
		return nil
	},
	Commands: []*cli.Command{
		keygenCmd,
		decodeCmd,
		feedCmd,
		threadCmd,
		profileCmd,
		postCmd,
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initContext(ctx *cli.Context) error {
	level := slog.LevelWarn
	if ctx.Bool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	longctx, shutdownFunc = context.WithTimeout(context.Background(), ctx.Duration("timeout"))
	signalc := make(chan os.Signal, 1)
	signal.Notify(signalc, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-signalc
		slog.Warn("shutting down", "signal", s)
		shutdownFunc()
	}()
	return nil
}

// newClient builds a relay-backed client with an in-memory cache.
func newClient(ctx *cli.Context) (*client.Client, func(), error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if relays := ctx.StringSlice("relay"); len(relays) > 0 {
		cfg.Relays.Default = relays
		cfg.Relays.Publish = relays
		cfg.Relays.Profile = nil
		cfg.Relays.Search = nil
	}
	pool := relay.NewPool(relay.Options{Logger: slog.Default()})
	backend := cache.NewMemoryCache(cfg.Cache.MaxEntries, 0)
	c := client.New(pool, pool, cfg, backend, slog.Default())
	cleanup := func() {
		pool.Close()
		backend.Close()
	}
	return c, cleanup, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
