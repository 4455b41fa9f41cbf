package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/gemhub/market"
	"github.com/etnz/gemhub/server"
	"github.com/google/subcommands"
)

type serveCmd struct {
	listen  string
	refresh bool
	dev     bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the portfolio over HTTP" }
func (*serveCmd) Usage() string {
	return `gem serve [-listen :8080] [-refresh] [-dev]

  Serves the JSON API under /api, and a websocket at /api/stream pushing the portfolio
  after every change. With -refresh, prices are refreshed every GEM_REFRESH_INTERVAL.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.listen, "listen", "", "Address to listen on. Defaults to GEM_LISTEN.")
	f.BoolVar(&c.refresh, "refresh", false, "Refresh prices periodically")
	f.BoolVar(&c.dev, "dev", false, "Development mode: no response compression")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	listen := a.cfg.Listen
	if c.listen != "" {
		listen = c.listen
	}
	srv := server.New(a.sess, server.Config{Listen: listen, Mode: a.mode(), DevMode: c.dev, Log: a.log})

	if c.refresh {
		r, err := market.NewRefresher(a.sess, a.mode(), a.cfg.RefreshInterval, a.log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		r.Start()
		defer r.Stop()
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()
	fmt.Fprintf(os.Stderr, "Serving on %s, press Ctrl+C to stop.\n", listen)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			fmt.Fprintf(os.Stderr, "Error shutting down: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
