// Command sessionctl drives a session from the terminal: log in, inspect,
// refresh and log out against the configured authority.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/jrsteele09/go-session-client/internal/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := config.New()
	a := &app{
		cfg:       c,
		logger:    obs.NewLogger(c.GetEnv(), c.GetLogLevel()),
		out:       os.Stdout,
		in:        os.Stdin,
		openStore: openConfiguredStore(c),
	}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "sessionctl:", err)
		os.Exit(1)
	}
}
