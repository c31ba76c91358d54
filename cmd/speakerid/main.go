package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"speakerid/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			if hint := services.HintFor(err); hint != "" {
				fmt.Fprintf(os.Stderr, "\n%s\n", hint)
			}
		}
		stop()
		os.Exit(1)
	}
}
