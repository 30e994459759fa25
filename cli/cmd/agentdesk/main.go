package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/agentdesk/agentdesk-go/cli/internal/cli/agentdesk"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := agentdesk.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
