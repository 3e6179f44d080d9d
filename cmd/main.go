package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/desertthunder/soundbits/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{
		Logger:      logger,
		Interactive: IsTerminal(os.Stderr),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runner.app().Run(ctx, os.Args); err != nil {
		runner.logger.Fatalf("application error: %v", err)
	}
}
