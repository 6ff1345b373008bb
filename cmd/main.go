package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yungbote/instrument-catalog/internal/app"
)

func main() {
	log, err := app.NewLogger()
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, log)
	if err != nil {
		log.Error("Failed to init app", "error", err)
		os.Exit(1)
	}

	runErr := a.Run(ctx)

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Close(closeCtx)

	if runErr != nil {
		log.Error("Server stopped", "error", runErr)
		os.Exit(1)
	}
}
