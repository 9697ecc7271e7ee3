package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/input-output-hk/s3mv/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// a second interrupt terminates immediately
	go func() {
		<-ctx.Done()
		stop()
	}()

	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
