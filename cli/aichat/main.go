package main

import (
	"context"
	"os"
	"os/signal"

	aichatcmder "github.com/papercomputeco/aichat/cmd/aichat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	cmd := aichatcmder.NewAichatCmd()
	err := cmd.ExecuteContext(ctx)
	stop()

	os.Exit(aichatcmder.Exit(err, os.Stdout, os.Stderr))
}
