/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/fulmenhq/plimage/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cmd.Execute(ctx)
}
