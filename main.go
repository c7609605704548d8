// main is the entry point for the reddot CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/reddot/cmd"
	"github.com/huangsam/reddot/internal/contract"
	"github.com/huangsam/reddot/internal/iocache"
)

func main() {
	// Ctrl-C cancels the walk between files
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd.SetCacheManager(iocache.Manager)
	err := cmd.ExecuteContext(ctx)

	if profErr := cmd.StopProfiling(); profErr != nil {
		contract.LogWarn("Failed to stop profiling", profErr)
	}
	iocache.CloseStores()
	stop()

	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
