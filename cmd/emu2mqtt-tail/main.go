// Prints the readings of a running emu2mqtt live feed as JSON lines.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NotCoffee418/emu2mqtt/pkg/livefeed"
	"github.com/NotCoffee418/emu2mqtt/pkg/types"
)

func main() {
	// Set the host:port from env var LIVEFEED_HOST
	host := os.Getenv("LIVEFEED_HOST")
	if host == "" {
		host = "localhost:9039"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Subscribe to websocket with revive
	livefeed.StartListener(ctx, host, handleReading)
}

func handleReading(reading *types.FeedReading) {
	fmt.Println(string(reading.ToJsonBytes()))
}
