// Command rohdgo-demo runs every example scenario once and prints its
// result: build the module graph, run the scheduler, print the outcome,
// exit through atexit so registered cleanup hooks run.
package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/rohdgo/examples"
)

func main() {
	ctx := context.Background()

	scenarios := 0
	atexit.Register(func() {
		slog.Info("rohdgo demo finished", "scenarios", scenarios)
	})

	counter, err := examples.RunCounter(ctx)
	if err != nil {
		slog.Error("counter scenario failed", "err", err)
		atexit.Exit(1)
	}
	scenarios++
	fmt.Println("counter:", counter)

	maxVal, err := examples.RunMaxTree(ctx)
	if err != nil {
		slog.Error("max-tree scenario failed", "err", err)
		atexit.Exit(1)
	}
	scenarios++
	fmt.Println("max-reduction tree:", maxVal)

	bus, err := examples.RunTriStateBus(ctx)
	if err != nil {
		slog.Error("tri-state bus scenario failed", "err", err)
		atexit.Exit(1)
	}
	scenarios++
	fmt.Println("tri-state bus:", bus)

	atexit.Exit(0)
}
