// Command geotape composes geometric augmentations and applies them to
// images and annotations.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gogpu/geotape"
	"github.com/gogpu/geotape/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stderr, cli.LogInfo)
	if err := c.Execute(ctx, nil); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		if code := geotape.ErrorCode(err); code != "" {
			fmt.Fprintf(os.Stderr, "%s: %v\n", code, err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
