package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cardvault/internal/runctx"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		os.Exit(runctx.ExitUnclassified)
	}
	fmt.Fprintln(os.Stderr, "cardvault:", err)
	os.Exit(runctx.ExitCode(err))
}
