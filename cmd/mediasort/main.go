package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"mediasort/internal/services"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "mediasort: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode separates setup mistakes (2) from run failures (1).
func exitCode(err error) int {
	if errors.Is(err, services.ErrConfiguration) || errors.Is(err, services.ErrValidation) {
		return 2
	}
	return 1
}
