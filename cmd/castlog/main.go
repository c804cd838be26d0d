package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	return newRootCommand().Execute()
}
