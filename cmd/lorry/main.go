package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	// An interrupt during a watch session is a normal shutdown, not a
	// failure worth reprinting.
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "lorry: %v\n", err)
	}
	os.Exit(1)
}
