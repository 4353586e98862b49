package main

import (
	"context"
	"fmt"
	"os"

	"go.miragespace.co/copper/cmd/copper"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	copper.CategorizedHelpPrinter()
	if err := copper.App.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
