package main

import (
	"context"
	"fmt"
	"os"

	"broker/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "broker-validator:", err)
		os.Exit(1)
	}
}
