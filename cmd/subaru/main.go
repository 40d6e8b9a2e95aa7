package main

import (
	"context"
	"fmt"
	"os"

	"github.com/N474NR4/UCHI-Subaru/internal/cli"
	"github.com/N474NR4/UCHI-Subaru/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := cli.NewRootCommand(cfg).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
