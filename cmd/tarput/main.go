package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tarput-io/tarput/internal/app"
	"github.com/tarput-io/tarput/internal/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	if err := app.NewApp(cfg).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tarput: %v\n", err)
		os.Exit(1)
	}
}
