package main

import (
	"context"
	"log"
	"os"

	"github.com/dpavel/songsync/internal/buildinfo"
	"github.com/dpavel/songsync/internal/client/cli"
	"github.com/dpavel/songsync/internal/client/config"
	"github.com/dpavel/songsync/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewTextLogger(os.Stderr)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)
}
