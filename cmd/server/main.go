package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophview/internal/buildinfo"
	"github.com/dmitrijs2005/gophview/internal/logging"
	"github.com/dmitrijs2005/gophview/internal/server"
	"github.com/dmitrijs2005/gophview/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}
}
