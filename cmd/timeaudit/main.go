package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/sandeepkv93/timeaudit/internal/cli"
	"github.com/sandeepkv93/timeaudit/internal/config"
	"github.com/sandeepkv93/timeaudit/internal/rules"
	"github.com/sandeepkv93/timeaudit/internal/storage"
	"github.com/sandeepkv93/timeaudit/internal/tracker"
)

var version = "0.3.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global := pflag.NewFlagSet("timeaudit", pflag.ContinueOnError)
	global.SetInterspersed(false)
	configPath := global.String("config", config.DefaultPath(), "path to the configuration file")
	if err := global.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "timeaudit: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store, err := storage.Open(cfg.DataDir())
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	app := &cli.App{
		Config:  cfg,
		Store:   store,
		Tracker: tracker.New(store),
		Engine:  rules.New(store),
		Version: version,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
	os.Exit(app.Run(ctx, global.Args()))
}
