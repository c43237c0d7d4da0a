package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pokedex/catalog/internal/config"
	"pokedex/catalog/internal/container"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("pokedex", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to a YAML config file (default ./config.yaml if present)")
	mode := flags.String("mode", container.ModeBrowse, "browse, detail, warm or clear")
	pages := flags.Int("pages", 1, "browse: number of pages to load")
	query := flags.String("query", "", "browse: search by name substring or exact id")
	id := flags.Int("id", 0, "detail: id to show")
	flags.String("cache.backend", "", "cache backend: memory, redis or postgres")
	flags.String("log.level", "", "log level")
	flags.Parse(os.Args[1:])

	// Load configuration using viper
	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	configureLogging(cfg.Log)
	log.Debugf("Configuration loaded, cache backend: %s", cfg.Cache.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize container with all dependencies
	app, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer app.Close()

	err = app.Run(ctx, container.RunOptions{
		Mode:  *mode,
		Pages: *pages,
		Query: *query,
		ID:    *id,
	})
	if err != nil {
		app.Close()
		log.Fatalf("Application exited with error: %v", err)
	}
}

func configureLogging(cfg config.LogConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
