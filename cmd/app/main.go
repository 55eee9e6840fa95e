package main

import (
	"flag"
	"log"
	"os"

	"BrentShift/internal/di"
	"BrentShift/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", "detect", "run mode: detect, serve, or both")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s mode=%s prices=%s export=%s",
		cfg.Environment, *mode, cfg.Data.PricesPath, cfg.Export.Backend)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(*mode); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
