package main

import (
	"flag"
	"log"
	"os"

	"MarketMind/internal/di"
	"MarketMind/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("marketmind starting env=%s backend=%s agents=%s symbols=%d",
		cfg.Environment, cfg.Backend.Type, cfg.Agents.Mode, len(cfg.Newswire.Symbols))

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run blocks until SIGINT/SIGTERM.
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
