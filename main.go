package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"discord-ticket-bot/bot"
	"discord-ticket-bot/config"
	"discord-ticket-bot/handlers"
	"discord-ticket-bot/lang"
	"discord-ticket-bot/storage"
	"discord-ticket-bot/tickets"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to config file")
	cleanup := flag.Bool("cleanup", false, "Remove slash commands on shutdown")
	flag.Parse()

	// A missing .env is fine, config.json and real env vars still apply.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Discord.Token == "" || cfg.Discord.Token == "YOUR_DISCORD_BOT_TOKEN_HERE" {
		log.Fatal("Set your bot token in config.json → discord.token or the DISCORD_TOKEN env var")
	}

	lang.Load(cfg.LangFile)

	store, err := storage.InitStore(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer store.Close()

	b, err := bot.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	platform := handlers.NewDiscordPlatform(b.Session)
	manager := tickets.NewManager(store, platform,
		time.Duration(cfg.Tickets.DeleteDelaySubmit)*time.Second,
		time.Duration(cfg.Tickets.DeleteDelaySkip)*time.Second,
	)

	handlers.Cfg = cfg
	handlers.Store = store
	handlers.Tickets = manager

	handlers.Register(b.Session)
	handlers.RegisterEvents(b.Session)

	if err := b.Start(); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}
	defer b.Stop()

	b.RegisterCommands(handlers.Commands())

	// Pending channel deletions survive restarts; the scheduler sweeps
	// them for the lifetime of the process.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tickets.NewScheduler(store, platform).Run(ctx)

	log.Println("Bot is running. Press Ctrl+C to exit.")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	if *cleanup {
		b.CleanupCommands()
	}
}
