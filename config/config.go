package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	Discord  DiscordConfig  `json:"discord"`
	Database DatabaseConfig `json:"database"`
	Tickets  TicketsConfig  `json:"tickets"`
	LangFile string         `json:"lang_file"`
}

type DiscordConfig struct {
	Token   string `json:"token"`
	GuildID string `json:"guild_id"`
}

type DatabaseConfig struct {
	Driver   string         `json:"driver"`
	Postgres PostgresConfig `json:"postgres"`
	SQLite   SQLiteConfig   `json:"sqlite"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type SQLiteConfig struct {
	Path string `json:"path"`
}

type TicketsConfig struct {
	// Seconds a closed ticket channel stays around so participants can
	// read the closure summary before deletion.
	DeleteDelaySubmit int `json:"delete_delay_submit_seconds"`
	DeleteDelaySkip   int `json:"delete_delay_skip_seconds"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if tok := os.Getenv("DISCORD_TOKEN"); tok != "" {
		cfg.Discord.Token = tok
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.Driver = "postgres"
		cfg.Database.Postgres.DSN = dsn
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLite.Path == "" {
		cfg.Database.SQLite.Path = "data/bot.db"
	}
	if cfg.Tickets.DeleteDelaySubmit <= 0 {
		cfg.Tickets.DeleteDelaySubmit = 15
	}
	if cfg.Tickets.DeleteDelaySkip <= 0 {
		cfg.Tickets.DeleteDelaySkip = 10
	}
	if cfg.LangFile == "" {
		cfg.LangFile = "lang.yml"
	}
	return &cfg, nil
}
