package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the bot's runtime configuration, read from the environment after
// an optional .env file.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required,notEmpty"`
	// GuildIDs limits command registration to these guilds; empty registers
	// globally.
	GuildIDs       []string `env:"DISCORD_GUILD_IDS" envSeparator:","`
	GuildBlacklist []string `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
	// InitSlashCommands disables registration sync when false.
	InitSlashCommands bool   `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
	StoragePath       string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile           string `env:"LOG_FILE"`
	SyncWorkers       int    `env:"SYNC_WORKERS" envDefault:"4"`
	DeveloperID       string `env:"DEVELOPER_ID"`
}

// Load reads the .env files (missing files are fine) and parses the
// environment into a Config.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SyncWorkers < 1 {
		return nil, fmt.Errorf("SYNC_WORKERS must be positive, got %d", cfg.SyncWorkers)
	}
	return &cfg, nil
}

// Blacklisted reports whether the bot should ignore guildID.
func (c *Config) Blacklisted(guildID string) bool {
	return slices.Contains(c.GuildBlacklist, guildID)
}

// IsDeveloper reports whether userID is the configured developer.
func (c *Config) IsDeveloper(userID string) bool {
	return c.DeveloperID != "" && userID == c.DeveloperID
}
