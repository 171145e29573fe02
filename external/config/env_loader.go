package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/dawamlab/dawam/internal/config"
)

type envConfig struct {
	Env              string `env:"ENV" envDefault:"production"`
	DiscordToken     string `env:"DISCORD_TOKEN,required"`
	DiscordGuildID   string `env:"DISCORD_GUILD_ID"`
	DatabaseURL      string `env:"DATABASE_URL,required"`
	Timezone         string `env:"ATTENDANCE_TIMEZONE" envDefault:"Asia/Riyadh"`
	LeaderboardLimit int    `env:"LEADERBOARD_LIMIT" envDefault:"15"`
	KeepalivePort    int    `env:"KEEPALIVE_PORT" envDefault:"3000"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:              raw.Env,
		DiscordToken:     raw.DiscordToken,
		DiscordGuildID:   raw.DiscordGuildID,
		DatabaseURL:      raw.DatabaseURL,
		Timezone:         raw.Timezone,
		LeaderboardLimit: raw.LeaderboardLimit,
		KeepalivePort:    raw.KeepalivePort,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
