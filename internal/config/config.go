package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env              string
	DiscordToken     string
	DiscordGuildID   string
	DatabaseURL      string
	Timezone         string
	LeaderboardLimit int
	KeepalivePort    int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("ATTENDANCE_TIMEZONE is invalid: %w", err)
	}
	if c.LeaderboardLimit <= 0 {
		return fmt.Errorf("LEADERBOARD_LIMIT must be positive, got %d", c.LeaderboardLimit)
	}
	if c.KeepalivePort <= 0 || c.KeepalivePort > 65535 {
		return fmt.Errorf("KEEPALIVE_PORT must be a valid port, got %d", c.KeepalivePort)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DISCORD_TOKEN", value: c.DiscordToken},
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "ATTENDANCE_TIMEZONE", value: c.Timezone},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
