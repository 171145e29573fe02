package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	configloader "github.com/dawamlab/dawam/external/config"
	"github.com/dawamlab/dawam/external/discord"
	"github.com/dawamlab/dawam/external/keepalive"
	repositoryimpl "github.com/dawamlab/dawam/external/repository"
	"github.com/dawamlab/dawam/internal/attendance"
	"github.com/dawamlab/dawam/internal/clock"
	"github.com/dawamlab/dawam/internal/config"
	discordpkg "github.com/dawamlab/dawam/internal/discord"
	"github.com/samber/do/v2"
)

const discordConnectTimeout = 20 * time.Second

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "timezone", cfg.Timezone)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching attendance bot")
	runBot(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	clock.RegisterDI(injector)
	repositoryimpl.RegisterDI(injector)
	discord.RegisterDI(injector)
	keepalive.RegisterDI(injector)
	attendance.RegisterDI(injector)

	return injector
}

func runBot(cfg *config.Config, injector do.Injector) {
	dc, err := do.Invoke[discordpkg.Client](injector)
	if err != nil {
		slog.Error("failed to resolve discord client", "error", err)
		os.Exit(1)
	}
	manager, err := do.Invoke[*attendance.Manager](injector)
	if err != nil {
		slog.Error("failed to resolve attendance manager", "error", err)
		os.Exit(1)
	}
	web, err := do.Invoke[*keepalive.Server](injector)
	if err != nil {
		slog.Error("failed to resolve keepalive server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), discordConnectTimeout)
	defer cancel()

	slog.Info("startup: connecting to discord gateway")
	if err := dc.Connect(ctx); err != nil {
		slog.Error("discord connect failed", "error", err)
		os.Exit(1)
	}
	slog.Info("startup: discord connected")

	if err := dc.UpsertSlashCommands(cfg.DiscordGuildID, attendance.SlashCommandDefinitions()); err != nil {
		slog.Error("failed to upsert slash commands", "error", err, "guild_id", cfg.DiscordGuildID)
		os.Exit(1)
	}

	dc.RegisterCommandHandler(manager.HandleCommand)
	dc.RegisterComponentHandler(manager.HandleComponent)
	slog.Info("discord handlers registered", "guild_id", cfg.DiscordGuildID)
	defer func() {
		if err := dc.Close(); err != nil {
			slog.Error("discord close failed", "error", err)
		}
	}()

	go func() {
		if err := web.Start(); err != nil {
			slog.Error("keepalive server failed", "error", err)
		}
	}()
	defer func() {
		if err := web.Close(); err != nil {
			slog.Error("keepalive close failed", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		slog.Info("startup: entering discord run loop")
		if err := dc.Run(); err != nil {
			slog.Error("discord run failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
	}
}
