package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "slashroute/internal/command/help"
	_ "slashroute/internal/command/manage"
	_ "slashroute/internal/command/ping"
	_ "slashroute/internal/command/roll"

	"slashroute/datastore"
	"slashroute/internal/command"
	"slashroute/internal/config"
	"slashroute/internal/discord"
	"slashroute/internal/logging"
	"slashroute/internal/storage"
	"slashroute/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer closer.Close()
	log.Info().Str("version", version.String()).Msg("Starting bot")

	dsCfg := datastore.DefaultConfig(cfg.StoragePath)
	dsCfg.Logger = log.With().Str("component", "datastore").Logger()
	ds, err := datastore.Open(dsCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := ds.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close datastore")
		}
	}()

	bot, err := discord.New(cfg, storage.New(ds), command.Default(), log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx); err != nil {
		return fmt.Errorf("discord bot: %w", err)
	}
	log.Info().Msg("Discord bot exited cleanly")
	return nil
}
