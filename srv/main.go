package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/opd-ai/bedtime/srv/ui"
	bedtime "github.com/opd-ai/bedtime/src"
)

func main() {
	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	cfg, err := bedtime.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}

	gen, err := cfg.NewGenerator(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("building generation gateway")
	}

	opts := []ui.Option{ui.WithLogger(log)}

	if cfg.OpenAIKey != "" {
		audioCache := cache.New(24*time.Hour, time.Hour)
		narrator := bedtime.NewNarrator(
			bedtime.NewOpenAIClient(cfg.OpenAIKey, cfg.Model).Client(),
			audioCache,
		)
		opts = append(opts, ui.WithNarrator(narrator))
	}

	images, err := cfg.NewImageClient()
	if err != nil {
		log.Fatal().Err(err).Msg("building poster backend")
	}
	if images != nil {
		opts = append(opts, ui.WithImages(images))
	}

	engine := bedtime.NewEngine(gen)
	server := ui.NewStoryUI(engine, opts...)

	log.Info().Str("addr", cfg.ListenAddr).Str("provider", cfg.Provider).Msg("server starting")
	if err := http.ListenAndServe(cfg.ListenAddr, server); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
