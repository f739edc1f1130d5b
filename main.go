package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kstonekuan/among-humans/internal/ai"
	"github.com/kstonekuan/among-humans/internal/config"
	"github.com/kstonekuan/among-humans/internal/game"
	"github.com/kstonekuan/among-humans/internal/handlers"
	"github.com/kstonekuan/among-humans/internal/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment")
	}
	cfg := config.Load()

	if cfg.GenAPIKey == "" {
		log.Warn().Msg("GENAI_API_KEY not set, AI answers will use built-in fillers")
	}

	rooms := store.NewRoomStore()
	gen := ai.NewClient(cfg.GenAPIKey, cfg.GenEndpoint, cfg.GenModel)
	svc := game.NewService(rooms, gen, game.Options{
		AnswerTime: cfg.AnswerTime,
		VoteTime:   cfg.VoteTime,
		GenTimeout: cfg.GenTimeout,
	})

	router := handlers.NewRouter(svc, cfg)

	log.Info().Str("port", cfg.Port).Str("public_url", cfg.PublicURL).Msg("server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
