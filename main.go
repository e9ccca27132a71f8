package main

import (
	"context"
	"os"
	"strings"
	"time"

	"tripwise/auth"
	"tripwise/config"
	"tripwise/db"
	"tripwise/handlers"
	"tripwise/models"
	"tripwise/store"

	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		if err := config.LoadFile(file); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("config")
		}
		// environment wins over the file
		config.ReadEnv()
	}
	if config.DEBUG_MODE {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	instance, err := db.Open(config.MYSQL_DSN, config.SQLITE_FILE)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	if err = models.Init(instance); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	documents, err := store.NewGormStore(instance)
	if err != nil {
		log.Fatal().Err(err).Msg("document store")
	}
	limiter := auth.NewLoginLimiter(config.LOGIN_RATE_PER_MINUTE)
	go limiter.Run(context.Background(), time.Minute)
	router := handlers.NewRouter(instance, &handlers.API{
		Store:   documents,
		Users:   auth.NewService(instance),
		Limiter: limiter,
	})

	if config.TLS_DOMAINS != "" {
		log.Info().Str("domains", config.TLS_DOMAINS).Msg("serving with TLS")
		err = autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		log.Info().Str("address", config.BIND_ADDRESS).Msg("serving")
		err = router.Run(config.BIND_ADDRESS)
	}
	log.Fatal().Err(err).Msg("Server stopped")
}
