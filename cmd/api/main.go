package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/prylatief/latiefads/internal/batch"
	"github.com/prylatief/latiefads/internal/genai"
	"github.com/prylatief/latiefads/internal/http/handlers"
	"github.com/prylatief/latiefads/internal/http/httpapi"
	"github.com/prylatief/latiefads/internal/infra"
	"github.com/prylatief/latiefads/internal/store"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if cfg.GeminiAPIKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY is not set, generation requests will fail later")
	}

	client := genai.NewClient(genai.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		ImageModel: cfg.GeminiImageModel,
		TextModel:  cfg.GeminiTextModel,
		Logger:     &logger,
	})

	runner := batch.NewRunner(batch.Options{
		Generator: client,
		Logger:    &logger,
		Pacing:    cfg.GenerationPacing,
	})

	app := handlers.NewApp(cfg, logger, store.New(), runner, client)
	router := httpapi.NewRouter(cfg, app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
