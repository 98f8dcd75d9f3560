// video-lambda is the serverless backend of the video generator frontend.
// It accepts a photo upload with style choices, analyzes the photo with
// Gemini, and announces the result in Telegram.
//
// The Lambda serves HTTP through a Function URL; the stdlib mux is adapted
// with the API Gateway V2 proxy adapter.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/algopikoke/videogenerator-backend/internal/analysis"
	"github.com/algopikoke/videogenerator-backend/internal/config"
	"github.com/algopikoke/videogenerator-backend/internal/logging"
	"github.com/algopikoke/videogenerator-backend/internal/telegram"
	"github.com/aws/aws-lambda-go/lambda"
	httpadapter "github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"
)

var srv *server

func init() {
	initStart := time.Now()
	logging.Init()

	ctx := context.Background()

	secrets, err := config.NewSSMFetcher(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create SSM fetcher")
	}

	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	geminiClient, err := analysis.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	srv = &server{
		analyzer: analysis.NewService(geminiClient, cfg.GeminiModel),
		notifier: telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramChatID),
	}

	logging.NewStartupLogger("video-lambda").
		SSMParam("geminiAPIKey", config.APIKeyParam()).
		SSMParam("telegramBotToken", config.BotTokenParam()).
		Config("geminiModel", cfg.GeminiModel).
		Config("telegramChatID", cfg.TelegramChatID).
		InitDuration(time.Since(initStart)).
		Log()
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleProcess)
	mux.HandleFunc("/api/process", srv.handleProcess)
	mux.HandleFunc("/api/health", srv.handleHealth)

	adapter := httpadapter.NewV2(withCORS(mux))
	lambda.Start(adapter.ProxyWithContext)
}
