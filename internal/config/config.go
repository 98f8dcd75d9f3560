// Package config builds the service configuration once at cold start.
// Secrets come from environment variables, with an SSM Parameter Store
// fallback for deployments that keep them out of the Lambda environment.
// The resulting Config is passed into the handler explicitly; nothing
// reads configuration mid-request.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// Default SSM parameter paths, overridable via SSM_API_KEY_PARAM and
// SSM_TELEGRAM_TOKEN_PARAM.
const (
	defaultAPIKeyParam   = "/videogenerator/prod/gemini-api-key"
	defaultBotTokenParam = "/videogenerator/prod/telegram-bot-token"
)

// Config holds everything the service needs for one deployment.
type Config struct {
	// GeminiAPIKey authenticates calls to the Gemini API.
	GeminiAPIKey string

	// GeminiModel overrides the default analysis model when non-empty.
	GeminiModel string

	// TelegramBotToken authenticates calls to the Telegram Bot API.
	TelegramBotToken string

	// TelegramChatID is the destination chat for notifications.
	TelegramChatID string
}

// SecretFetcher resolves a secret by parameter path. Implemented by
// SSMFetcher in production and by fakes in tests.
type SecretFetcher interface {
	Fetch(ctx context.Context, name string) (string, error)
}

// SSMFetcher reads decrypted parameters from SSM Parameter Store.
type SSMFetcher struct {
	client *ssm.Client
}

// NewSSMFetcher loads the default AWS config and returns an SSM-backed fetcher.
func NewSSMFetcher(ctx context.Context) (*SSMFetcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SSMFetcher{client: ssm.NewFromConfig(cfg)}, nil
}

// Fetch reads a single decrypted parameter value.
func (f *SSMFetcher) Fetch(ctx context.Context, name string) (string, error) {
	result, err := f.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("read SSM parameter %s: %w", name, err)
	}
	return *result.Parameter.Value, nil
}

// APIKeyParam returns the SSM parameter path for the Gemini API key.
func APIKeyParam() string {
	return envOrDefault("SSM_API_KEY_PARAM", defaultAPIKeyParam)
}

// BotTokenParam returns the SSM parameter path for the Telegram bot token.
func BotTokenParam() string {
	return envOrDefault("SSM_TELEGRAM_TOKEN_PARAM", defaultBotTokenParam)
}

// Load builds the Config from the environment, consulting secrets for any
// secret not present as an env var (secrets may be nil to disable the
// fallback). All required values are validated eagerly: a missing secret is
// reported here at cold start instead of surfacing as an opaque upstream
// failure mid-request.
func Load(ctx context.Context, secrets SecretFetcher) (Config, error) {
	cfg := Config{
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      os.Getenv("GEMINI_MODEL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
	}

	if cfg.GeminiAPIKey == "" && secrets != nil {
		key, err := secrets.Fetch(ctx, APIKeyParam())
		if err != nil {
			log.Warn().Err(err).Str("param", APIKeyParam()).Msg("Gemini API key not found in SSM")
		} else {
			cfg.GeminiAPIKey = key
			log.Debug().Str("param", APIKeyParam()).Msg("Gemini API key loaded from SSM")
		}
	}

	if cfg.TelegramBotToken == "" && secrets != nil {
		token, err := secrets.Fetch(ctx, BotTokenParam())
		if err != nil {
			log.Warn().Err(err).Str("param", BotTokenParam()).Msg("Telegram bot token not found in SSM")
		} else {
			cfg.TelegramBotToken = token
			log.Debug().Str("param", BotTokenParam()).Msg("Telegram bot token loaded from SSM")
		}
	}

	var missing []string
	if cfg.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if cfg.TelegramBotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if cfg.TelegramChatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func envOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}
