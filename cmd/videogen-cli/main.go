// videogen-cli runs the photo analysis pipeline from the command line. It is
// the local companion of video-lambda: same analysis, same notification
// format, no Lambda in between. Useful for trying prompts and models before a
// deploy.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/algopikoke/videogenerator-backend/internal/analysis"
	"github.com/algopikoke/videogenerator-backend/internal/logging"
	"github.com/algopikoke/videogenerator-backend/internal/photo"
	"github.com/algopikoke/videogenerator-backend/internal/telegram"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// CLI flags
var (
	photoFlag  string
	videoFlag  string
	musicFlag  string
	modelFlag  string
	notifyFlag bool
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "videogen-cli",
	Short: "Analyze a photo the way the video backend does",
	Long: `videogen-cli sends one photo through the same Gemini analysis the backend
runs for uploads, printing the structured result as JSON. With --notify it
also sends the Telegram notification.

Requires GEMINI_API_KEY in the environment; --notify additionally requires
TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID.

Examples:
  videogen-cli --photo ./cat.jpg --video-choice slideshow --music-choice upbeat
  videogen-cli -p ./sunset.png -v cinematic -m calm --model gemini-2.5-pro
  videogen-cli -p ./cat.jpg -v slideshow -m upbeat --notify`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&photoFlag, "photo", "p", "", "Path to the photo to analyze (required)")
	rootCmd.Flags().StringVarP(&videoFlag, "video-choice", "v", "", "Video style choice (required)")
	rootCmd.Flags().StringVarP(&musicFlag, "music-choice", "m", "", "Music style choice (required)")
	rootCmd.Flags().StringVar(&modelFlag, "model", analysis.DefaultModel, "Gemini model to use")
	rootCmd.Flags().BoolVar(&notifyFlag, "notify", false, "Send the Telegram notification after analysis")
	rootCmd.MarkFlagRequired("photo")
	rootCmd.MarkFlagRequired("video-choice")
	rootCmd.MarkFlagRequired("music-choice")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runMain is the main execution logic called by Cobra.
func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY is not set")
	}

	p, err := photo.Load(photoFlag)
	if err != nil {
		log.Fatal().Err(err).Str("path", photoFlag).Msg("Failed to load photo")
	}

	data, mimeType, err := p.Inline(photo.DefaultMaxDimension)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare photo")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	client, err := analysis.NewClient(ctx, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	svc := analysis.NewService(client, modelFlag)

	result, err := svc.AnalyzePhoto(ctx, data, mimeType, p.Metadata, videoFlag, musicFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Photo analysis failed")
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal result")
	}
	fmt.Println(string(out))

	if notifyFlag {
		sendNotification(result)
	}
}

func sendNotification(result *analysis.Result) {
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	chatID := os.Getenv("TELEGRAM_CHAT_ID")
	if botToken == "" || chatID == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set for --notify")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := telegram.NewClient(botToken, chatID).SendMessage(ctx, result.NotificationText()); err != nil {
		log.Fatal().Err(err).Msg("Failed to send Telegram notification")
	}
	log.Info().Msg("Notification sent")
}
