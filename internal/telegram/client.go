// Package telegram provides a minimal client for the Telegram Bot API
// sendMessage endpoint. The bot token and chat ID are typically loaded from
// SSM Parameter Store at Lambda cold start.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// defaultBaseURL is the Telegram Bot API base URL.
	defaultBaseURL = "https://api.telegram.org"

	// defaultTimeout is the HTTP client timeout for API calls.
	defaultTimeout = 30 * time.Second
)

// Client sends messages to one Telegram chat via the Bot API.
type Client struct {
	httpClient *http.Client
	botToken   string
	chatID     string
	baseURL    string
}

// NewClient creates a Telegram Bot API client.
func NewClient(botToken, chatID string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		botToken: botToken,
		chatID:   chatID,
		baseURL:  defaultBaseURL,
	}
}

// sendMessageRequest is the JSON body for POST /bot<token>/sendMessage.
type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// apiResponse is the Telegram Bot API response envelope.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

// SendMessage sends a plain-text message to the configured chat.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID: c.chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("marshal sendMessage request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Int("textLength", len(text)).Msg("Sending Telegram message")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send Telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiResp apiResponse
		if err := json.Unmarshal(respBody, &apiResp); err == nil && apiResp.Description != "" {
			log.Error().
				Int("status", resp.StatusCode).
				Str("description", apiResp.Description).
				Msg("Telegram API rejected sendMessage")
		} else {
			log.Error().
				Int("status", resp.StatusCode).
				Str("body", string(respBody)).
				Msg("Telegram API rejected sendMessage")
		}
		return fmt.Errorf("Telegram sendMessage API request failed with status: %d", resp.StatusCode)
	}

	log.Info().Msg("Telegram notification sent")
	return nil
}
