// Package analysis generates structured photo descriptions with Gemini. The
// model receives the photo inline plus a text prompt and must answer with a
// strict JSON object; the response schema pins the shape so parsing never has
// to guess.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/algopikoke/videogenerator-backend/internal/jsonutil"
	"github.com/algopikoke/videogenerator-backend/internal/metrics"
	"github.com/algopikoke/videogenerator-backend/internal/photo"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Result is the structured analysis of one photo.
type Result struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// NotificationText renders the result as the Telegram announcement body.
func (r *Result) NotificationText() string {
	return fmt.Sprintf("Video baru telah dibuat!\n\nJudul: %s\nDeskripsi: %s\nTags: %s",
		r.Title, r.Description, strings.Join(r.Tags, ", "))
}

// Service wraps a Gemini client with the model choice.
type Service struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini API client against the Gemini API backend.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return client, nil
}

// NewService returns a Service using the given model, or DefaultModel when
// model is empty.
func NewService(client *genai.Client, model string) *Service {
	if model == "" {
		model = DefaultModel
	}
	return &Service{client: client, model: model}
}

// resultSchema constrains the model to the exact Result shape.
var resultSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title": {
			Type:        genai.TypeString,
			Description: "A short, catchy title for the photo",
		},
		"description": {
			Type:        genai.TypeString,
			Description: "An engaging description of the photo, 2-3 sentences",
		},
		"tags": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "5-10 relevant hashtag-style keywords, without the # prefix",
		},
	},
	Required:         []string{"title", "description", "tags"},
	PropertyOrdering: []string{"title", "description", "tags"},
}

// AnalyzePhoto sends the photo inline to Gemini and returns the parsed
// structured result. videoChoice and musicChoice steer the tone of the copy.
func (s *Service) AnalyzePhoto(ctx context.Context, data []byte, mimeType string, meta *photo.Metadata, videoChoice, musicChoice string) (*Result, error) {
	prompt := buildPrompt(meta, videoChoice, musicChoice)

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			{Text: prompt},
		},
	}}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   resultSchema,
	}

	log.Debug().
		Str("model", s.model).
		Str("mimeType", mimeType).
		Int("photoBytes", len(data)).
		Int("promptLength", len(prompt)).
		Msg("Starting Gemini API call for photo analysis")

	callStart := time.Now()
	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, config)
	duration := time.Since(callStart)

	metrics.New(metrics.Namespace).
		Dimension("Operation", "AnalyzePhoto").
		Metric("GeminiLatency", float64(duration.Milliseconds()), metrics.UnitMilliseconds).
		Property("model", s.model).
		Property("photoBytes", len(data)).
		Flush()

	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Gemini photo analysis failed")
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("AI request failed with status: %d", apiErr.Code)
		}
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("responseLength", len(text)).
		Dur("duration", duration).
		Msg("Gemini API response received for photo analysis")

	result, err := jsonutil.Parse[Result](text)
	if err != nil {
		return nil, fmt.Errorf("parse analysis response: %w", err)
	}
	if result.Title == "" || result.Description == "" {
		return nil, fmt.Errorf("analysis response missing required fields")
	}

	log.Info().
		Str("title", result.Title).
		Int("tagCount", len(result.Tags)).
		Msg("Photo analysis complete")

	return &result, nil
}

// responseText extracts the text of the first candidate's first part.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini response candidate has no content parts")
	}
	return candidate.Content.Parts[0].Text, nil
}

// buildPrompt assembles the analysis prompt with the user's style choices and
// any EXIF context the photo carried.
func buildPrompt(meta *photo.Metadata, videoChoice, musicChoice string) string {
	var sb strings.Builder
	sb.WriteString("Analyze this photo and produce social media copy for a short video generated from it.\n\n")
	sb.WriteString(fmt.Sprintf("The video style chosen by the user is %q and the music style is %q; match the tone of the copy to these choices.\n\n", videoChoice, musicChoice))
	sb.WriteString("Respond with a JSON object containing:\n")
	sb.WriteString("- \"title\": a short, catchy title\n")
	sb.WriteString("- \"description\": an engaging 2-3 sentence description\n")
	sb.WriteString("- \"tags\": 5-10 relevant keywords, without the # prefix\n")

	if meta != nil {
		if context := meta.FormatContext(); context != "" {
			sb.WriteString("\nPhoto metadata for context:\n")
			sb.WriteString(context)
		}
	}
	return sb.String()
}
