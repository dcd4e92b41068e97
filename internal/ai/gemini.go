package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

const geminiModel = "gemini-3-flash-preview"

var whitespacePattern = regexp.MustCompile(`\s+`)

type geminiClient struct {
	client *genai.Client
}

// NewGeminiClient builds the Gemini-backed generator.
func NewGeminiClient(ctx context.Context, apiKey string) (Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &geminiClient{client: client}, nil
}

// Generate returns the model's reply collapsed to a single line, since
// the chat composer treats newlines as message breaks.
func (c *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, geminiModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("text generation failed: %w", err)
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(result.Text(), " ")), nil
}
