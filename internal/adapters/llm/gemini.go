package llm

import (
	"context"
	"fmt"

	"github.com/piyuindia4/ai-slides/internal/config"
	"google.golang.org/genai"
)

type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a domain.ModelClient backed by Gemini. The
// "gemini" backend authenticates with an API key, the "vertex" backend with
// GCP project credentials.
func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	var clientCfg *genai.ClientConfig

	switch cfg.LLMBackend {
	case config.BackendVertex:
		if cfg.GCPProjectID == "" || cfg.GCPLocation == "" {
			return nil, fmt.Errorf("SLIDES_GCP_PROJECT and SLIDES_GCP_LOCATION must be set")
		}
		clientCfg = &genai.ClientConfig{
			Project:  cfg.GCPProjectID,
			Location: cfg.GCPLocation,
			Backend:  genai.BackendVertexAI,
		}
	default:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY must be set")
		}
		clientCfg = &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// GenerateText implements domain.ModelClient. The prompt arrives fully
// composed; this adapter only performs the remote call and extracts text.
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	temp := float32(0.7)
	topP := float32(0.9)
	outputTokens := int32(8192)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: outputTokens,
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}

	return text, nil
}
