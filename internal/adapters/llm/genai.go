package llm

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/avasquez/festa-agent/internal/domain"
)

type GenaiClient struct {
	client    *genai.Client
	modelName string
}

// NewGenaiClient creates an LLMClient backed by Vertex AI (Gemini).
// Uses environment variables for project and region to simplify.
func NewGenaiClient(ctx context.Context) (*GenaiClient, error) {
	projectID := os.Getenv("FESTA_GCP_PROJECT")
	location := os.Getenv("FESTA_GCP_LOCATION")
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("FESTA_GCP_PROJECT and FESTA_GCP_LOCATION must be set")
	}

	modelName := os.Getenv("FESTA_MODEL_NAME")
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GenaiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Generate implements domain.LLMClient.
func (c *GenaiClient) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	// History (user / assistant) as conversation turns.
	var contents []*genai.Content
	for _, m := range req.History {
		var role genai.Role
		switch m.Role {
		case domain.RoleUser:
			role = genai.RoleUser
		case domain.RoleAssistant:
			role = genai.RoleModel
		default:
			role = genai.RoleUser
		}

		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}

	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))

	temp := float32(0.7)
	topP := float32(0.9)
	outputTokens := int32(8192)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: outputTokens,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	res, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("genai generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("genai returned empty text")
	}

	return text, nil
}
