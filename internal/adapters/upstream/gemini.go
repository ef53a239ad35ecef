package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// contentGenerator is the slice of genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini sends completions through the Google GenAI SDK.
type Gemini struct {
	models contentGenerator
}

// NewGemini creates a transport for the Gemini API backend.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create genai client: %w", ErrTransport, err)
	}
	return &Gemini{models: client.Models}, nil
}

// Name implements Transport.
func (g *Gemini) Name() string { return "gemini" }

// DefaultModel implements Transport.
func (g *Gemini) DefaultModel() string { return defaultGeminiModel }

// Complete implements Transport. API errors carrying an HTTP code become a
// Reply with that status so rate limiting and billing errors are handled
// the same way as for the OpenAI transport.
func (g *Gemini) Complete(ctx context.Context, c Completion) (*Reply, error) {
	temperature := float32(c.Temperature)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: c.System}}},
		Temperature:       &temperature,
	}

	resp, err := g.models.GenerateContent(ctx, c.Model, genai.Text(c.User), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code > 0 {
			return &Reply{StatusCode: apiErr.Code, Body: []byte(apiErr.Error())}, nil
		}
		return nil, fmt.Errorf("%w: generate content: %w", ErrTransport, err)
	}

	return &Reply{StatusCode: http.StatusOK, Text: firstCandidateText(resp)}, nil
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			b.WriteString(part.Text)
		}
		return b.String()
	}
	return ""
}
