package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	maxResponseBytes   = 1 << 20
)

// OpenAI speaks the chat-completions wire format over plain HTTP.
type OpenAI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// OpenAIOption configures an OpenAI transport.
type OpenAIOption func(*OpenAI)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(o *OpenAI) {
		if c != nil {
			o.client = c
		}
	}
}

// NewOpenAI creates a chat-completions transport rooted at baseURL,
// e.g. https://api.openai.com/v1.
func NewOpenAI(apiKey, baseURL string, opts ...OpenAIOption) (*OpenAI, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: openai base url is empty", ErrTransport)
	}

	o := &OpenAI{apiKey: apiKey, baseURL: baseURL, client: &http.Client{}}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Name implements Transport.
func (o *OpenAI) Name() string { return "openai" }

// DefaultModel implements Transport.
func (o *OpenAI) DefaultModel() string { return defaultOpenAIModel }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete implements Transport.
func (o *OpenAI) Complete(ctx context.Context, c Completion) (*Reply, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Temperature: c.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: c.System},
			{Role: "user", Content: c.User},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	reply := &Reply{StatusCode: resp.StatusCode}
	if !reply.OK() {
		reply.Body = body
		return reply, nil
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrTransport, err)
	}
	if len(decoded.Choices) > 0 {
		reply.Text = decoded.Choices[0].Message.Content
	}
	return reply, nil
}
