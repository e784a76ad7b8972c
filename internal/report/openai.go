package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ignite/casedeck/internal/config"
	"github.com/ignite/casedeck/internal/pkg/httpretry"
)

// OpenAIDescriber generates case descriptions through the OpenAI chat
// completions API.
type OpenAIDescriber struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	httpClient httpretry.Doer
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIDescriber builds the provider from configuration.
func NewOpenAIDescriber(cfg config.OpenAIConfig) *OpenAIDescriber {
	return &OpenAIDescriber{
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		baseURL:   cfg.BaseURL,
		maxTokens: cfg.MaxTokens,
		httpClient: httpretry.New(&http.Client{
			Timeout: cfg.Timeout(),
		}, 2),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (d *OpenAIDescriber) SetHTTPClient(client httpretry.Doer) {
	d.httpClient = client
}

// Describe sends the prompt as a single user message and returns the
// completion text.
func (d *OpenAIDescriber) Describe(ctx context.Context, prompt string) (string, error) {
	if d.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	request := openAIRequest{
		Model:       d.model,
		Messages:    []openAIMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   d.maxTokens,
	}

	jsonBody, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w (body: %s)", err, string(body))
	}
	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	content := response.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty completion from OpenAI")
	}
	return content, nil
}
