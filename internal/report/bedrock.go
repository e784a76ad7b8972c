package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/ignite/casedeck/internal/config"
)

// BedrockDescriber generates case descriptions through AWS Bedrock
// (Claude). All traffic stays inside AWS.
type BedrockDescriber struct {
	client  *bedrockruntime.Client
	modelID string
	region  string
}

type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewBedrockDescriber builds the provider using the default AWS
// credential chain.
func NewBedrockDescriber(ctx context.Context, cfg config.BedrockConfig) (*BedrockDescriber, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	d := &BedrockDescriber{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: cfg.ModelID,
		region:  cfg.Region,
	}
	log.Printf("[report] bedrock describer ready (model=%s region=%s)", d.modelID, d.region)
	return d, nil
}

// Describe sends the prompt as a single user message and returns the
// completion text.
func (d *BedrockDescriber) Describe(ctx context.Context, prompt string) (string, error) {
	request := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        500,
		Messages: []bedrockMessage{
			{
				Role: "user",
				Content: []bedrockContentBlock{
					{Type: "text", Text: prompt},
				},
			},
		},
		Temperature: 0.7,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := d.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(d.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return "", fmt.Errorf("Bedrock API error: %w", err)
	}

	var response bedrockResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	var text string
	for _, content := range response.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("empty completion from Bedrock")
	}
	return text, nil
}
