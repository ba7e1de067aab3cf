package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/cloudpillar/cloudpillar/telemetry"
	"github.com/cloudpillar/cloudpillar/types"
)

const anthropicVersion = "bedrock-2023-05-31"

// BedrockAPI is the InvokeModel subset used by the provider.
type BedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Bedrock asks an Anthropic model on Amazon Bedrock for a
// Well-Architected review of the scan results.
type Bedrock struct {
	client    BedrockAPI
	modelID   string
	maxTokens int
	logger    *telemetry.Logger
}

// NewBedrock creates a Bedrock-backed recommendation provider.
func NewBedrock(client BedrockAPI, modelID string, maxTokens int) *Bedrock {
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	return &Bedrock{
		client:    client,
		modelID:   modelID,
		maxTokens: maxTokens,
		logger:    telemetry.NewLogger("recommend"),
	}
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Recommend renders the scan into a prompt and invokes the model once.
// Deadlines are the caller's responsibility.
func (b *Bedrock) Recommend(ctx context.Context, scan *types.Scan) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        b.maxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: buildPrompt(scan)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %w", ErrProvider, err)
	}

	output, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		b.logger.WithContext(ctx).Error().
			Str("scan_id", scan.ID).
			Str("model_id", b.modelID).
			Err(err).
			Msg("model invocation failed")
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %w", ErrProviderTimeout, err)
		}
		return "", fmt.Errorf("%w: %w", ErrProvider, err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrProvider, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("%w: model returned no text", ErrProvider)
	}

	return text.String(), nil
}
