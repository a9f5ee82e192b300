package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"
)

// BedrockConfig holds text-generation settings. ModelID is required.
type BedrockConfig struct {
	Region         string `yaml:"region"`
	ModelID        string `yaml:"model_id"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// BedrockGenerator calls an Anthropic model through the Bedrock runtime
// messages API. Each call is bounded by the configured timeout so one stalled
// request cannot hold a worker indefinitely.
type BedrockGenerator struct {
	client    *bedrockruntime.Client
	modelID   string
	maxTokens int
	timeout   time.Duration
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func NewBedrockGenerator(ctx context.Context, cfg BedrockConfig, logger *zap.Logger) (*BedrockGenerator, error) {
	if cfg.ModelID == "" {
		return nil, errors.New("bedrock model id is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	logger.Info("Bedrock generator initialized",
		zap.String("model_id", cfg.ModelID),
		zap.Int("max_tokens", cfg.MaxTokens),
	)

	return &BedrockGenerator{
		client:    bedrockruntime.NewFromConfig(awsCfg),
		modelID:   cfg.ModelID,
		maxTokens: cfg.MaxTokens,
		timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

func (g *BedrockGenerator) Generate(ctx context.Context, in Input) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        g.maxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: BuildPrompt(in)},
		},
	})
	if err != nil {
		return "", &GenerationError{Cause: err}
	}

	out, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", &GenerationError{Cause: err}
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", &GenerationError{Cause: fmt.Errorf("malformed response: %w", err)}
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == "" {
		return "", &GenerationError{Cause: errors.New("empty completion")}
	}

	return resp.Content[0].Text, nil
}
