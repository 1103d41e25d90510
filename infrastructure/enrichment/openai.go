// Package enrichment wraps the external language-model API used to derive
// an embedding vector and topical tags from memory content.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"memory-backend/domain"
	pkgerrors "memory-backend/pkg/errors"
)

// maxEmbeddingInput is the input cap for the embedding call. Longer input
// is truncated, not split.
const maxEmbeddingInput = 32000

// requestTimeout bounds every remote call.
const requestTimeout = 10 * time.Second

const tagPrompt = `Analyze the following text and generate 2-3 (max 5) relevant tags.
Tags should be:
- Single words or short phrases
- Lowercase with hyphens for spaces
- Highly relevant to the content
- Avoid generic tags

Respond with a JSON object of the form {"tags": ["tag-one", "tag-two"]}.

Content:
%s`

// Config configures the enrichment client.
type Config struct {
	APIKey         string
	BaseURL        string // empty means the public API endpoint
	EmbeddingModel string
	ChatModel      string
}

// Client calls the hosted LLM API for embeddings and tag generation. It is
// constructed once at process start and shared; it holds no mutable state.
type Client struct {
	api            *openai.Client
	embeddingModel string
	chatModel      string
	logger         *zap.Logger
}

// NewClient creates an enrichment client with a fixed request timeout.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:            openai.NewClientWithConfig(apiCfg),
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
		logger:         logger,
	}
}

// GenerateEmbedding returns a 1536-dimension vector for the text. Input is
// trimmed and silently truncated to the first 32,000 characters. Remote
// failures and malformed responses surface as a single dependency error;
// callers cannot distinguish the underlying fault.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil, pkgerrors.NewValidationError("text must be a non-empty string")
	}
	if len(cleaned) > maxEmbeddingInput {
		cleaned = cleaned[:maxEmbeddingInput]
		c.logger.Warn("embedding input truncated", zap.Int("limit", maxEmbeddingInput))
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          []string{cleaned},
		Model:          openai.EmbeddingModel(c.embeddingModel),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		Dimensions:     domain.EmbeddingDimensions,
	})
	if err != nil {
		c.logger.Error("embedding request failed", zap.Error(err))
		return nil, pkgerrors.NewDependencyError("Failed to generate embeddings for the content", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) != domain.EmbeddingDimensions {
		c.logger.Error("embedding response malformed", zap.Int("items", len(resp.Data)))
		return nil, pkgerrors.NewDependencyError("Failed to generate embeddings for the content", nil)
	}

	return resp.Data[0].Embedding, nil
}

// tagsReply is the JSON contract for the tag-generation completion.
type tagsReply struct {
	Tags []string `json:"tags"`
}

// GenerateTags asks the chat-completion API for 2-5 short lowercase tags,
// returned as a JSON object. A reply that is not valid JSON, or that
// carries no tags, is a hard failure: the caller must not create a record
// with made-up or empty tags.
func (c *Client) GenerateTags(ctx context.Context, content string) ([]string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(tagPrompt, content)},
		},
		Temperature: 0.7,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		c.logger.Error("tag request failed", zap.Error(err))
		return nil, pkgerrors.NewDependencyError("Failed to generate tags for the content", err)
	}
	if len(resp.Choices) == 0 {
		return nil, pkgerrors.NewDependencyError("Failed to generate tags: no content in response", nil)
	}

	var reply tagsReply
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &reply); err != nil {
		c.logger.Error("tag response is not valid JSON", zap.Error(err))
		return nil, pkgerrors.NewDependencyError("Failed to generate tags for the content", err)
	}
	if len(reply.Tags) == 0 {
		return nil, pkgerrors.NewDependencyError("Failed to generate tags: no tags in response", nil)
	}

	tags := make([]string, 0, len(reply.Tags))
	for _, tag := range reply.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil, pkgerrors.NewDependencyError("Failed to generate tags: no tags in response", nil)
	}

	return tags, nil
}
