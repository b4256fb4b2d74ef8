package nlp

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/soundprediction/aboxlink/pkg/types"
)

// DefaultChatModel is used when Config.Model is empty.
const DefaultChatModel = openai.GPT4oMini

// OpenAIClient implements Client against OpenAI or any service speaking
// the same chat completions protocol.
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient creates a new OpenAI client. A non-empty BaseURL selects
// an OpenAI-compatible service; "/v1" is appended unless the URL already
// names an API path.
func NewOpenAIClient(apiKey string, config Config) (*OpenAIClient, error) {
	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		if err := validateBaseURL(config.BaseURL); err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		// Local servers commonly run without auth.
		if apiKey == "" {
			clientConfig = openai.DefaultConfig("dummy-key")
		}
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
		if !hasAPIPath(clientConfig.BaseURL) {
			clientConfig.BaseURL += "/v1"
		}
	}

	if config.Model == "" {
		config.Model = DefaultChatModel
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Model returns the configured chat model.
func (c *OpenAIClient) Model() string {
	return c.config.Model
}

// Chat sends a chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	return c.complete(ctx, c.buildChatRequest(messages, false))
}

// ChatWithStructuredOutput requests a JSON object response. The schema is
// carried in the prompt by callers; the API only enforces JSON mode.
func (c *OpenAIClient) ChatWithStructuredOutput(ctx context.Context, messages []types.Message, _ any) (*types.Response, error) {
	return c.complete(ctx, c.buildChatRequest(messages, true))
}

// Close is a no-op.
func (c *OpenAIClient) Close() error {
	return nil
}

func (c *OpenAIClient) complete(ctx context.Context, req openai.ChatCompletionRequest) (*types.Response, error) {
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion with %s failed: %w", req.Model, classifyAPIError(err))
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, &EmptyResponseError{Model: req.Model}
	}

	choice := resp.Choices[0]
	response := &types.Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
	}

	// Some compatible services omit usage.
	if resp.Usage.TotalTokens > 0 {
		response.TokensUsed = &types.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return response, nil
}

func (c *OpenAIClient) buildChatRequest(messages []types.Message, jsonMode bool) openai.ChatCompletionRequest {
	openaiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		openaiMessages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: openaiMessages,
	}
	if c.config.Temperature != nil {
		req.Temperature = *c.config.Temperature
	}
	if c.config.MaxTokens != nil {
		req.MaxTokens = *c.config.MaxTokens
	}

	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
		// JSON mode requires the word "JSON" somewhere in the prompt.
		if n := len(req.Messages); n > 0 && req.Messages[n-1].Role == string(RoleUser) {
			req.Messages[n-1].Content += "\n\nRespond with valid JSON only."
		}
	}
	return req
}

// classifyAPIError maps HTTP 429 onto RateLimitError so the retry wrapper
// recognizes it without string matching.
func classifyAPIError(err error) error {
	if code := statusCode(err); code == 429 {
		return fmt.Errorf("%w: %w", NewRateLimitError(), err)
	}
	return err
}

func validateBaseURL(baseURL string) error {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid baseURL format: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("baseURL must use http:// or https:// scheme")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("baseURL must include a host")
	}
	return nil
}

func hasAPIPath(baseURL string) bool {
	for _, path := range []string{"/v1", "/api"} {
		if strings.HasSuffix(baseURL, path) {
			return true
		}
	}
	return false
}
