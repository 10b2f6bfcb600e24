package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quorumlabs/quorum/pkg/httputil"
	"github.com/quorumlabs/quorum/pkg/quorum/config"
	qerrors "github.com/quorumlabs/quorum/pkg/quorum/errors"
)

const (
	defaultOpenAIURL       = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel     = "gpt-4o"
	defaultOpenAIMaxTokens = 4096
	defaultOpenAIRetries   = 3
)

// OpenAIProvider speaks the OpenAI-compatible chat completions protocol.
// Every configured backend in the registry goes through this adapter; the
// differences between hosts are just base URL, model and credential.
type OpenAIProvider struct {
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
	client      *httputil.Client
}

// OpenAIFactory creates OpenAI-compatible providers
type OpenAIFactory struct{}

// Name returns the provider name
func (f *OpenAIFactory) Name() string {
	return "openai"
}

// Create returns a new OpenAI-compatible provider
func (f *OpenAIFactory) Create(cfg config.Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, qerrors.New("openai", "create", qerrors.ErrInvalidConfig)
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIURL
	}

	retries := cfg.RetryAttempts
	if retries <= 0 {
		retries = defaultOpenAIRetries
	}

	return &OpenAIProvider{
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     baseURL,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client: httputil.NewClient(httputil.ClientOptions{
			Timeout:       cfg.Timeout,
			RetryAttempts: retries,
			Breaker:       cfg.Breaker,
		}),
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model returns the current model
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Wire-level request/response shapes for the chat completions protocol

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
}

// GenerateResponse sends the prompt and normalizes the reply
func (p *OpenAIProvider) GenerateResponse(ctx context.Context, request Request) (Response, error) {
	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}
	if maxTokens <= 0 {
		maxTokens = defaultOpenAIMaxTokens
	}

	temperature := request.Temperature
	if temperature == 0 {
		temperature = p.temperature
	}

	wireReq := openAIRequest{
		Model:       p.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openAIMessage{
			{Role: "user", Content: request.Prompt},
		},
	}

	body, err := p.client.SendRequest(ctx, httputil.RequestDetails{
		URL:         p.baseURL,
		APIKey:      p.apiKey,
		RequestBody: wireReq,
	})
	if err != nil {
		return Response{}, qerrors.Wrap(err, p.model, "call")
	}

	var wireResp openAIResponse
	if err := json.Unmarshal(body, &wireResp); err != nil {
		return Response{}, qerrors.New(p.model, "call",
			fmt.Errorf("decoding response: %v: %w", err, qerrors.ErrTransport))
	}

	if len(wireResp.Choices) == 0 || strings.TrimSpace(wireResp.Choices[0].Message.Content) == "" {
		return Response{}, qerrors.New(p.model, "call", qerrors.ErrEmptyResponse)
	}

	model := wireResp.Model
	if model == "" {
		model = p.model
	}

	return Response{
		Content:  wireResp.Choices[0].Message.Content,
		Model:    model,
		Provider: p.Name(),
		Usage: &UsageInfo{
			PromptTokens:     wireResp.Usage.PromptTokens,
			CompletionTokens: wireResp.Usage.CompletionTokens,
			TotalTokens:      wireResp.Usage.TotalTokens,
		},
	}, nil
}
