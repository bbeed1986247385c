// Package scriptgen asks an LLM to write a teleprompter script.
package scriptgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	openai "github.com/sashabaranov/go-openai"
)

// Provider identifies the LLM provider.
type Provider string

const (
	// ProviderOpenAI uses OpenAI's chat completions API.
	ProviderOpenAI Provider = "openai"
	// ProviderAnthropic uses Anthropic's messages API.
	ProviderAnthropic Provider = "anthropic"
)

// Default models per provider.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

const (
	defaultAnthropicURL = "https://api.anthropic.com"
	anthropicVersion    = "2023-06-01"
	maxTokens           = 1024
)

var (
	ErrMissingAPIKey       = errors.New("no API key configured")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrEmptyResponse       = errors.New("model returned no text")
)

// Config holds provider settings.
type Config struct {
	Provider Provider
	Model    string
	APIKey   string
	// BaseURL overrides the provider endpoint. For OpenAI it includes the
	// /v1 suffix, for Anthropic it does not.
	BaseURL string
	Timeout time.Duration
}

// Generator produces scripts for a topic.
type Generator struct {
	config Config
	client *http.Client
}

// New validates cfg and builds a Generator.
func New(cfg Config) (*Generator, error) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.Model == "" {
			cfg.Model = DefaultOpenAIModel
		}
	case ProviderAnthropic:
		if cfg.Model == "" {
			cfg.Model = DefaultAnthropicModel
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for %s", ErrMissingAPIKey, cfg.Provider)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Generator{config: cfg, client: newHTTPClient(cfg.Timeout)}, nil
}

// Config returns the resolved configuration.
func (g *Generator) Config() Config {
	return g.config
}

func newHTTPClient(timeout time.Duration) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = slog.Default()

	client := rc.StandardClient()
	client.Timeout = timeout
	return client
}

// BuildPrompt returns the instruction sent to the model.
func BuildPrompt(topic string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a short script with some decent talking points for the following topic: %s\n", topic)
	sb.WriteString(`
## NOTE
-------
- The content will be displayed on the Elgato Prompter which uses newlines to delineate chapters.
- Don't use markdown because the Elgato Prompter just uses unicode.
`)
	return sb.String()
}

// Generate returns the model's script for topic.
func (g *Generator) Generate(ctx context.Context, topic string) (string, error) {
	prompt := BuildPrompt(topic)
	slog.Debug("generating script", "provider", g.config.Provider, "model", g.config.Model)

	var out string
	var err error
	switch g.config.Provider {
	case ProviderOpenAI:
		out, err = g.callOpenAI(ctx, prompt)
	case ProviderAnthropic:
		out, err = g.callAnthropic(ctx, prompt)
	}
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func (g *Generator) callOpenAI(ctx context.Context, prompt string) (string, error) {
	config := openai.DefaultConfig(g.config.APIKey)
	if g.config.BaseURL != "" {
		config.BaseURL = g.config.BaseURL
	}
	config.HTTPClient = g.client

	resp, err := openai.NewClientWithConfig(config).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.config.Model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func (g *Generator) callAnthropic(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     g.config.Model,
		MaxTokens: maxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	base := g.config.BaseURL
	if base == "" {
		base = defaultAnthropicURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.config.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var ar anthropicResponse
	if err := json.Unmarshal(respBody, &ar); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if ar.Error != nil {
		return "", fmt.Errorf("API error: %s", ar.Error.Message)
	}

	var sb strings.Builder
	for _, block := range ar.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
