package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"mongochat/config"
	"mongochat/metrics"
	"mongochat/models"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries         = 3
	defaultBaseDelay          = 2 * time.Second
	defaultMinRequestInterval = 500 * time.Millisecond
)

// AIService generates chat completions against an OpenAI-compatible endpoint
// (Groq by default).
type AIService struct {
	client      *openai.Client
	modelName   string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	log         *zap.Logger

	lastRequestTime    time.Time
	requestMutex       sync.Mutex
	minRequestInterval time.Duration
	maxRetries         int
	baseDelay          time.Duration
}

func New(cfg config.LLMConfig, log *zap.Logger) (*AIService, error) {
	if cfg.APIKey == "" {
		log.Warn("GROQ_API_KEY is not set, chat completions will be rejected upstream")
	}
	if cfg.Model == "" {
		return nil, errors.New("model name is required")
	}

	oaCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oaCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	log.Info("LLM service initialized", zap.String("model", cfg.Model), zap.String("base_url", oaCfg.BaseURL))

	return &AIService{
		client:             openai.NewClientWithConfig(oaCfg),
		modelName:          cfg.Model,
		temperature:        cfg.Temperature,
		maxTokens:          cfg.MaxTokens,
		timeout:            cfg.Timeout,
		log:                log,
		minRequestInterval: defaultMinRequestInterval,
		maxRetries:         defaultMaxRetries,
		baseDelay:          defaultBaseDelay,
	}, nil
}

func (a *AIService) Model() string {
	return a.modelName
}

// Generate sends system prompt, prior turns and the user query as one chat
// completion and returns the generated text.
func (a *AIService) Generate(ctx context.Context, systemPrompt, userQuery string, history []models.ChatTurn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userQuery})

	a.log.Debug("generating LLM response",
		zap.String("model", a.modelName),
		zap.Int("messages", len(messages)),
		zap.String("system_prompt_preview", preview(systemPrompt, 100)),
	)

	response, err := a.complete(ctx, messages)
	if err != nil {
		metrics.RecordLLMRequest("error")
		a.log.Error("chat completion failed", zap.Error(err))
		return "", err
	}
	metrics.RecordLLMRequest("ok")
	a.log.Debug("LLM response generated", zap.String("response_preview", preview(response, 100)))
	return response, nil
}

// rateLimit ensures minimum time between requests to prevent burst rate errors
func (a *AIService) rateLimit() {
	a.requestMutex.Lock()
	defer a.requestMutex.Unlock()

	since := time.Since(a.lastRequestTime)
	if since < a.minRequestInterval {
		time.Sleep(a.minRequestInterval - since)
	}
	a.lastRequestTime = time.Now()
}

func (a *AIService) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model:       a.modelName,
		Messages:    messages,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		TopP:        1,
	}

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 2s, 4s, 8s
			delay := a.baseDelay * time.Duration(1<<uint(attempt-1))
			a.log.Warn("rate limit hit, retrying", zap.Duration("delay", delay), zap.Int("attempt", attempt))
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("chat completion cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}
		a.rateLimit()

		resp, err := a.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if isRateLimited(err) && attempt < a.maxRetries {
				continue
			}
			return "", fmt.Errorf("failed to create chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("no response from AI model")
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
