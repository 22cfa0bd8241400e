package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	providerOpenAI = "openai"

	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	maxRetries           = 3
	initialBackoff       = 1 * time.Second
	requestTimeout       = 30 * time.Second
)

// HTTPDoer is the subset of *http.Client the OpenAI client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// OpenAIClient talks to any OpenAI-compatible /chat/completions endpoint
// (OpenAI, Groq, a local Ollama /v1).
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	backoff    time.Duration
}

type OpenAIOpts struct {
	APIKey     string
	BaseURL    string
	HTTPClient HTTPDoer
	// Backoff is the first retry delay; it doubles on every attempt.
	Backoff time.Duration
}

func NewOpenAIClient(opts OpenAIOpts) *OpenAIClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenAIBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: requestTimeout}
	}
	if opts.Backoff == 0 {
		opts.Backoff = initialBackoff
	}
	return &OpenAIClient{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		backoff:    opts.Backoff,
	}
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// permanentError marks failures that retrying will not fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return &permanentError{err: err} }

// Generate posts the conversation and returns the first choice's content,
// trimmed. Transport errors, 429 and 5xx are retried with exponential backoff.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	log := zerolog.Ctx(ctx)

	if c.apiKey == "" {
		return "", serviceErr(providerOpenAI, "api key is not configured")
	}

	payloadBytes, err := json.Marshal(chatCompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", serviceErr(providerOpenAI, "failed to marshal payload: %w", err)
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			wait := c.backoff * time.Duration(math.Pow(2, float64(i-1)))
			select {
			case <-ctx.Done():
				return "", &ServiceError{Provider: providerOpenAI, Err: ctx.Err()}
			case <-time.After(wait):
			}
		}

		log.Debug().Int("attempt", i+1).Str("model", req.Model).Msg("Calling chat completions API")

		text, err := c.do(ctx, payloadBytes)
		if err == nil {
			return text, nil
		}
		lastErr = err
		var perm *permanentError
		if errors.As(err, &perm) {
			break
		}
		log.Warn().Err(err).Msgf("Attempt %d failed", i+1)
	}

	return "", &ServiceError{Provider: providerOpenAI, Err: lastErr}
}

func (c *OpenAIClient) do(ctx context.Context, payload []byte) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", permanent(fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("API returned non-200 status: %s, Body: %s", resp.Status, strings.TrimSpace(string(body)))
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return "", permanent(err)
		}
		return "", err
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	if len(out.Choices) == 0 {
		return "", permanent(errors.New("no choices in response"))
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
