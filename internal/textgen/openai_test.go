package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Generate(t *testing.T) {
	req := Request{
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		Messages: []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "hello"},
		},
	}

	t.Run("success sends model, messages and temperature", func(t *testing.T) {
		var got chatCompletionRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Hi there!  \n"}}]}`)) // nolint: errcheck
		}))
		defer srv.Close()

		c := NewOpenAIClient(OpenAIOpts{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
		text, err := c.Generate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "Hi there!", text)
		assert.Equal(t, "gpt-4o-mini", got.Model)
		assert.Equal(t, 0.7, got.Temperature)
		assert.Equal(t, req.Messages, got.Messages)
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				http.Error(w, "upstream down", http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`)) // nolint: errcheck
		}))
		defer srv.Close()

		c := NewOpenAIClient(OpenAIOpts{APIKey: "k", BaseURL: srv.URL, Backoff: time.Millisecond})
		text, err := c.Generate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "ok", text)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("does not retry auth errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
		}))
		defer srv.Close()

		c := NewOpenAIClient(OpenAIOpts{APIKey: "bad", BaseURL: srv.URL, Backoff: time.Millisecond})
		_, err := c.Generate(context.Background(), req)
		require.Error(t, err)

		var svcErr *ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, "openai", svcErr.Provider)
		assert.Contains(t, err.Error(), "401")
		assert.Contains(t, err.Error(), "invalid api key")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "slow down", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewOpenAIClient(OpenAIOpts{APIKey: "k", BaseURL: srv.URL, Backoff: time.Millisecond})
		_, err := c.Generate(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, int32(maxRetries), calls.Load())
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`)) // nolint: errcheck
		}))
		defer srv.Close()

		c := NewOpenAIClient(OpenAIOpts{APIKey: "k", BaseURL: srv.URL, Backoff: time.Millisecond})
		_, err := c.Generate(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode response")
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`)) // nolint: errcheck
		}))
		defer srv.Close()

		c := NewOpenAIClient(OpenAIOpts{APIKey: "k", BaseURL: srv.URL})
		_, err := c.Generate(context.Background(), req)
		assert.ErrorContains(t, err, "no choices")
	})

	t.Run("missing api key", func(t *testing.T) {
		c := NewOpenAIClient(OpenAIOpts{})
		_, err := c.Generate(context.Background(), req)
		var svcErr *ServiceError
		assert.ErrorAs(t, err, &svcErr)
		assert.ErrorContains(t, err, "api key is not configured")
	})
}
