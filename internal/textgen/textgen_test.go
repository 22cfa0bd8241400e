package textgen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"
)

type stubGenerator struct {
	text  string
	err   error
	calls int
}

func (s *stubGenerator) Generate(context.Context, Request) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestSplitSystem(t *testing.T) {
	sys, turns := splitSystem([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "b"},
		{Role: RoleAssistant, Content: "c"},
		{Role: RoleSystem, Content: "d"},
	})
	assert.Equal(t, []string{"a", "d"}, sys)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "b"}, {Role: RoleAssistant, Content: "c"}}, turns)
}

func TestGeminiHistory(t *testing.T) {
	history := geminiHistory([]Message{
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Content: "a"},
	})
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, []genai.Part{genai.Text("a")}, history[1].Parts)
}

type fakeBedrock struct {
	in  *bedrockruntime.ConverseInput
	out *bedrockruntime.ConverseOutput
	err error
}

func (f *fakeBedrock) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestBedrockClient_Generate(t *testing.T) {
	req := Request{
		Model:       "anthropic.model",
		Temperature: 0.7,
		Messages: []Message{
			{Role: RoleSystem, Content: "sys"},
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
			{Role: RoleUser, Content: "what now"},
		},
	}

	t.Run("success", func(t *testing.T) {
		fb := &fakeBedrock{out: &bedrockruntime.ConverseOutput{
			Output: &types.ConverseOutputMemberMessage{Value: types.Message{
				Role:    types.ConversationRoleAssistant,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: " Eat more fibre. "}},
			}},
		}}

		text, err := NewBedrockClient(fb).Generate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "Eat more fibre.", text)

		require.NotNil(t, fb.in)
		assert.Equal(t, "anthropic.model", *fb.in.ModelId)
		assert.Len(t, fb.in.System, 1)
		require.Len(t, fb.in.Messages, 3)
		assert.Equal(t, types.ConversationRoleAssistant, fb.in.Messages[1].Role)
		assert.InDelta(t, 0.7, *fb.in.InferenceConfig.Temperature, 1e-6)
	})

	t.Run("error is a service error", func(t *testing.T) {
		fb := &fakeBedrock{err: errors.New("throttled")}
		_, err := NewBedrockClient(fb).Generate(context.Background(), req)
		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "bedrock", svcErr.Provider)
	})

	t.Run("no text blocks", func(t *testing.T) {
		fb := &fakeBedrock{out: &bedrockruntime.ConverseOutput{
			Output: &types.ConverseOutputMemberMessage{Value: types.Message{}},
		}}
		_, err := NewBedrockClient(fb).Generate(context.Background(), req)
		assert.ErrorContains(t, err, "no text content")
	})
}

type recordingObserver struct {
	provider string
	err      error
	calls    int
}

func (r *recordingObserver) ObserveTextGen(provider string, _ time.Duration, err error) {
	r.provider, r.err = provider, err
	r.calls++
}

func TestMiddleware(t *testing.T) {
	t.Run("rate limited passes through", func(t *testing.T) {
		stub := &stubGenerator{text: "ok"}
		g := NewRateLimited(stub, rate.NewLimiter(rate.Inf, 1))
		text, err := g.Generate(context.Background(), Request{})
		require.NoError(t, err)
		assert.Equal(t, "ok", text)
	})

	t.Run("rate limited honours cancellation", func(t *testing.T) {
		stub := &stubGenerator{text: "ok"}
		limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
		require.True(t, limiter.Allow())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewRateLimited(stub, limiter).Generate(ctx, Request{})
		var svcErr *ServiceError
		assert.ErrorAs(t, err, &svcErr)
		assert.Equal(t, 0, stub.calls)
	})

	t.Run("instrumented reports outcome", func(t *testing.T) {
		obs := &recordingObserver{}
		boom := errors.New("boom")
		_, err := NewInstrumented(&stubGenerator{err: boom}, obs, "openai").Generate(context.Background(), Request{})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, obs.calls)
		assert.Equal(t, "openai", obs.provider)
		assert.ErrorIs(t, obs.err, boom)
	})

	t.Run("traced returns inner result", func(t *testing.T) {
		tracer := noop.NewTracerProvider().Tracer("test")
		text, err := NewTraced(&stubGenerator{text: "fine"}, tracer, "openai").Generate(context.Background(), Request{Model: "m"})
		require.NoError(t, err)
		assert.Equal(t, "fine", text)

		_, err = NewTraced(&stubGenerator{err: errors.New("x")}, tracer, "openai").Generate(context.Background(), Request{})
		assert.Error(t, err)
	})
}
