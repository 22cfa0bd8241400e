package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"DietPlanner/internal/textgen"

	"github.com/rs/zerolog"
)

// SystemPrompt is sent first in every chat request.
const SystemPrompt = "You are a professional Indian dietitian chatbot. Give healthy diet suggestions based on user input."

// ErrEmptyPrompt is returned for prompts that are blank after trimming.
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// TurnRecorder is notified once per answered prompt.
type TurnRecorder interface {
	ChatTurn()
}

// Session answers prompts with the context of its own transcript.
type Session struct {
	transcript  *Transcript
	gen         textgen.Generator
	model       string
	temperature float64
	rec         TurnRecorder

	// serialises Respond so turns land in the transcript in call order
	mu sync.Mutex
}

func NewSession(gen textgen.Generator, model string, temperature float64, rec TurnRecorder) *Session {
	return &Session{
		transcript:  NewTranscript(),
		gen:         gen,
		model:       model,
		temperature: temperature,
		rec:         rec,
	}
}

func (s *Session) Transcript() *Transcript { return s.transcript }

// Messages builds the request: the system prompt, every remembered turn as
// a user/assistant pair, then the new prompt.
func (s *Session) Messages(prompt string) []textgen.Message {
	turns := s.transcript.Turns()
	msgs := make([]textgen.Message, 0, 2+2*len(turns))
	msgs = append(msgs, textgen.Message{Role: textgen.RoleSystem, Content: SystemPrompt})
	for _, t := range turns {
		msgs = append(msgs,
			textgen.Message{Role: textgen.RoleUser, Content: t.User},
			textgen.Message{Role: textgen.RoleAssistant, Content: t.Assistant},
		)
	}
	return append(msgs, textgen.Message{Role: textgen.RoleUser, Content: prompt})
}

// Respond answers prompt. A failed service call is not an error: its text
// becomes the answer and is remembered like any other.
func (s *Session) Respond(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	answer, err := s.gen.Generate(ctx, textgen.Request{
		Model:       s.model,
		Messages:    s.Messages(prompt),
		Temperature: s.temperature,
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Chat completion failed")
		answer = fmt.Sprintf("Error: %v", err)
	} else {
		answer = strings.TrimSpace(answer)
	}

	s.transcript.Append(prompt, answer)
	if s.rec != nil {
		s.rec.ChatTurn()
	}
	return answer, nil
}
