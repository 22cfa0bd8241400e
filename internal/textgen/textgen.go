/*
Package textgen is the boundary to remote text-generation services.
Callers build a Request (model, messages, temperature) and get plain text back;
every provider failure is reported as a *ServiceError.
*/
package textgen

import (
	"context"
	"fmt"
)

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion call.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
}

// Generator turns a Request into generated text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ServiceError wraps any failure of the remote call: transport errors,
// non-200 responses, auth failures and malformed payloads alike.
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func serviceErr(provider string, format string, args ...any) error {
	return &ServiceError{Provider: provider, Err: fmt.Errorf(format, args...)}
}

// splitSystem separates system messages from the conversation turns.
func splitSystem(msgs []Message) (system []string, turns []Message) {
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
