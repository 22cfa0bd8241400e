// Package mock provides a deterministic text generator for tests.
package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"DietPlanner/internal/textgen"
)

// Generator replays scripted responses in order and records every request.
// Once the script is exhausted it echoes the last user message back.
type Generator struct {
	mu        sync.Mutex
	responses []string
	err       error
	failAt    map[int]error
	requests  []textgen.Request
}

// New returns a generator that answers with responses in order.
func New(responses ...string) *Generator {
	return &Generator{responses: responses, failAt: map[int]error{}}
}

// NewFailing returns a generator whose every call fails with err wrapped
// in a *textgen.ServiceError.
func NewFailing(err error) *Generator {
	if err == nil {
		err = errors.New("service unavailable")
	}
	return &Generator{err: err, failAt: map[int]error{}}
}

// FailOn makes the n-th call (zero based) fail with err.
func (g *Generator) FailOn(n int, err error) *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failAt[n] = err
	return g
}

func (g *Generator) Generate(_ context.Context, req textgen.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.requests)
	cp := req
	cp.Messages = append([]textgen.Message(nil), req.Messages...)
	g.requests = append(g.requests, cp)

	if g.err != nil {
		return "", &textgen.ServiceError{Provider: "mock", Err: g.err}
	}
	if err, ok := g.failAt[n]; ok {
		return "", &textgen.ServiceError{Provider: "mock", Err: err}
	}
	if len(g.responses) > 0 {
		r := g.responses[0]
		g.responses = g.responses[1:]
		return r, nil
	}

	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == textgen.RoleUser {
			return fmt.Sprintf("echo: %s", req.Messages[i].Content), nil
		}
	}
	return "", nil
}

// Requests returns a copy of every request received so far.
func (g *Generator) Requests() []textgen.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]textgen.Request(nil), g.requests...)
}

// Calls returns the number of Generate calls.
func (g *Generator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}
