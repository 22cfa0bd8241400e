package chat

import (
	"fmt"
	"sync"

	"DietPlanner/internal/textgen"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Scope decides whether callers share one transcript.
type Scope string

const (
	ScopeSession Scope = "session"
	ScopeGlobal  Scope = "global"
)

// DefaultMaxSessions bounds the number of live transcripts.
const DefaultMaxSessions = 1024

// Registry hands out sessions by id. The least recently used session is
// forgotten once MaxSessions is reached.
type Registry struct {
	scope    Scope
	sessions *lru.Cache[string, *Session]
	global   *Session
	newFn    func() *Session

	mu sync.Mutex
}

type RegistryOpts struct {
	Scope       Scope
	MaxSessions int
	Model       string
	Temperature float64
	Recorder    TurnRecorder
}

func NewRegistry(gen textgen.Generator, opts RegistryOpts) (*Registry, error) {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.Scope == "" {
		opts.Scope = ScopeSession
	}

	r := &Registry{
		scope: opts.Scope,
		newFn: func() *Session {
			return NewSession(gen, opts.Model, opts.Temperature, opts.Recorder)
		},
	}

	switch opts.Scope {
	case ScopeGlobal:
		r.global = r.newFn()
	case ScopeSession:
		cache, err := lru.New[string, *Session](opts.MaxSessions)
		if err != nil {
			return nil, fmt.Errorf("failed to create session cache: %w", err)
		}
		r.sessions = cache
	default:
		return nil, fmt.Errorf("unknown chat scope %q", opts.Scope)
	}
	return r, nil
}

func (r *Registry) Scope() Scope { return r.scope }

// Get returns the session for id, creating it on first use. With global
// scope the id is ignored.
func (r *Registry) Get(id string) *Session {
	if r.scope == ScopeGlobal {
		return r.global
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions.Get(id); ok {
		return s
	}
	s := r.newFn()
	r.sessions.Add(id, s)
	return s
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	if r.scope == ScopeGlobal {
		return 1
	}
	return r.sessions.Len()
}
