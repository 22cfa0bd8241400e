/*
Package chat implements the conversational endpoint: a bounded transcript of
recent exchanges, a session that turns a prompt into a reply, and a registry
that keeps one session per browser.
*/
package chat

import "sync"

// MaxTurns is how many exchanges a transcript remembers.
const MaxTurns = 15

// Turn is one prompt and the answer that was given for it.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Transcript is a FIFO of at most MaxTurns turns. It is safe for concurrent
// use.
type Transcript struct {
	mu    sync.Mutex
	turns []Turn
	max   int
}

func NewTranscript() *Transcript {
	return &Transcript{max: MaxTurns}
}

// Append records a turn and drops the oldest ones beyond the limit.
func (t *Transcript) Append(user, assistant string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.turns = append(t.turns, Turn{User: user, Assistant: assistant})
	if over := len(t.turns) - t.max; over > 0 {
		t.turns = append([]Turn(nil), t.turns[over:]...)
	}
}

// Turns returns a copy, oldest first.
func (t *Transcript) Turns() []Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Turn(nil), t.turns...)
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.turns)
}

func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = nil
}
