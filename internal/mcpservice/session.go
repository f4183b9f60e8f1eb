package mcpservice

import (
	"encoding/json"

	"github.com/google/uuid"
)

// session is one live SSE connection. Outgoing JSON-RPC messages are
// queued on out and drained by the /sse handler goroutine that owns
// the connection; done is closed when that goroutine returns, so
// send never blocks forever on a client that has gone away.
type session struct {
	id   string
	out  chan []byte
	done chan struct{}
}

func newSession() *session {
	return &session{
		id:   uuid.NewString(),
		out:  make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

func (s *session) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case s.out <- data:
	case <-s.done:
	}
}
