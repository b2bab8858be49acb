package transcript

import (
	"sync"

	"github.com/travelagi/dashboard/internal/model/chat"
)

// Service keeps the in-memory chat transcript: an append-only ordered
// sequence that lives only for the lifetime of the process. Nothing here is
// persisted; a restart starts with an empty transcript.
type Service struct {
	mu       sync.RWMutex
	messages []chat.Message
}

// NewService bootstraps an empty transcript.
func NewService() *Service {
	return &Service{messages: make([]chat.Message, 0, 16)}
}

// Append adds a message at the end, preserving arrival order.
func (s *Service) Append(msg chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Messages returns a copy of the transcript, newest last.
func (s *Service) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}
