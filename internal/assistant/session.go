package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dvieira/kai/internal/models"
)

// Session owns the canonical transcript for one open dialog. It lives
// exactly as long as the dialog and is never shared across dialogs.
//
// After every successful Send the transcript strictly alternates
// user/assistant entries; a failed Send leaves it unchanged.
type Session struct {
	client       *Client
	mu           sync.RWMutex
	transcript   models.Transcript
	systemPrompt string
}

// NewSession creates a session with an empty transcript. systemPrompt, when
// non-empty, is sent ahead of the transcript on every request but is not
// part of the transcript itself.
func NewSession(client *Client, systemPrompt string) *Session {
	return &Session{
		client:       client,
		systemPrompt: systemPrompt,
	}
}

// Send appends the user's message, requests a reply, and appends it. On any
// failure the transcript is rolled back so it is unchanged.
func (s *Session) Send(ctx context.Context, text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, fmt.Errorf("message cannot be empty")
	}

	s.mu.Lock()
	s.transcript = s.transcript.Append(models.UserMessage(text))
	outbound := s.outboundLocked()
	s.mu.Unlock()

	reply, err := s.client.Send(ctx, outbound)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		// Roll back the pending user message
		s.transcript = s.transcript[:len(s.transcript)-1]
		return models.Message{}, err
	}

	s.transcript = s.transcript.Append(reply)
	return reply, nil
}

// outboundLocked builds the wire transcript: optional system prompt followed
// by the full conversation. Caller holds s.mu.
func (s *Session) outboundLocked() models.Transcript {
	out := make(models.Transcript, 0, len(s.transcript)+1)
	if s.systemPrompt != "" {
		out = append(out, models.SystemMessage(s.systemPrompt))
	}
	return append(out, s.transcript...)
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() models.Transcript {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript.Clone()
}

// Len returns the number of messages in the transcript.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transcript)
}

// Model returns the model identifier the session's client sends.
func (s *Session) Model() string {
	return s.client.Model()
}
