package models

// Transcript is the ordered, append-only conversation history for one open
// dialog. The zero value is ready to use.
type Transcript []Message

// Append returns the transcript with msg added at the tail.
func (t Transcript) Append(msg Message) Transcript {
	return append(t, msg)
}

// Last returns the final message and true, or a zero Message and false when
// the transcript is empty.
func (t Transcript) Last() (Message, bool) {
	if len(t) == 0 {
		return Message{}, false
	}
	return t[len(t)-1], true
}

// LastAssistant returns the most recent assistant message, scanning from the
// tail.
func (t Transcript) LastAssistant() (Message, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Role == RoleAssistant {
			return t[i], true
		}
	}
	return Message{}, false
}

// Alternates reports whether non-system messages strictly alternate
// user/assistant starting with a user message. A trailing unanswered user
// message is permitted.
func (t Transcript) Alternates() bool {
	want := RoleUser
	for _, msg := range t {
		if msg.Role == RoleSystem {
			continue
		}
		if msg.Role != want {
			return false
		}
		if want == RoleUser {
			want = RoleAssistant
		} else {
			want = RoleUser
		}
	}
	return true
}

// Clone returns an independent copy. Callers handing the transcript to
// another goroutine must clone first.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}
