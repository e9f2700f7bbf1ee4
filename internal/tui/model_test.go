package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	apierrors "github.com/dvieira/kai/internal/errors"
	"github.com/dvieira/kai/internal/models"
)

// fakeSession implements SessionInterface for dialog tests
type fakeSession struct {
	transcript models.Transcript
	reply      string
	err        error
	sendCalls  int
}

func (f *fakeSession) Send(ctx context.Context, text string) (models.Message, error) {
	f.sendCalls++
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}
	if f.err != nil {
		return models.Message{}, f.err
	}
	f.transcript = f.transcript.Append(models.UserMessage(text))
	reply := models.AssistantMessage(f.reply)
	f.transcript = f.transcript.Append(reply)
	return reply, nil
}

func (f *fakeSession) Transcript() models.Transcript {
	return f.transcript.Clone()
}

func (f *fakeSession) Model() string {
	return "gpt-4o-mini"
}

// fakeHistory implements HistoryStoreInterface for dialog tests
type fakeHistory struct {
	exchanges [][2]models.Message
}

func (f *fakeHistory) AppendExchange(id string, user, assistant models.Message) error {
	f.exchanges = append(f.exchanges, [2]models.Message{user, assistant})
	return nil
}

func newTestModel(session SessionInterface, opts Options) Model {
	m := NewChatModel(session, opts)
	resized, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return resized.(Model)
}

func typePrompt(t *testing.T, m Model, prompt string) Model {
	t.Helper()
	m.textarea.SetValue(prompt)
	return m
}

func pressEnter(m Model) (Model, tea.Cmd) {
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

func TestModel_Update_WindowSize(t *testing.T) {
	ta := textarea.New()
	ta.SetWidth(80)

	m := Model{
		session:  &fakeSession{},
		textarea: ta,
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	typed, ok := updated.(Model)
	if !ok {
		t.Fatal("Update should return Model type")
	}
	if typed.width != 100 {
		t.Errorf("Expected width 100, got %d", typed.width)
	}
	if typed.height != 40 {
		t.Errorf("Expected height 40, got %d", typed.height)
	}
	if !typed.ready {
		t.Error("Model should be ready after WindowSizeMsg")
	}
}

func TestModel_SubmitStartsRequest(t *testing.T) {
	session := &fakeSession{reply: "hi there"}
	m := newTestModel(session, Options{})
	m = typePrompt(t, m, "hello")

	m, cmd := pressEnter(m)

	if !m.loading {
		t.Error("Model should be loading after submit")
	}
	if cmd == nil {
		t.Fatal("Expected a send command")
	}
	if m.pendingPrompt != "hello" {
		t.Errorf("Expected pending prompt %q, got %q", "hello", m.pendingPrompt)
	}
	if m.textarea.Value() != "" {
		t.Error("Textarea should be cleared while request is in flight")
	}
}

func TestModel_ResponseAppendsReply(t *testing.T) {
	session := &fakeSession{reply: "hi there"}
	m := newTestModel(session, Options{})
	m = typePrompt(t, m, "hello")

	m, cmd := pressEnter(m)

	msg := runSendCmd(t, cmd)
	resp, ok := msg.(responseMsg)
	if !ok {
		t.Fatalf("Expected responseMsg, got %T", msg)
	}
	if resp.reply.Content != "hi there" {
		t.Errorf("Expected reply %q, got %q", "hi there", resp.reply.Content)
	}

	updated, _ := m.Update(resp)
	m = updated.(Model)

	if m.loading {
		t.Error("Model should not be loading after response")
	}
	if m.pendingPrompt != "" {
		t.Error("Pending prompt should be cleared after response")
	}

	transcript := session.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("Expected 2 transcript messages, got %d", len(transcript))
	}
	if transcript[0].Role != models.RoleUser || transcript[0].Content != "hello" {
		t.Errorf("Unexpected first message: %+v", transcript[0])
	}
	if transcript[1].Role != models.RoleAssistant || transcript[1].Content != "hi there" {
		t.Errorf("Unexpected second message: %+v", transcript[1])
	}
}

func TestModel_ErrorRestoresPrompt(t *testing.T) {
	session := &fakeSession{err: apierrors.NewNetworkError("https://api.example.com", errors.New("connection refused"))}
	m := newTestModel(session, Options{})
	m = typePrompt(t, m, "hello")

	m, cmd := pressEnter(m)
	msg := runSendCmd(t, cmd)

	em, ok := msg.(errMsg)
	if !ok {
		t.Fatalf("Expected errMsg, got %T", msg)
	}

	updated, _ := m.Update(em)
	m = updated.(Model)

	if m.loading {
		t.Error("Model should not be loading after error")
	}
	if m.err == nil {
		t.Error("Model should carry the error")
	}
	if m.textarea.Value() != "hello" {
		t.Errorf("Failed prompt should be restored, got %q", m.textarea.Value())
	}
	if len(session.Transcript()) != 0 {
		t.Error("Transcript should be unchanged after a failed send")
	}
}

func TestModel_SubmitWhileLoadingIgnored(t *testing.T) {
	session := &fakeSession{reply: "first"}
	m := newTestModel(session, Options{})
	m = typePrompt(t, m, "one")
	m, _ = pressEnter(m)

	seqBefore := m.reqSeq
	m = typePrompt(t, m, "two")
	m, cmd := pressEnter(m)

	if m.reqSeq != seqBefore {
		t.Error("Submit while loading should not start a new request")
	}
	if cmd != nil {
		if _, ok := cmd().(tea.BatchMsg); !ok {
			t.Log("Non-batch command returned while loading")
		}
	}
	if m.pendingPrompt != "one" {
		t.Errorf("Pending prompt should remain %q, got %q", "one", m.pendingPrompt)
	}
}

func TestModel_CancelDiscardsLateResult(t *testing.T) {
	session := &fakeSession{reply: "late"}
	m := newTestModel(session, Options{})
	m = typePrompt(t, m, "hello")
	m, _ = pressEnter(m)

	staleSeq := m.reqSeq

	// Cancel with Esc while the request is in flight
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	m = updated.(Model)

	if m.loading {
		t.Error("Model should not be loading after cancel")
	}
	if m.textarea.Value() != "hello" {
		t.Errorf("Cancelled prompt should be restored, got %q", m.textarea.Value())
	}

	// Late result from the cancelled request arrives
	updated, _ = m.Update(responseMsg{seq: staleSeq, reply: models.AssistantMessage("late")})
	m = updated.(Model)

	if m.err != nil {
		t.Errorf("Stale result should be ignored, got error %v", m.err)
	}
	if m.loading {
		t.Error("Stale result should not change loading state")
	}

	// Late error from the cancelled request is also discarded
	updated, _ = m.Update(errMsg{seq: staleSeq, err: fmt.Errorf("too late")})
	m = updated.(Model)
	if m.err != nil {
		t.Error("Stale error should be ignored")
	}
}

func TestModel_ErrorClearedOnNextSubmit(t *testing.T) {
	session := &fakeSession{reply: "ok"}
	m := newTestModel(session, Options{})
	m.err = fmt.Errorf("previous failure")
	m = typePrompt(t, m, "retry")

	m, _ = pressEnter(m)

	if m.err != nil {
		t.Error("Error notice should be cleared when a new prompt is submitted")
	}
}

func TestModel_HistoryRecordsExchange(t *testing.T) {
	session := &fakeSession{reply: "hi there"}
	store := &fakeHistory{}
	m := newTestModel(session, Options{HistoryStore: store, ConversationID: "conv-1"})
	m = typePrompt(t, m, "hello")

	m, cmd := pressEnter(m)
	msg := runSendCmd(t, cmd)

	updated, _ := m.Update(msg)
	m = updated.(Model)

	if len(store.exchanges) != 1 {
		t.Fatalf("Expected 1 recorded exchange, got %d", len(store.exchanges))
	}
	if store.exchanges[0][0].Content != "hello" {
		t.Errorf("Unexpected user message: %+v", store.exchanges[0][0])
	}
	if store.exchanges[0][1].Content != "hi there" {
		t.Errorf("Unexpected assistant message: %+v", store.exchanges[0][1])
	}
}

func TestModel_EmptyPromptIgnored(t *testing.T) {
	session := &fakeSession{}
	m := newTestModel(session, Options{})
	m = typePrompt(t, m, "   ")

	m, _ = pressEnter(m)

	if m.loading {
		t.Error("Whitespace-only prompt should not start a request")
	}
	if session.sendCalls != 0 {
		t.Error("No request should be sent for an empty prompt")
	}
}

func TestModel_ExitCommands(t *testing.T) {
	for _, input := range []string{"exit", "quit", "/exit", "/quit"} {
		session := &fakeSession{}
		m := newTestModel(session, Options{})
		m = typePrompt(t, m, input)

		_, cmd := pressEnter(m)
		if cmd == nil {
			t.Errorf("Expected quit command for input %q", input)
		}
	}
}

func TestModel_Update_AnimationTick(t *testing.T) {
	m := Model{
		session:        &fakeSession{},
		ready:          true,
		loading:        true,
		animationFrame: 0,
	}

	updated, _ := m.Update(animationTickMsg(time.Now()))

	if typed, ok := updated.(Model); ok {
		if typed.animationFrame != 1 {
			t.Error("Animation frame should increment while loading")
		}
	}
}

func TestModel_View_NotReady(t *testing.T) {
	m := Model{session: &fakeSession{}}

	view := m.View()
	if !strings.Contains(view, "Initializing") {
		t.Error("View should show initialization message before first resize")
	}
}

func TestModel_View_ShowsError(t *testing.T) {
	session := &fakeSession{}
	m := newTestModel(session, Options{})
	m.err = apierrors.NewAuthError(401, "invalid key")

	view := m.View()
	if !strings.Contains(view, "Error") {
		t.Error("View should render the error notice")
	}
	if !strings.Contains(view, "set-key") {
		t.Error("Auth errors should include a recovery hint")
	}
}

func TestModel_StatusBarShowsCancelWhileLoading(t *testing.T) {
	session := &fakeSession{}
	m := newTestModel(session, Options{})

	bar := m.renderStatusBar(80)
	if !strings.Contains(bar, "Quit") {
		t.Error("Idle status bar should offer Quit")
	}

	m.loading = true
	bar = m.renderStatusBar(80)
	if !strings.Contains(bar, "Cancel") {
		t.Error("Loading status bar should offer Cancel")
	}
}

func TestFormatError_Hints(t *testing.T) {
	m := Model{session: &fakeSession{}}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"auth", apierrors.NewAuthError(401, "bad key"), "set-key"},
		{"timeout", apierrors.NewTimeoutError("deadline exceeded"), "timed out"},
		{"network", apierrors.NewNetworkError("https://api.example.com", errors.New("refused")), "internet"},
		{"config", apierrors.NewConfigError("", "api_key", "missing", nil), "config.yml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := m.formatError(tt.err)
			if !strings.Contains(out, tt.want) {
				t.Errorf("formatError(%s) missing hint %q:\n%s", tt.name, tt.want, out)
			}
		})
	}
}

// runSendCmd executes a submit command and returns the assistant result message
func runSendCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("Expected a command")
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			got := c()
			switch got.(type) {
			case responseMsg, errMsg:
				return got
			}
		}
		t.Fatal("Batch contained no send result")
	}
	return msg
}
