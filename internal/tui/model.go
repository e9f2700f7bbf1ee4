package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/dvieira/kai/internal/errors"
	"github.com/dvieira/kai/internal/logging"
	"github.com/dvieira/kai/internal/models"
	"github.com/dvieira/kai/internal/render"
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	responseMsg struct {
		seq   int
		reply models.Message
	}
	errMsg struct {
		seq int
		err error
	}
	copiedMsg      struct{}
	clearCopiedMsg struct{}
)

// SessionInterface defines the session operations the dialog needs
type SessionInterface interface {
	Send(ctx context.Context, text string) (models.Message, error)
	Transcript() models.Transcript
	Model() string
}

// HistoryStoreInterface defines the history operations the dialog needs
type HistoryStoreInterface interface {
	AppendExchange(id string, user, assistant models.Message) error
}

// Model represents the chat dialog state
type Model struct {
	session   SessionInterface
	modelName string

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	loading        bool
	ready          bool
	err            error
	animationFrame int

	// In-flight request tracking. Results carrying a sequence number
	// other than reqSeq belong to a cancelled request and are dropped.
	reqSeq        int
	cancelRequest context.CancelFunc

	// Prompt restored into the textarea when a send fails or is cancelled
	pendingPrompt string

	// History persistence (nil when history is disabled)
	historyStore HistoryStoreInterface
	convID       string

	copyEnabled bool
	copied      bool

	// Dimensions
	width  int
	height int
}

// Options configures optional dialog behavior.
type Options struct {
	HistoryStore    HistoryStoreInterface
	ConversationID  string
	CopyToClipboard bool
}

// NewChatModel creates a new chat dialog model
func NewChatModel(session SessionInterface, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		session:      session,
		modelName:    session.Model(),
		textarea:     ta,
		spinner:      s,
		historyStore: opts.HistoryStore,
		convID:       opts.ConversationID,
		copyEnabled:  opts.CopyToClipboard,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}

		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.textarea.SetWidth(contentWidth - 4)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
			m.textarea.SetWidth(contentWidth - 4)
		}
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m = m.cancelInFlight()
			return m, tea.Quit

		case "esc":
			if m.loading {
				m = m.cancelInFlight()
				m.textarea.SetValue(m.pendingPrompt)
				m.textarea.CursorEnd()
			} else {
				return m, tea.Quit
			}

		case "ctrl+y":
			if m.copyEnabled && !m.loading {
				if last, ok := m.session.Transcript().LastAssistant(); ok {
					return m, copyToClipboard(last.Content)
				}
			}

		case "enter":
			if !m.loading && strings.TrimSpace(m.textarea.Value()) != "" {
				input := strings.TrimSpace(m.textarea.Value())
				if input == "exit" || input == "quit" || input == "/exit" || input == "/quit" {
					return m, tea.Quit
				}

				m.loading = true
				m.err = nil
				m.copied = false
				m.animationFrame = 0
				m.pendingPrompt = input
				m.textarea.Reset()

				m.reqSeq++
				ctx, cancel := context.WithCancel(context.Background())
				m.cancelRequest = cancel
				cmd = m.sendMessage(ctx, m.reqSeq, input)

				m.updateViewport()
				m.viewport.GotoBottom()

				return m, tea.Batch(
					cmd,
					m.spinner.Tick,
					animationTick(),
				)
			}
		}

	case responseMsg:
		if msg.seq != m.reqSeq {
			break
		}
		m.loading = false
		m.cancelRequest = nil
		m.persistExchange(msg.reply)
		m.pendingPrompt = ""
		m.updateViewport()
		m.viewport.GotoBottom()

	case errMsg:
		if msg.seq != m.reqSeq {
			break
		}
		m.loading = false
		m.cancelRequest = nil
		m.err = msg.err
		m.textarea.SetValue(m.pendingPrompt)
		m.textarea.CursorEnd()
		m.updateViewport()
		m.viewport.GotoBottom()

	case copiedMsg:
		m.copied = true
		cmds = append(cmds, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
			return clearCopiedMsg{}
		}))

	case clearCopiedMsg:
		m.copied = false

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only pass KeyMsg to the textarea to prevent escape sequence leaks,
	// and never while a request is in flight.
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// cancelInFlight abandons the current request. Bumping reqSeq ensures its
// late result is discarded if it ever arrives.
func (m Model) cancelInFlight() Model {
	if m.cancelRequest != nil {
		m.cancelRequest()
		m.cancelRequest = nil
	}
	m.reqSeq++
	m.loading = false
	return m
}

// persistExchange records the completed turn when history is enabled
func (m Model) persistExchange(reply models.Message) {
	if m.historyStore == nil || m.convID == "" {
		return
	}
	user := models.UserMessage(m.pendingPrompt)
	if err := m.historyStore.AppendExchange(m.convID, user, reply); err != nil {
		logging.Warnw("failed to persist exchange", "conversation", m.convID, "error", err)
	}
}

// View renders the dialog
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	headerParts := []string{
		titleStyle.Render("kai"),
		hintStyle.Render("  |  "),
		subtitleStyle.Render(m.modelName),
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)
	header := headerStyle.Width(contentWidth).Render(headerContent)
	sections = append(sections, header)

	var messagesContent string
	if len(m.visibleMessages()) == 0 && m.err == nil {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}

	messagesPanel := messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent)
	sections = append(sections, messagesPanel)

	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}

	inputPanel := inputPanelStyle.Width(contentWidth).Render(inputContent)
	sections = append(sections, inputPanel)

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.err != nil {
		sections = append(sections, m.formatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// visibleMessages returns the transcript messages shown in the dialog
func (m Model) visibleMessages() models.Transcript {
	var visible models.Transcript
	for _, msg := range m.session.Transcript() {
		if msg.Role == models.RoleSystem {
			continue
		}
		visible = append(visible, msg)
	}
	return visible
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("*")
	title := welcomeTitleStyle.Width(width).Render("Welcome to kai")
	subtitle := welcomeStyle.Width(width).Render("Start a conversation by typing a message below")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		icon,
		"",
		title,
		"",
		subtitle,
		"",
	)

	contentHeight := lipgloss.Height(content)
	topPadding := (height - contentHeight) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation renders the animated in-flight indicator
func (m Model) renderLoadingAnimation() string {
	frame := m.animationFrame

	barWidth := 20
	barChars := []string{"#", "#", "#", "=", "-", "."}
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		charIdx := (i + frame/2) % len(barChars)
		bar.WriteString(loadingStyle.Render(barChars[charIdx]))
	}

	dots := strings.Repeat(".", (frame/3)%4)
	text := lipgloss.NewStyle().Foreground(colorText).Render(" Waiting for " + m.modelName + " ")

	return fmt.Sprintf("%s %s %s%s", m.spinner.View(), bar.String(), text, dots)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	type shortcut struct {
		key  string
		desc string
	}

	shortcuts := []shortcut{
		{"Enter", "Send"},
	}
	if m.loading {
		shortcuts = append(shortcuts, shortcut{"Esc", "Cancel"})
	} else {
		shortcuts = append(shortcuts, shortcut{"Esc", "Quit"})
	}
	if m.copyEnabled {
		shortcuts = append(shortcuts, shortcut{"Ctrl+Y", "Copy reply"})
	}
	shortcuts = append(shortcuts, shortcut{"Up/Down", "Scroll"})

	var items []string
	for _, s := range shortcuts {
		item := lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		)
		items = append(items, item)
	}

	if m.copied {
		items = append(items, statusDescStyle.Render("copied"))
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(items, "  |  "))
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// sendMessage creates a command that sends the prompt to the assistant
func (m Model) sendMessage(ctx context.Context, seq int, prompt string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		reply, err := session.Send(ctx, prompt)
		if err != nil {
			return errMsg{seq: seq, err: err}
		}
		return responseMsg{seq: seq, reply: reply}
	}
}

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			logging.Warnw("clipboard copy failed", "error", err)
			return nil
		}
		return copiedMsg{}
	}
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	messages := m.visibleMessages()
	if m.loading && m.pendingPrompt != "" {
		messages = append(messages, models.UserMessage(m.pendingPrompt))
	}

	for i, msg := range messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.Role == models.RoleUser {
			label := userLabelStyle.Render("You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Content)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := assistantLabelStyle.Render(m.modelName)

			rendered, err := render.MarkdownWithWidth(msg.Content, bubbleWidth-4)
			if err != nil {
				rendered = msg.Content
			}
			rendered = strings.TrimRight(rendered, "\n")

			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(rendered)
			content.WriteString(label + "\n" + bubble)
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// formatError formats an error with details and a recovery hint
func (m Model) formatError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	sb.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", err)))

	detailStyle := lipgloss.NewStyle().Foreground(colorTextDim).PaddingLeft(2)
	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString("\n")
		sb.WriteString(detailStyle.Render(fmt.Sprintf("HTTP Status: %d", status)))
	}

	hint := lipgloss.NewStyle().Foreground(colorPrimary).PaddingLeft(2)
	switch {
	case apierrors.IsAuthError(err):
		sb.WriteString("\n")
		sb.WriteString(hint.Render("Check your API key with 'kai config set-key'"))
	case apierrors.IsTimeoutError(err):
		sb.WriteString("\n")
		sb.WriteString(hint.Render("Request timed out. Try again"))
	case apierrors.IsNetworkError(err):
		sb.WriteString("\n")
		sb.WriteString(hint.Render("Check your internet connection"))
	case apierrors.IsConfigError(err):
		sb.WriteString("\n")
		sb.WriteString(hint.Render("Review ~/.kai/config.yml or run 'kai config init'"))
	}

	return sb.String()
}

// RunDialog starts the chat dialog
func RunDialog(session SessionInterface, opts Options) error {
	m := NewChatModel(session, opts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
