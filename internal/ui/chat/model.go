// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/newsdesk/internal/model"
	"github.com/jeranaias/newsdesk/internal/session"
	"github.com/jeranaias/newsdesk/internal/ui/components"
	"github.com/jeranaias/newsdesk/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady    State = iota // Ready for input
	StateAwaiting              // Waiting for the backend reply
)

// String returns the state name.
func (s State) String() string {
	if s == StateAwaiting {
		return "awaiting"
	}
	return "ready"
}

// MaxInputLength caps a single message.
const MaxInputLength = 2000

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures the chat view.
type Options struct {
	// Hyperlinks renders card links as OSC 8 hyperlinks.
	Hyperlinks bool

	// Endpoint is shown in the header.
	Endpoint string

	// DefaultMode is the configured mode. A config reload only switches the
	// session mode when this value changes.
	DefaultMode model.Mode
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	sess    *session.Session
	entries []model.Entry

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap

	cancel       *requestCanceler
	awaitStarted time.Time

	hyperlinks  bool
	endpoint    string
	defaultMode model.Mode

	// notice is a one-line status message, replaced by the next one
	notice string
}

// New creates a chat view over sess.
func New(sess *session.Session, theme *styles.Theme, opts Options) Model {
	if theme == nil {
		theme = styles.NewTheme()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about today's news..."
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.CharLimit = MaxInputLength
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return Model{
		state:       StateReady,
		theme:       theme,
		sess:        sess,
		viewport:    viewport.New(0, 0),
		input:       ti,
		spinner:     sp,
		keyMap:      DefaultKeyMap(),
		cancel:      newRequestCanceler(),
		hyperlinks:  opts.Hyperlinks,
		endpoint:    opts.Endpoint,
		defaultMode: opts.DefaultMode,
	}
}

// Init loads the stored transcript.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, LoadHistoryCmd(m.sess))
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case HistoryLoadedMsg:
		return m.handleHistory(msg)

	case ExchangeDoneMsg:
		return m.handleExchangeDone(msg)

	case ChatClearedMsg:
		return m.handleChatCleared(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case spinner.TickMsg:
		if m.state != StateAwaiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat view.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Layout: header + viewport + input area (top border + line) + status bar.
	// Keep in sync with renderChat.
	const (
		headerHeight    = 1
		inputAreaHeight = 2
		statusBarHeight = 1
	)

	viewportHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	viewportWidth := m.width
	if viewportWidth < 1 {
		viewportWidth = 1
	}
	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight

	// Input line: container padding (2) + prompt (2)
	inputWidth := m.width - 4 - len(m.input.Prompt)
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.theme.SetSize(m.width, m.height)
	m.refreshTranscript()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.cancel.abort()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Cancel):
		if m.state == StateAwaiting && m.cancel.abort() {
			m.notice = "Cancelling request..."
		}
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keyMap.Bottom):
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keyMap.ToggleMode):
		mode := m.sess.ToggleMode()
		m.notice = fmt.Sprintf("Mode: %s", mode.DisplayName())
		return m, nil

	case key.Matches(msg, m.keyMap.NewChat):
		if m.state == StateAwaiting {
			m.notice = "Wait for the reply before starting a new chat."
			return m, nil
		}
		return m, NewChatCmd(m.sess)

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()
	}

	// Input is disabled while awaiting a reply
	if m.state == StateAwaiting {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit shows the user bubble right away and starts the exchange.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.state == StateAwaiting {
		return m, nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	m.entries = append(m.entries, model.UserEntry(text))
	m.input.Reset()
	m.input.Blur()
	m.state = StateAwaiting
	m.awaitStarted = time.Now()
	m.notice = ""
	m.refreshTranscript()

	ctx := m.cancel.begin(context.Background())
	return m, tea.Batch(SubmitCmd(ctx, m.sess, text), m.spinner.Tick)
}

func (m Model) handleHistory(msg HistoryLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		log.Printf("HISTORY_LOAD_FAILED | error=%v", msg.Err)
		m.notice = "Could not load chat history."
		return m, nil
	}
	// Messages sent before the history arrived stay after it
	m.entries = append(msg.Entries, m.entries...)
	m.refreshTranscript()
	return m, nil
}

func (m Model) handleExchangeDone(msg ExchangeDoneMsg) (tea.Model, tea.Cmd) {
	m.cancel.done()
	m.state = StateReady
	focusCmd := m.input.Focus()

	switch {
	case errors.Is(msg.Err, session.ErrBusy):
		m.notice = "Still waiting for the previous reply."
	case msg.Err != nil:
		m.notice = msg.Err.Error()
	default:
		m.entries = append(m.entries, msg.Exchange.Reply...)
		if errors.Is(msg.Exchange.Err, context.Canceled) {
			m.notice = "Request cancelled."
		}
	}

	m.refreshTranscript()
	return m, focusCmd
}

func (m Model) handleChatCleared(msg ChatClearedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		log.Printf("NEW_CHAT_FAILED | error=%v", msg.Err)
		m.notice = "Could not start a new chat."
		return m, nil
	}
	m.entries = nil
	m.notice = "Started a new chat."
	m.refreshTranscript()
	return m, nil
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil || msg.Config == nil {
		m.notice = "Config reload failed; keeping current settings."
		return m, nil
	}

	m.hyperlinks = msg.Config.UI.Hyperlinks
	m.sess.SetPersistAssistantReplies(msg.Config.Chat.PersistAssistantReplies)
	m.notice = "Configuration reloaded."
	if mode := msg.Config.Mode(); mode != m.defaultMode {
		m.defaultMode = mode
		if err := m.sess.SetMode(mode); err == nil {
			m.notice = fmt.Sprintf("Configuration reloaded. Mode: %s", mode.DisplayName())
		}
	}

	m.refreshTranscript()
	return m, nil
}

// =============================================================================
// VIEWPORT
// =============================================================================

// refreshTranscript re-renders the transcript and scrolls to the newest
// entry.
func (m *Model) refreshTranscript() {
	if m.width == 0 {
		return
	}

	var content string
	if len(m.entries) == 0 {
		content = components.RenderEmpty(m.viewport.Width)
	} else {
		content = components.RenderTranscript(m.entries, components.RenderOptions{
			Width:      m.viewport.Width - 2,
			Hyperlinks: m.hyperlinks,
		})
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current view state.
func (m Model) State() State {
	return m.state
}

// Entries returns the transcript currently shown.
func (m Model) Entries() []model.Entry {
	return m.entries
}

// Notice returns the current status line message.
func (m Model) Notice() string {
	return m.notice
}
