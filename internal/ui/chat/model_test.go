// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/newsdesk/internal/config"
	"github.com/jeranaias/newsdesk/internal/model"
	"github.com/jeranaias/newsdesk/internal/session"
	"github.com/jeranaias/newsdesk/internal/storage"
	"github.com/jeranaias/newsdesk/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type stubDispatcher struct {
	reply *model.Reply
	err   error
	block bool
	modes []model.Mode
}

func (d *stubDispatcher) GetResponse(ctx context.Context, message string, mode model.Mode) (*model.Reply, error) {
	d.modes = append(d.modes, mode)
	if d.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return d.reply, d.err
}

func newTestModel(t *testing.T, d *stubDispatcher) (Model, *storage.Store) {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.MemoryPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sess := session.New(store, d, session.Options{Mode: model.ModeChat})
	m := New(sess, styles.NewTheme(), Options{Endpoint: "http://localhost:8000"})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, store
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// collect runs cmd and flattens batches. Only use it on commands that do
// not sleep.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findExchange(t *testing.T, msgs []tea.Msg) ExchangeDoneMsg {
	t.Helper()
	for _, msg := range msgs {
		if done, ok := msg.(ExchangeDoneMsg); ok {
			return done
		}
	}
	t.Fatalf("no ExchangeDoneMsg in %v", msgs)
	return ExchangeDoneMsg{}
}

func typeText(m Model, text string) Model {
	m.input.SetValue(text)
	return m
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyCtrlN = tea.KeyMsg{Type: tea.KeyCtrlN}
	keyCtrlC = tea.KeyMsg{Type: tea.KeyCtrlC}
)

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestNew_Ready(t *testing.T) {
	m, _ := newTestModel(t, &stubDispatcher{})

	if m.State() != StateReady {
		t.Errorf("State() = %v, want ready", m.State())
	}
	if !m.input.Focused() {
		t.Error("input should be focused")
	}
	if m.viewport.Width != 100 || m.viewport.Height != 26 {
		t.Errorf("viewport = %dx%d, want 100x26", m.viewport.Width, m.viewport.Height)
	}

	view := m.View()
	if !strings.Contains(view, "No messages yet") {
		t.Errorf("empty view should show the placeholder:\n%s", view)
	}
	if !strings.Contains(view, "localhost:8000") {
		t.Error("header should show the endpoint")
	}
}

func TestView_BeforeResize(t *testing.T) {
	store, err := storage.Open(context.Background(), storage.MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	m := New(session.New(store, &stubDispatcher{}, session.Options{}), nil, Options{})
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q", got)
	}
}

func TestHistoryLoaded(t *testing.T) {
	ctx := context.Background()
	m, store := newTestModel(t, &stubDispatcher{})

	if _, err := store.Append(ctx, model.RoleUser, "old question"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Append(ctx, model.RoleAssistant, "old answer"); err != nil {
		t.Fatal(err)
	}

	msg := LoadHistoryCmd(m.sess)()
	m = update(t, m, msg)

	if got := len(m.Entries()); got != 2 {
		t.Fatalf("entries = %d, want 2", got)
	}
	if m.Entries()[0].Role != model.RoleUser || m.Entries()[1].Role != model.RoleAssistant {
		t.Errorf("history roles out of order: %+v", m.Entries())
	}
	if !strings.Contains(m.View(), "old answer") {
		t.Error("latest history entry should be visible")
	}
}

func TestHistoryLoaded_Error(t *testing.T) {
	m, _ := newTestModel(t, &stubDispatcher{})
	m = update(t, m, HistoryLoadedMsg{Err: errors.New("disk gone")})

	if m.Notice() == "" {
		t.Error("a failed history load should leave a notice")
	}
	if strings.Contains(m.View(), "disk gone") {
		t.Error("error details should not be shown")
	}
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_ChatReply(t *testing.T) {
	d := &stubDispatcher{reply: &model.Reply{Text: "hi", Results: []model.ResultItem{}, Mode: model.ModeChat}}
	m, store := newTestModel(t, d)

	m = typeText(m, "  hello  ")
	m, cmd := updateCmd(t, m, keyEnter)

	if m.State() != StateAwaiting {
		t.Fatalf("State() = %v, want awaiting", m.State())
	}
	if m.input.Focused() {
		t.Error("input should be disabled while awaiting")
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
	if len(m.Entries()) != 1 || m.Entries()[0].Text != "hello" {
		t.Fatalf("user bubble should appear immediately, got %+v", m.Entries())
	}

	done := findExchange(t, collect(cmd))
	m = update(t, m, done)

	if m.State() != StateReady {
		t.Errorf("State() = %v, want ready", m.State())
	}
	entries := m.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want user + assistant", len(entries))
	}
	if entries[1].Kind != model.EntryMessage || entries[1].Text != "hi" {
		t.Errorf("reply entry = %+v", entries[1])
	}
	if !strings.Contains(m.View(), "hi") {
		t.Error("reply should be scrolled into view")
	}

	n, err := store.Count(context.Background())
	if err != nil || n != 1 {
		t.Errorf("stored %d messages (err %v), want the user message only", n, err)
	}
}

func TestSubmit_CardsBeforeBubble(t *testing.T) {
	d := &stubDispatcher{reply: &model.Reply{
		Text:    "Here are the headlines.",
		Results: []model.ResultItem{{Title: "Headline one", Link: "https://news.example/1"}},
		Mode:    model.ModeChat,
	}}
	m, _ := newTestModel(t, d)

	m = typeText(m, "news")
	m, cmd := updateCmd(t, m, keyEnter)
	m = update(t, m, findExchange(t, collect(cmd)))

	entries := m.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[1].Kind != model.EntryResults || entries[2].Kind != model.EntryMessage {
		t.Errorf("want cards then bubble, got %v then %v", entries[1].Kind, entries[2].Kind)
	}
}

func TestSubmit_UpstreamFailureShowsOneErrorBubble(t *testing.T) {
	d := &stubDispatcher{err: errors.New("backend /chat (HTTP 502): bad gateway")}
	m, _ := newTestModel(t, d)

	m = typeText(m, "hello")
	m, cmd := updateCmd(t, m, keyEnter)
	m = update(t, m, findExchange(t, collect(cmd)))

	entries := m.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want user + error", len(entries))
	}
	if entries[1].Kind != model.EntryError || entries[1].Text != session.GenericErrorText {
		t.Errorf("error entry = %+v", entries[1])
	}
	if strings.Contains(m.View(), "bad gateway") {
		t.Error("upstream details must not reach the screen")
	}
}

func TestSubmit_EmptyInputIgnored(t *testing.T) {
	m, _ := newTestModel(t, &stubDispatcher{})

	m = typeText(m, "   ")
	m, cmd := updateCmd(t, m, keyEnter)

	if cmd != nil {
		t.Error("empty submit should not start a request")
	}
	if m.State() != StateReady || len(m.Entries()) != 0 {
		t.Errorf("empty submit changed the view: state=%v entries=%d", m.State(), len(m.Entries()))
	}
}

func TestSubmit_IgnoredWhileAwaiting(t *testing.T) {
	d := &stubDispatcher{reply: &model.Reply{Text: "ok", Results: []model.ResultItem{}}}
	m, _ := newTestModel(t, d)

	m = typeText(m, "first")
	m, _ = updateCmd(t, m, keyEnter)

	m = typeText(m, "second")
	m, cmd := updateCmd(t, m, keyEnter)
	if cmd != nil {
		t.Error("second submit should be ignored")
	}
	if len(m.Entries()) != 1 {
		t.Errorf("entries = %d, want 1", len(m.Entries()))
	}
}

func TestTypingIgnoredWhileAwaiting(t *testing.T) {
	m, _ := newTestModel(t, &stubDispatcher{block: true})

	m = typeText(m, "hello")
	m, _ = updateCmd(t, m, keyEnter)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})

	if m.input.Value() != "" {
		t.Errorf("input accepted text while awaiting: %q", m.input.Value())
	}
	m.cancel.abort()
}

func TestCancel_Esc(t *testing.T) {
	m, store := newTestModel(t, &stubDispatcher{block: true})

	m = typeText(m, "slow question")
	m, cmd := updateCmd(t, m, keyEnter)
	m = update(t, m, keyEsc)

	if m.Notice() == "" {
		t.Error("cancel should leave a notice")
	}

	// The context is already cancelled, so the blocked dispatch returns now
	done := findExchange(t, collect(cmd))
	if !errors.Is(done.Exchange.Err, context.Canceled) {
		t.Fatalf("exchange error = %v, want context.Canceled", done.Exchange.Err)
	}

	m = update(t, m, done)
	if m.State() != StateReady {
		t.Errorf("State() = %v, want ready", m.State())
	}
	if m.Notice() != "Request cancelled." {
		t.Errorf("Notice() = %q", m.Notice())
	}
	entries := m.Entries()
	if len(entries) != 2 || entries[1].Kind != model.EntryError {
		t.Errorf("want user bubble + one error bubble, got %+v", entries)
	}

	n, _ := store.Count(context.Background())
	if n != 1 {
		t.Errorf("stored %d messages, want 1", n)
	}
}

func TestCancel_EscWhenIdle(t *testing.T) {
	m, _ := newTestModel(t, &stubDispatcher{})
	m = update(t, m, keyEsc)

	if m.State() != StateReady || m.Notice() != "" {
		t.Errorf("esc while idle should do nothing, notice=%q", m.Notice())
	}
}

// =============================================================================
// MODE / NEW CHAT / QUIT
// =============================================================================

func TestToggleMode(t *testing.T) {
	d := &stubDispatcher{reply: &model.Reply{Text: "ok", Results: []model.ResultItem{}}}
	m, _ := newTestModel(t, d)

	m = update(t, m, keyTab)
	if m.sess.Mode() != model.ModeAssistant {
		t.Fatalf("Mode() = %v, want assistant", m.sess.Mode())
	}
	if !strings.Contains(m.View(), model.ModeAssistant.DisplayName()) {
		t.Error("status bar should show the new mode")
	}

	m = typeText(m, "hello")
	_, cmd := updateCmd(t, m, keyEnter)
	findExchange(t, collect(cmd))
	if len(d.modes) != 1 || d.modes[0] != model.ModeAssistant {
		t.Errorf("dispatched modes = %v", d.modes)
	}

	m = update(t, m, keyTab)
	if m.sess.Mode() != model.ModeChat {
		t.Errorf("second toggle should return to chat, got %v", m.sess.Mode())
	}
}

func TestNewChat(t *testing.T) {
	ctx := context.Background()
	d := &stubDispatcher{reply: &model.Reply{Text: "ok", Results: []model.ResultItem{}}}
	m, store := newTestModel(t, d)

	m = typeText(m, "hello")
	m, cmd := updateCmd(t, m, keyEnter)
	m = update(t, m, findExchange(t, collect(cmd)))
	if err := store.SetMetadata(ctx, storage.KeyThreadID, "T1"); err != nil {
		t.Fatal(err)
	}

	m, cmd = updateCmd(t, m, keyCtrlN)
	if cmd == nil {
		t.Fatal("ctrl+n should start a reset")
	}
	m = update(t, m, cmd())

	if len(m.Entries()) != 0 {
		t.Errorf("transcript not cleared: %+v", m.Entries())
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("store still has %d messages", n)
	}
	if _, found, _ := store.GetMetadata(ctx, storage.KeyThreadID); found {
		t.Error("thread id should be cleared")
	}
	if !strings.Contains(m.View(), "No messages yet") {
		t.Error("cleared view should show the placeholder")
	}
}

func TestNewChat_BlockedWhileAwaiting(t *testing.T) {
	m, _ := newTestModel(t, &stubDispatcher{block: true})

	m = typeText(m, "hello")
	m, _ = updateCmd(t, m, keyEnter)
	m, cmd := updateCmd(t, m, keyCtrlN)

	if cmd != nil {
		t.Error("ctrl+n should not reset while awaiting")
	}
	if m.Notice() == "" {
		t.Error("a blocked reset should explain itself")
	}
	m.cancel.abort()
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, &stubDispatcher{block: true})

	m = typeText(m, "hello")
	m, submit := updateCmd(t, m, keyEnter)
	_, cmd := updateCmd(t, m, keyCtrlC)

	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should return tea.Quit")
	}

	// Quitting cancels the in-flight request
	done := findExchange(t, collect(submit))
	if !errors.Is(done.Exchange.Err, context.Canceled) {
		t.Errorf("in-flight request not cancelled: %v", done.Exchange.Err)
	}
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func TestConfigReloaded(t *testing.T) {
	m, _ := newTestModel(t, &stubDispatcher{})

	cfg := config.Default()
	cfg.Chat.DefaultMode = string(model.ModeAssistant)
	cfg.UI.Hyperlinks = true

	m = update(t, m, ConfigReloadedMsg{Config: cfg})

	if m.sess.Mode() != model.ModeAssistant {
		t.Errorf("Mode() = %v, want assistant", m.sess.Mode())
	}
	if !m.hyperlinks {
		t.Error("hyperlink setting not applied")
	}
	if !strings.Contains(m.Notice(), "reloaded") {
		t.Errorf("Notice() = %q", m.Notice())
	}
}

func TestConfigReloaded_KeepsToggledMode(t *testing.T) {
	store, err := storage.Open(context.Background(), storage.MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	sess := session.New(store, &stubDispatcher{}, session.Options{Mode: model.ModeChat})
	m := New(sess, styles.NewTheme(), Options{DefaultMode: model.ModeChat})
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = update(t, m, keyTab)

	// Only an unrelated setting changed
	cfg := config.Default()
	cfg.UI.Hyperlinks = false
	m = update(t, m, ConfigReloadedMsg{Config: cfg})

	if sess.Mode() != model.ModeAssistant {
		t.Errorf("reload without a mode change reset the toggled mode to %v", sess.Mode())
	}
}

func TestConfigReloaded_Error(t *testing.T) {
	m, _ := newTestModel(t, &stubDispatcher{})

	m = update(t, m, ConfigReloadedMsg{Err: errors.New("bad toml")})
	if m.sess.Mode() != model.ModeChat {
		t.Error("a failed reload must not change the mode")
	}
	if !strings.Contains(m.Notice(), "failed") {
		t.Errorf("Notice() = %q", m.Notice())
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

func TestView_FitsTerminal(t *testing.T) {
	sizes := []tea.WindowSizeMsg{{Width: 100, Height: 30}, {Width: 40, Height: 12}, {Width: 200, Height: 60}}
	for _, size := range sizes {
		m, _ := newTestModel(t, &stubDispatcher{})
		m = update(t, m, size)

		lines := strings.Split(m.View(), "\n")
		if len(lines) > size.Height {
			t.Errorf("%dx%d: view has %d lines", size.Width, size.Height, len(lines))
		}
	}
}

func TestHomeEnd_EditInputLine(t *testing.T) {
	m, _ := newTestModel(t, &stubDispatcher{})
	m = typeText(m, "hello")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyHome})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("X")})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnd})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("!")})

	if got := m.input.Value(); got != "Xhello!" {
		t.Errorf("input = %q, want %q", got, "Xhello!")
	}
}

func TestCtrlHomeEnd_ScrollTranscript(t *testing.T) {
	m, _ := newTestModel(t, &stubDispatcher{})

	entries := make([]model.Entry, 0, 40)
	for i := 0; i < 40; i++ {
		entries = append(entries, model.UserEntry("line"))
	}
	m = update(t, m, HistoryLoadedMsg{Entries: entries})
	if !m.viewport.AtBottom() {
		t.Fatal("history should scroll to the newest entry")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlHome})
	if !m.viewport.AtTop() {
		t.Error("ctrl+home should jump to the top")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlEnd})
	if !m.viewport.AtBottom() {
		t.Error("ctrl+end should jump to the bottom")
	}
}

func TestKeyMap_HelpCoversBindings(t *testing.T) {
	km := DefaultKeyMap()
	for _, group := range km.FullHelp() {
		for _, b := range group {
			if b.Help().Key == "" || b.Help().Desc == "" {
				t.Errorf("binding %v has no help", b.Keys())
			}
		}
	}
}
