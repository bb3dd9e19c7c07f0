// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/newsdesk/internal/model"
)

// GenericErrorText is the only thing shown when an exchange fails. The
// detailed error goes to the log.
const GenericErrorText = "Error fetching response. Check the log for details."

var (
	// ErrEmptyMessage is returned for input that is empty after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrBusy is returned while an exchange is awaiting its reply.
	ErrBusy = errors.New("still waiting for the previous reply")
)

// persistTimeout bounds one local write. Writes are detached from the
// request context so cancelling a reply never drops the stored message.
const persistTimeout = 10 * time.Second

// Store is the part of the local store a session uses.
// *storage.Store satisfies it.
type Store interface {
	Append(ctx context.Context, role model.Role, content string) (model.StoredMessage, error)
	ReadAll(ctx context.Context) ([]model.StoredMessage, error)
	Count(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) error
}

// Dispatcher sends one message to the backend.
// *dispatch.Client satisfies it.
type Dispatcher interface {
	GetResponse(ctx context.Context, message string, mode model.Mode) (*model.Reply, error)
}

// Options configures a Session.
type Options struct {
	// Mode is the initial mode; an invalid or empty mode means chat.
	Mode model.Mode

	// PersistAssistantReplies also stores assistant replies.
	PersistAssistantReplies bool
}

// =============================================================================
// SESSION
// =============================================================================

// Session orchestrates one conversation. It is safe for concurrent use.
type Session struct {
	store      Store
	dispatcher Dispatcher

	mu             sync.Mutex
	mode           model.Mode
	persistReplies bool
	busy           bool
}

// New creates a session over an open store and a dispatcher.
func New(store Store, dispatcher Dispatcher, opts Options) *Session {
	mode := opts.Mode
	if !mode.Valid() {
		mode = model.ModeChat
	}
	return &Session{
		store:          store,
		dispatcher:     dispatcher,
		mode:           mode,
		persistReplies: opts.PersistAssistantReplies,
	}
}

// Mode returns the current mode.
func (s *Session) Mode() model.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the mode for the next exchange.
func (s *Session) SetMode(mode model.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid mode %q, must be one of: chat, assistant", mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	return nil
}

// ToggleMode flips between chat and assistant and returns the new mode.
func (s *Session) ToggleMode() model.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = s.mode.Next()
	return s.mode
}

// SetPersistAssistantReplies changes whether later replies are stored.
func (s *Session) SetPersistAssistantReplies(persist bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistReplies = persist
}

// Busy reports whether an exchange is awaiting its reply.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// =============================================================================
// HISTORY
// =============================================================================

// History replays the stored conversation as bubbles, oldest first.
func (s *Session) History(ctx context.Context) ([]model.Entry, error) {
	msgs, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	entries := make([]model.Entry, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, model.EntryFromStored(msg))
	}
	return entries, nil
}

// MessageCount returns the number of stored messages.
func (s *Session) MessageCount(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// NewChat discards the stored conversation and the assistant thread.
func (s *Session) NewChat(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	if err := s.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear conversation: %w", err)
	}
	log.Printf("CHAT_RESET | mode=%s", s.Mode())
	return nil
}

// =============================================================================
// EXCHANGE
// =============================================================================

// Exchange is the outcome of one submit.
type Exchange struct {
	// Mode the message was sent in.
	Mode model.Mode

	// User is the bubble for the submitted text.
	User model.Entry

	// Reply holds the cards then the assistant bubble, or one error bubble.
	Reply []model.Entry

	// Raw is the normalized backend reply; nil when the exchange failed.
	Raw *model.Reply

	// Err is the underlying failure. It is never rendered.
	Err error

	// Duration is the time spent awaiting the reply.
	Duration time.Duration
}

// Entries returns the user bubble followed by the reply entries.
func (e Exchange) Entries() []model.Entry {
	return append([]model.Entry{e.User}, e.Reply...)
}

// Failed reports whether the exchange ended in the error bubble.
func (e Exchange) Failed() bool {
	return e.Err != nil
}

// Submit sends text to the backend in the current mode.
//
// Empty input returns ErrEmptyMessage and a submit while another is in
// flight returns ErrBusy; nothing is stored in either case. Every other
// failure is reported inside the Exchange as a single error bubble.
func (s *Session) Submit(ctx context.Context, text string) (Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Exchange{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return Exchange{}, ErrBusy
	}
	s.busy = true
	mode := s.mode
	persistReplies := s.persistReplies
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	ex := Exchange{Mode: mode, User: model.UserEntry(text)}

	if _, err := s.persist(ctx, model.RoleUser, text); err != nil {
		return s.fail(ex, "persist_user", err), nil
	}

	start := time.Now()
	reply, err := s.dispatcher.GetResponse(ctx, text, mode)
	ex.Duration = time.Since(start)
	if err != nil {
		return s.fail(ex, "dispatch", err), nil
	}

	ex.Raw = reply
	ex.Reply = model.ReplyEntries(reply)

	if persistReplies {
		if _, err := s.persist(ctx, model.RoleAssistant, reply.Text); err != nil {
			// The reply is already in hand; only its replay is lost.
			log.Printf("REPLY_PERSIST_FAILED | mode=%s error=%v", mode, err)
		}
	}

	log.Printf("EXCHANGE_COMPLETE | mode=%s results=%d duration=%v", mode, len(reply.Results), ex.Duration)
	return ex, nil
}

// persist appends one row. Only ctx's values are kept; its cancellation
// belongs to the request.
func (s *Session) persist(ctx context.Context, role model.Role, content string) (model.StoredMessage, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	return s.store.Append(ctx, role, content)
}

// fail turns err into the generic error bubble and logs the detail.
func (s *Session) fail(ex Exchange, stage string, err error) Exchange {
	log.Printf("EXCHANGE_FAILED | mode=%s stage=%s error=%v", ex.Mode, stage, err)
	ex.Err = err
	ex.Reply = []model.Entry{model.ErrorEntry(GenericErrorText)}
	return ex
}
