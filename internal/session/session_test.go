// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/newsdesk/internal/dispatch"
	"github.com/jeranaias/newsdesk/internal/model"
	"github.com/jeranaias/newsdesk/internal/storage"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// fakeDispatcher returns a canned reply or error and records calls.
type fakeDispatcher struct {
	mu      sync.Mutex
	reply   *model.Reply
	err     error
	calls   []model.Mode
	release chan struct{} // when non-nil, GetResponse blocks until closed
	entered chan struct{}
}

func (f *fakeDispatcher) GetResponse(ctx context.Context, message string, mode model.Mode) (*model.Reply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, mode)
	release, entered := f.release, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// brokenStore fails every write.
type brokenStore struct {
	*storage.Store
}

func (brokenStore) Append(context.Context, model.Role, string) (model.StoredMessage, error) {
	return model.StoredMessage{}, errors.New("disk full")
}

// slowClearStore holds ClearAll until release is closed.
type slowClearStore struct {
	*storage.Store
	entered chan struct{}
	release chan struct{}
}

func (s slowClearStore) ClearAll(ctx context.Context) error {
	s.entered <- struct{}{}
	<-s.release
	return s.Store.ClearAll(ctx)
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_ChatReply(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	disp := &fakeDispatcher{reply: &model.Reply{Text: "hi", Results: []model.ResultItem{}, Type: "chat", Mode: model.ModeChat}}
	sess := New(store, disp, Options{})

	ex, err := sess.Submit(ctx, "  hello  ")
	require.NoError(t, err)
	assert.False(t, ex.Failed())
	assert.Equal(t, model.ModeChat, ex.Mode)
	assert.Equal(t, model.UserEntry("hello"), ex.User)
	require.Len(t, ex.Reply, 1, "exactly one assistant bubble, zero cards")
	assert.Equal(t, model.AssistantEntry("hi"), ex.Reply[0])

	msgs, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1, "assistant replies are not stored by default")
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
}

func TestSubmit_CardsBeforeBubble(t *testing.T) {
	items := []model.ResultItem{
		{Title: "One", Description: "d1", Link: "https://news.example/1"},
		{Title: "Two", Description: "d2", Link: "https://news.example/2"},
	}
	disp := &fakeDispatcher{reply: &model.Reply{Text: "summary", Results: items}}
	sess := New(openStore(t), disp, Options{Mode: model.ModeAssistant})

	ex, err := sess.Submit(context.Background(), "news")
	require.NoError(t, err)

	entries := ex.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, model.EntryMessage, entries[0].Kind)
	assert.Equal(t, model.EntryResults, entries[1].Kind)
	assert.Equal(t, items, entries[1].Results)
	assert.Equal(t, model.AssistantEntry("summary"), entries[2])
	assert.Equal(t, []model.Mode{model.ModeAssistant}, disp.calls)
}

func TestSubmit_EmptyMessage(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	disp := &fakeDispatcher{}
	sess := New(store, disp, Options{})

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := sess.Submit(ctx, in)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, disp.callCount())
}

func TestSubmit_DispatchFailure(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	disp := &fakeDispatcher{err: &dispatch.UpstreamError{Endpoint: "/chat", Status: 500}}
	sess := New(store, disp, Options{PersistAssistantReplies: true})

	ex, err := sess.Submit(ctx, "hello")
	require.NoError(t, err)
	assert.True(t, ex.Failed())
	assert.ErrorIs(t, ex.Err, dispatch.ErrUpstream)
	assert.Nil(t, ex.Raw)
	require.Len(t, ex.Reply, 1)
	assert.Equal(t, model.ErrorEntry(GenericErrorText), ex.Reply[0])

	msgs, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1, "only the user message is stored")
	assert.Equal(t, model.RoleUser, msgs[0].Role)
}

func TestSubmit_StoreFailure(t *testing.T) {
	disp := &fakeDispatcher{reply: &model.Reply{Text: "never"}}
	sess := New(brokenStore{openStore(t)}, disp, Options{})

	ex, err := sess.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.True(t, ex.Failed())
	assert.Equal(t, []model.Entry{model.ErrorEntry(GenericErrorText)}, ex.Reply)
	assert.Zero(t, disp.callCount(), "nothing is sent when the message cannot be stored")
}

func TestSubmit_PersistAssistantReplies(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	disp := &fakeDispatcher{reply: &model.Reply{Text: "answer"}}
	sess := New(store, disp, Options{PersistAssistantReplies: true})

	_, err := sess.Submit(ctx, "question")
	require.NoError(t, err)

	history, err := sess.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Entry{
		model.UserEntry("question"),
		model.AssistantEntry("answer"),
	}, history)

	sess.SetPersistAssistantReplies(false)
	_, err = sess.Submit(ctx, "again")
	require.NoError(t, err)
	n, err := sess.MessageCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSubmit_BusyGuard(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	disp := &fakeDispatcher{
		reply:   &model.Reply{Text: "late"},
		release: make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	sess := New(store, disp, Options{})

	done := make(chan Exchange)
	go func() {
		ex, err := sess.Submit(ctx, "first")
		assert.NoError(t, err)
		done <- ex
	}()
	<-disp.entered

	assert.True(t, sess.Busy())
	_, err := sess.Submit(ctx, "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, sess.NewChat(ctx), ErrBusy)

	close(disp.release)
	select {
	case ex := <-done:
		assert.False(t, ex.Failed())
	case <-time.After(5 * time.Second):
		t.Fatal("first submit did not finish")
	}
	assert.False(t, sess.Busy())

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the rejected submit stores nothing")
}

func TestSubmit_Cancelled(t *testing.T) {
	disp := &fakeDispatcher{release: make(chan struct{}), entered: make(chan struct{}, 1)}
	sess := New(openStore(t), disp, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-disp.entered
		cancel()
	}()

	ex, err := sess.Submit(ctx, "slow")
	require.NoError(t, err)
	assert.True(t, ex.Failed())
	assert.ErrorIs(t, ex.Err, context.Canceled)
	assert.False(t, sess.Busy())

	n, err := sess.MessageCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the user message survives a cancelled reply")
}

func TestSubmit_AlreadyCancelledStillStoresMessage(t *testing.T) {
	store := openStore(t)
	disp := &fakeDispatcher{reply: &model.Reply{Text: "never"}, release: make(chan struct{})}
	sess := New(store, disp, Options{PersistAssistantReplies: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex, err := sess.Submit(ctx, "hello")
	require.NoError(t, err)
	assert.True(t, ex.Failed())
	assert.ErrorIs(t, ex.Err, context.Canceled)
	assert.Equal(t, 1, disp.callCount(), "the failure comes from the send, not the store")

	msgs, err := store.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
}

// =============================================================================
// MODE / HISTORY / RESET
// =============================================================================

func TestMode(t *testing.T) {
	sess := New(openStore(t), &fakeDispatcher{}, Options{Mode: "bogus"})
	assert.Equal(t, model.ModeChat, sess.Mode())

	assert.Equal(t, model.ModeAssistant, sess.ToggleMode())
	assert.Equal(t, model.ModeChat, sess.ToggleMode())

	require.NoError(t, sess.SetMode(model.ModeAssistant))
	assert.Equal(t, model.ModeAssistant, sess.Mode())
	assert.Error(t, sess.SetMode("news"))
	assert.Equal(t, model.ModeAssistant, sess.Mode())
}

func TestHistory_ReplaysInOrder(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	for _, m := range []struct {
		role model.Role
		text string
	}{
		{model.RoleUser, "q1"},
		{model.RoleAssistant, "a1"},
		{model.RoleUser, "q2"},
	} {
		_, err := store.Append(ctx, m.role, m.text)
		require.NoError(t, err)
	}

	history, err := New(store, &fakeDispatcher{}, Options{}).History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Entry{
		model.UserEntry("q1"),
		model.AssistantEntry("a1"),
		model.UserEntry("q2"),
	}, history)
}

func TestHistory_Empty(t *testing.T) {
	history, err := New(openStore(t), &fakeDispatcher{}, Options{}).History(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestNewChat_ClearsMessagesAndThread(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	sess := New(store, &fakeDispatcher{reply: &model.Reply{Text: "ok"}}, Options{})

	_, err := sess.Submit(ctx, "hello")
	require.NoError(t, err)
	require.NoError(t, store.SetMetadata(ctx, storage.KeyThreadID, "T1"))

	require.NoError(t, sess.NewChat(ctx))

	history, err := sess.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
	_, found, err := store.GetMetadata(ctx, storage.KeyThreadID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewChat_BlocksSubmitWhileClearing(t *testing.T) {
	ctx := context.Background()
	store := slowClearStore{
		Store:   openStore(t),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	disp := &fakeDispatcher{reply: &model.Reply{Text: "ok"}}
	sess := New(store, disp, Options{})

	done := make(chan error, 1)
	go func() { done <- sess.NewChat(ctx) }()
	<-store.entered

	assert.True(t, sess.Busy())
	_, err := sess.Submit(ctx, "during clear")
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, sess.NewChat(ctx), ErrBusy)

	close(store.release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("NewChat did not finish")
	}
	assert.False(t, sess.Busy())
	assert.Zero(t, disp.callCount())

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// =============================================================================
// END TO END WITH THE REAL DISPATCHER
// =============================================================================

func TestSubmit_Backend(t *testing.T) {
	ctx := context.Background()

	t.Run("non-2xx yields one generic error bubble", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail":"search quota exceeded"}`, http.StatusBadGateway)
		}))
		defer server.Close()

		store := openStore(t)
		sess := New(store, dispatch.New(server.URL, store), Options{Mode: model.ModeAssistant, PersistAssistantReplies: true})

		ex, err := sess.Submit(ctx, "headlines")
		require.NoError(t, err)
		assert.Equal(t, []model.Entry{model.ErrorEntry(GenericErrorText)}, ex.Reply)
		assert.NotContains(t, ex.Reply[0].Text, "quota", "details stay out of the transcript")

		msgs, err := store.ReadAll(ctx)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, model.RoleUser, msgs[0].Role)
	})

	t.Run("assistant thread id survives later replies", func(t *testing.T) {
		var n int
		var mu sync.Mutex
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			n++
			id := "T1"
			if n > 1 {
				id = "T2"
			}
			mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"results":[],"summary":{"reply":"ok","thread_id":"` + id + `"},"type":"assistant"}`))
		}))
		defer server.Close()

		store := openStore(t)
		sess := New(store, dispatch.New(server.URL, store), Options{Mode: model.ModeAssistant})

		for _, q := range []string{"one", "two"} {
			ex, err := sess.Submit(ctx, q)
			require.NoError(t, err)
			require.False(t, ex.Failed(), "exchange failed: %v", ex.Err)
		}

		threadID, found, err := store.GetMetadata(ctx, storage.KeyThreadID)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "T1", threadID)
	})
}
