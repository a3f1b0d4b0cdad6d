package chat

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iksnae/modular-chat/internal/store"
)

func newTestRegistry(t *testing.T) (*Registry, *Log, store.Store) {
	t.Helper()
	s := store.NewMemoryStore()
	keys := KeysFor("test")
	log := NewLog(s, keys)
	reg := NewRegistry(s, log, keys, "New chat")

	n := 0
	reg.SetIDGenerator(func() string {
		n++
		return fmt.Sprintf("chat_%d", n)
	})
	return reg, log, s
}

func TestKeysFor(t *testing.T) {
	want := Keys{
		History:    "modular-ai-chat",
		ChatList:   "modular-ai-chat-list",
		ActiveChat: "modular-ai-active-chat",
	}
	if diff := cmp.Diff(want, KeysFor("modular-ai")); diff != "" {
		t.Errorf("KeysFor() mismatch (-want +got):\n%s", diff)
	}
}

// Test that an empty store gets exactly one default session which becomes active
func TestEnsureActiveSession_EmptyStore(t *testing.T) {
	ctx := context.Background()
	reg, _, _ := newTestRegistry(t)

	id, err := reg.EnsureActiveSession(ctx)
	require.NoError(t, err)

	sessions, err := reg.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Session{{ID: id, Title: "New chat"}}, sessions)

	active, err := reg.ActiveID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, active)
}

// Test that a valid state is left untouched
func TestEnsureActiveSession_Idempotent(t *testing.T) {
	ctx := context.Background()
	reg, _, s := newTestRegistry(t)

	first, err := reg.EnsureActiveSession(ctx)
	require.NoError(t, err)
	_, err = reg.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, reg.SetActive(ctx, first))

	before, _, err := s.Get(ctx, reg.keys.ChatList)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		id, err := reg.EnsureActiveSession(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, id)
	}

	after, _, err := s.Get(ctx, reg.keys.ChatList)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// Test that a stale active id falls back to the first session and is persisted
func TestEnsureActiveSession_StaleActive(t *testing.T) {
	ctx := context.Background()
	reg, _, s := newTestRegistry(t)

	_, err := reg.CreateSession(ctx)
	require.NoError(t, err)
	_, err = reg.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, reg.keys.ActiveChat, "chat_gone"))

	active, err := reg.ActiveID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "chat_1", active)

	stored, _, _ := s.Get(ctx, reg.keys.ActiveChat)
	assert.Equal(t, "chat_gone", stored, "ActiveID must not write")

	id, err := reg.EnsureActiveSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "chat_1", id)
	stored, _, _ = s.Get(ctx, reg.keys.ActiveChat)
	assert.Equal(t, "chat_1", stored)
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()
	reg, _, _ := newTestRegistry(t)

	a, err := reg.CreateSession(ctx)
	require.NoError(t, err)
	b, err := reg.CreateSession(ctx)
	require.NoError(t, err)

	sessions, err := reg.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Session{{ID: a, Title: "New chat"}, {ID: b, Title: "New chat"}}, sessions)

	active, err := reg.ActiveID(ctx)
	require.NoError(t, err)
	assert.Equal(t, b, active)
}

// Test that generated ids are unique and ordered even within one millisecond
func TestNewSessionID(t *testing.T) {
	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 1000; i++ {
		id := newSessionID()
		assert.True(t, strings.HasPrefix(id, "chat_"), id)
		assert.False(t, seen[id], "duplicate id %s", id)
		assert.Greater(t, id, prev)
		seen[id] = true
		prev = id
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain", "Groceries", "Groceries"},
		{"trimmed", "  Groceries \t", "Groceries"},
		{"blank", "   ", "New chat"},
		{"empty", "", "New chat"},
		{"truncated", strings.Repeat("x", 50), strings.Repeat("x", 40)},
		{"multibyte", strings.Repeat("ç", 45), strings.Repeat("ç", 40)},
		{"trim before truncate", "  " + strings.Repeat("y", 40) + "z", strings.Repeat("y", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.title, "New chat"))
		})
	}
}

func TestRenameSession(t *testing.T) {
	ctx := context.Background()
	reg, _, _ := newTestRegistry(t)
	id, err := reg.CreateSession(ctx)
	require.NoError(t, err)

	sess, err := reg.RenameSession(ctx, id, "  Trip planning  ")
	require.NoError(t, err)
	assert.Equal(t, Session{ID: id, Title: "Trip planning"}, sess)

	sess, err = reg.RenameSession(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, "New chat", sess.Title)

	_, err = reg.RenameSession(ctx, "chat_missing", "x")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// Test that deleting the active session drops its log and selects the first remaining session
func TestDeleteSession_Active(t *testing.T) {
	ctx := context.Background()
	reg, log, _ := newTestRegistry(t)

	a, _ := reg.CreateSession(ctx)
	b, _ := reg.CreateSession(ctx)
	c, _ := reg.CreateSession(ctx)
	require.NoError(t, reg.SetActive(ctx, b))
	_, err := log.Append(ctx, b, RoleUser, "hi", "")
	require.NoError(t, err)

	next, err := reg.DeleteSession(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, a, next)

	sessions, _ := reg.ListSessions(ctx)
	assert.Equal(t, []Session{{ID: a, Title: "New chat"}, {ID: c, Title: "New chat"}}, sessions)

	all, err := log.readAll(ctx)
	require.NoError(t, err)
	assert.NotContains(t, all, b)
}

func TestDeleteSession_Inactive(t *testing.T) {
	ctx := context.Background()
	reg, _, _ := newTestRegistry(t)

	a, _ := reg.CreateSession(ctx)
	b, _ := reg.CreateSession(ctx)

	next, err := reg.DeleteSession(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, b, next)

	active, _ := reg.ActiveID(ctx)
	assert.Equal(t, b, active)
}

func TestDeleteSession_LastFallsBackToSentinel(t *testing.T) {
	ctx := context.Background()
	reg, _, s := newTestRegistry(t)

	a, _ := reg.CreateSession(ctx)
	next, err := reg.DeleteSession(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, SentinelID, next)

	stored, _, _ := s.Get(ctx, reg.keys.ActiveChat)
	assert.Equal(t, SentinelID, stored)

	sessions, _ := reg.ListSessions(ctx)
	assert.Empty(t, sessions)
}

func TestSetActive_Unknown(t *testing.T) {
	ctx := context.Background()
	reg, _, _ := newTestRegistry(t)
	_, _ = reg.CreateSession(ctx)

	assert.ErrorIs(t, reg.SetActive(ctx, "chat_missing"), ErrSessionNotFound)
}

// Test that random create/rename/delete/switch sequences keep the active id resolvable
// and every title within bounds
func TestRegistry_RandomOperations(t *testing.T) {
	ctx := context.Background()
	reg, _, _ := newTestRegistry(t)
	rng := rand.New(rand.NewSource(42))

	titles := []string{"", "  ", "short", strings.Repeat("long ", 20), "  padded  "}

	for step := 0; step < 500; step++ {
		sessions, err := reg.ListSessions(ctx)
		require.NoError(t, err)

		switch op := rng.Intn(4); {
		case op == 0 || len(sessions) == 0:
			_, err = reg.CreateSession(ctx)
		case op == 1:
			s := sessions[rng.Intn(len(sessions))]
			_, err = reg.RenameSession(ctx, s.ID, titles[rng.Intn(len(titles))])
		case op == 2:
			s := sessions[rng.Intn(len(sessions))]
			_, err = reg.DeleteSession(ctx, s.ID)
		default:
			s := sessions[rng.Intn(len(sessions))]
			err = reg.SetActive(ctx, s.ID)
		}
		require.NoError(t, err)

		sessions, err = reg.ListSessions(ctx)
		require.NoError(t, err)
		active, err := reg.ActiveID(ctx)
		require.NoError(t, err)

		if len(sessions) == 0 {
			assert.Equal(t, SentinelID, active)
		} else {
			assert.GreaterOrEqual(t, indexOf(sessions, active), 0, "step %d: active %s not in registry", step, active)
		}
		for _, s := range sessions {
			assert.NotEmpty(t, s.Title)
			assert.LessOrEqual(t, utf8.RuneCountInString(s.Title), 40)
		}
	}
}

func TestAutoTitle(t *testing.T) {
	ctx := context.Background()
	reg, _, _ := newTestRegistry(t)
	id, _ := reg.CreateSession(ctx)

	long := "Please summarize the quarterly report for me"
	changed, err := reg.AutoTitle(ctx, id, long)
	require.NoError(t, err)
	assert.True(t, changed)

	sess, _, _ := reg.Session(ctx, id)
	assert.Equal(t, long[:32], sess.Title)

	// a non-default title is kept
	changed, err = reg.AutoTitle(ctx, id, "something else")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = reg.AutoTitle(ctx, "chat_missing", "x")
	require.NoError(t, err)
	assert.False(t, changed)
}

// Test that corrupt persisted state reads as empty
func TestRegistry_CorruptState(t *testing.T) {
	ctx := context.Background()
	reg, _, s := newTestRegistry(t)
	require.NoError(t, s.Set(ctx, reg.keys.ChatList, "{not json"))

	sessions, err := reg.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	id, err := reg.EnsureActiveSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "chat_1", id)
}

// Test that a chat list of the wrong shape is discarded whole
func TestRegistry_MistypedState(t *testing.T) {
	ctx := context.Background()
	reg, _, s := newTestRegistry(t)
	require.NoError(t, s.Set(ctx, reg.keys.ChatList, `[{"id":"a","title":"x"},{"id":7,"title":"y"}]`))
	require.NoError(t, s.Set(ctx, reg.keys.ActiveChat, "a"))

	sessions, err := reg.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	id, err := reg.EnsureActiveSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "chat_1", id)

	sessions, err = reg.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Session{{ID: "chat_1", Title: "New chat"}}, sessions)
}
