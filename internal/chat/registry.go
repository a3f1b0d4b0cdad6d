package chat

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/iksnae/modular-chat/internal/store"
)

// SentinelID is the active id used while no session exists.
const SentinelID = "default_user"

const (
	maxTitleRunes     = 40
	maxAutoTitleRunes = 32
)

// ErrSessionNotFound is returned for ids absent from the registry.
var ErrSessionNotFound = errors.New("session not found")

// Keys names the store keys a chat client persists under.
type Keys struct {
	History    string
	ChatList   string
	ActiveChat string
}

// KeysFor derives the store keys for namespace.
func KeysFor(namespace string) Keys {
	return Keys{
		History:    namespace + "-chat",
		ChatList:   namespace + "-chat-list",
		ActiveChat: namespace + "-active-chat",
	}
}

// Session is an entry of the chat list.
type Session struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Registry maintains the ordered session list and the active session id.
type Registry struct {
	store        store.Store
	log          *Log
	keys         Keys
	defaultTitle string
	newID        func() string
}

// NewRegistry creates a Registry. Deleting a session also removes its
// history from log.
func NewRegistry(s store.Store, log *Log, keys Keys, defaultTitle string) *Registry {
	return &Registry{
		store:        s,
		log:          log,
		keys:         keys,
		defaultTitle: defaultTitle,
		newID:        newSessionID,
	}
}

// SetIDGenerator replaces the session id source.
func (r *Registry) SetIDGenerator(gen func() string) {
	r.newID = gen
}

// DefaultTitle returns the title given to new sessions.
func (r *Registry) DefaultTitle() string {
	return r.defaultTitle
}

func newSessionID() string {
	return "chat_" + strings.ToLower(ulid.Make().String())
}

// ListSessions returns the sessions in creation order.
func (r *Registry) ListSessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := store.ReadJSON(ctx, r.store, r.keys.ChatList, &sessions); err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []Session{}
	}
	return sessions, nil
}

func (r *Registry) saveSessions(ctx context.Context, sessions []Session) error {
	return store.WriteJSON(ctx, r.store, r.keys.ChatList, sessions)
}

func (r *Registry) storedActive(ctx context.Context) (string, error) {
	id, _, err := r.store.Get(ctx, r.keys.ActiveChat)
	return id, err
}

func (r *Registry) writeActive(ctx context.Context, id string) error {
	return r.store.Set(ctx, r.keys.ActiveChat, id)
}

// resolveActive picks the active id for sessions given the stored value.
func resolveActive(sessions []Session, stored string) string {
	if len(sessions) == 0 {
		return SentinelID
	}
	if indexOf(sessions, stored) >= 0 {
		return stored
	}
	return sessions[0].ID
}

func indexOf(sessions []Session, id string) int {
	return slices.IndexFunc(sessions, func(s Session) bool { return s.ID == id })
}

// ActiveID returns the active session id without writing anything: the
// stored id when it names a session, else the first session, else
// SentinelID.
func (r *Registry) ActiveID(ctx context.Context) (string, error) {
	sessions, err := r.ListSessions(ctx)
	if err != nil {
		return "", err
	}
	stored, err := r.storedActive(ctx)
	if err != nil {
		return "", err
	}
	return resolveActive(sessions, stored), nil
}

// EnsureActiveSession guarantees that a session exists and is active. An
// empty registry gets one new session; otherwise a stale active id is
// replaced by the first session. Nothing is written when state is valid.
func (r *Registry) EnsureActiveSession(ctx context.Context) (string, error) {
	sessions, err := r.ListSessions(ctx)
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return r.CreateSession(ctx)
	}

	stored, err := r.storedActive(ctx)
	if err != nil {
		return "", err
	}
	active := resolveActive(sessions, stored)
	if active != stored {
		if err := r.writeActive(ctx, active); err != nil {
			return "", err
		}
	}
	return active, nil
}

// CreateSession appends a session with the default title and makes it
// active.
func (r *Registry) CreateSession(ctx context.Context) (string, error) {
	sessions, err := r.ListSessions(ctx)
	if err != nil {
		return "", err
	}

	id := r.newID()
	sessions = append(sessions, Session{ID: id, Title: r.defaultTitle})
	if err := r.saveSessions(ctx, sessions); err != nil {
		return "", err
	}
	if err := r.writeActive(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// SetActive marks id as the active session.
func (r *Registry) SetActive(ctx context.Context, id string) error {
	sessions, err := r.ListSessions(ctx)
	if err != nil {
		return err
	}
	if indexOf(sessions, id) < 0 {
		return ErrSessionNotFound
	}
	return r.writeActive(ctx, id)
}

// Session looks up id.
func (r *Registry) Session(ctx context.Context, id string) (Session, bool, error) {
	sessions, err := r.ListSessions(ctx)
	if err != nil {
		return Session{}, false, err
	}
	if i := indexOf(sessions, id); i >= 0 {
		return sessions[i], true, nil
	}
	return Session{}, false, nil
}

// NormalizeTitle trims title and truncates it to 40 characters. A blank
// title becomes defaultTitle.
func NormalizeTitle(title, defaultTitle string) string {
	title = truncateRunes(strings.TrimSpace(title), maxTitleRunes)
	if title == "" {
		return defaultTitle
	}
	return title
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// RenameSession sets the normalized title of id and returns the session.
func (r *Registry) RenameSession(ctx context.Context, id, title string) (Session, error) {
	sessions, err := r.ListSessions(ctx)
	if err != nil {
		return Session{}, err
	}
	i := indexOf(sessions, id)
	if i < 0 {
		return Session{}, ErrSessionNotFound
	}

	sessions[i].Title = NormalizeTitle(title, r.defaultTitle)
	if err := r.saveSessions(ctx, sessions); err != nil {
		return Session{}, err
	}
	return sessions[i], nil
}

// DeleteSession removes id and its history. When id was active, the first
// remaining session becomes active, or SentinelID if none is left. Unknown
// ids are not an error; their history, if any, is still removed. The
// resulting active id is returned.
func (r *Registry) DeleteSession(ctx context.Context, id string) (string, error) {
	sessions, err := r.ListSessions(ctx)
	if err != nil {
		return "", err
	}
	stored, err := r.storedActive(ctx)
	if err != nil {
		return "", err
	}

	if i := indexOf(sessions, id); i >= 0 {
		sessions = slices.Delete(sessions, i, i+1)
		if err := r.saveSessions(ctx, sessions); err != nil {
			return "", err
		}
	}
	if err := r.log.Remove(ctx, id); err != nil {
		return "", err
	}

	if stored != id {
		return resolveActive(sessions, stored), nil
	}
	next := resolveActive(sessions, "")
	if err := r.writeActive(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}

// AutoTitle names id after the first 32 characters of message when its
// title is still the default or empty. It reports whether the title changed.
func (r *Registry) AutoTitle(ctx context.Context, id, message string) (bool, error) {
	sessions, err := r.ListSessions(ctx)
	if err != nil {
		return false, err
	}
	i := indexOf(sessions, id)
	if i < 0 {
		return false, nil
	}
	if sessions[i].Title != "" && sessions[i].Title != r.defaultTitle {
		return false, nil
	}

	title := truncateRunes(message, maxAutoTitleRunes)
	if title == "" || title == sessions[i].Title {
		return false, nil
	}
	sessions[i].Title = title
	if err := r.saveSessions(ctx, sessions); err != nil {
		return false, err
	}
	return true, nil
}
