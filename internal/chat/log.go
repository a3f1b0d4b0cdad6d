package chat

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/iksnae/modular-chat/internal"
	"github.com/iksnae/modular-chat/internal/store"
)

// Role identifies who wrote a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one timestamped entry of a chat history.
type Message struct {
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Meta      string `json:"meta,omitempty"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
}

// Time returns the message timestamp as a time.Time
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// Log stores the message histories of all sessions under a single key, as a
// map from session id to messages in append order.
type Log struct {
	store store.Store
	key   string
	now   func() time.Time
}

// NewLog creates a Log over s
func NewLog(s store.Store, keys Keys) *Log {
	return &Log{store: s, key: keys.History, now: time.Now}
}

// SetClock replaces the time source used to stamp appended messages.
func (l *Log) SetClock(now func() time.Time) {
	l.now = now
}

func (l *Log) readAll(ctx context.Context) (map[string][]Message, error) {
	all := make(map[string][]Message)
	if err := store.ReadJSON(ctx, l.store, l.key, &all); err != nil {
		return nil, err
	}
	if all == nil {
		// a stored JSON null decodes to a nil map
		all = make(map[string][]Message)
	}
	return all, nil
}

// Append adds a message stamped with the current time. Timestamps never go
// backwards within a session even if the clock does.
func (l *Log) Append(ctx context.Context, sessionID string, role Role, text, meta string) (Message, error) {
	all, err := l.readAll(ctx)
	if err != nil {
		return Message{}, err
	}

	msgs := all[sessionID]
	ts := l.now().UnixMilli()
	if n := len(msgs); n > 0 && ts < msgs[n-1].Timestamp {
		ts = msgs[n-1].Timestamp
	}

	msg := Message{Role: role, Text: text, Meta: meta, Timestamp: ts}
	all[sessionID] = append(msgs, msg)
	if err := store.WriteJSON(ctx, l.store, l.key, all); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Clear empties the history of sessionID, keeping its entry.
func (l *Log) Clear(ctx context.Context, sessionID string) error {
	all, err := l.readAll(ctx)
	if err != nil {
		return err
	}
	all[sessionID] = []Message{}
	return store.WriteJSON(ctx, l.store, l.key, all)
}

// Remove deletes the entry of sessionID entirely.
func (l *Log) Remove(ctx context.Context, sessionID string) error {
	all, err := l.readAll(ctx)
	if err != nil {
		return err
	}
	if _, ok := all[sessionID]; !ok {
		return nil
	}
	delete(all, sessionID)
	return store.WriteJSON(ctx, l.store, l.key, all)
}

// Load returns the history of sessionID, empty when there is none.
func (l *Log) Load(ctx context.Context, sessionID string) ([]Message, error) {
	all, err := l.readAll(ctx)
	if err != nil {
		return nil, err
	}
	msgs := all[sessionID]
	if msgs == nil {
		return []Message{}, nil
	}
	return msgs, nil
}

// ExportAsText renders the history of sessionID as newline-joined lines of
// the form "[<ISO-8601>] <role>: <text>". An empty history renders as "".
func (l *Log) ExportAsText(ctx context.Context, sessionID string) (string, error) {
	msgs, err := l.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return JoinLines(TranscriptLines(msgs)), nil
}

// Lines yields the transcript of sessionID. The history is read when
// iteration starts, so each range sees the current log. Read failures end
// the sequence early and are logged.
func (l *Log) Lines(ctx context.Context, sessionID string) iter.Seq[string] {
	return func(yield func(string) bool) {
		msgs, err := l.Load(ctx, sessionID)
		if err != nil {
			internal.LogWarn("Failed to read history of %s: %v", sessionID, err)
			return
		}
		for line := range TranscriptLines(msgs) {
			if !yield(line) {
				return
			}
		}
	}
}

// TranscriptLines yields one transcript line per message, in order. The
// sequence can be ranged over any number of times.
func TranscriptLines(msgs []Message) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, m := range msgs {
			if !yield(FormatLine(m)) {
				return
			}
		}
	}
}

// JoinLines joins a line sequence with newlines.
func JoinLines(lines iter.Seq[string]) string {
	var b strings.Builder
	first := true
	for line := range lines {
		if !first {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		first = false
	}
	return b.String()
}

// FormatLine renders a message as a transcript line.
func FormatLine(m Message) string {
	return fmt.Sprintf("[%s] %s: %s", FormatTimestamp(m.Timestamp), m.Role, m.Text)
}

// FormatTimestamp renders epoch milliseconds as UTC ISO-8601 with milliseconds.
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}
