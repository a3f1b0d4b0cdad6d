package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/iksnae/modular-chat/internal"
	"github.com/iksnae/modular-chat/internal/gateway"
	"github.com/iksnae/modular-chat/internal/store"
)

// ErrEmptyInput is returned when there is nothing to send. Callers ignore it.
var ErrEmptyInput = errors.New("empty input")

// Backend is the remote side of a conversation.
type Backend interface {
	SendMessage(ctx context.Context, userID, text string) (*gateway.ChatReply, error)
	FetchMemory(ctx context.Context, userID string) (*gateway.Memory, error)
	AddDocuments(ctx context.Context, docs []string) (*gateway.DocumentsResult, error)
}

// Options configures a Controller.
type Options struct {
	Namespace string
	Labels    Labels
	ShowSteps bool
}

// View is a snapshot of what the UI renders, read fresh from the store.
type View struct {
	Sessions []Session
	ActiveID string
	Messages []Message
}

// ActiveTitle returns the title of the active session, or "" when the
// active id names no session.
func (v *View) ActiveTitle() string {
	if i := indexOf(v.Sessions, v.ActiveID); i >= 0 {
		return v.Sessions[i].Title
	}
	return ""
}

// PendingSend is a user message awaiting its reply, tagged with the session
// it was sent from.
type PendingSend struct {
	SessionID string
	Text      string
	StartedAt time.Time
}

// SendOutcome describes how a send ended.
type SendOutcome struct {
	SessionID string
	// Reply is the persisted agent reply, nil on failure.
	Reply *Message
	// ErrorMarker is the agent message shown for a failed send. It is never
	// persisted.
	ErrorMarker *Message
	Err         error
	Retitled    bool
	// Rerouted reports that the active session changed while the request was
	// in flight; the reply was still stored under SessionID.
	Rerouted bool
	// Dropped reports that SessionID was deleted while the request was in
	// flight; the reply was discarded.
	Dropped bool
}

// DocumentsOutcome describes a document submission.
type DocumentsOutcome struct {
	Status string
	Count  int
	// Sent is false when there was nothing to submit.
	Sent bool
}

// Transcript is a session with its full history.
type Transcript struct {
	Session  Session
	Messages []Message
}

// Controller runs the chat commands on top of the registry, the message log
// and the backend.
type Controller struct {
	registry  *Registry
	log       *Log
	backend   Backend
	labels    Labels
	showSteps bool
	now       func() time.Time
}

// NewController creates a controller persisting to s.
func NewController(s store.Store, backend Backend, opts Options) *Controller {
	if opts.Namespace == "" {
		opts.Namespace = internal.DefaultNamespace
	}
	if opts.Labels.DefaultTitle == "" {
		opts.Labels, _ = LabelsFor(DefaultLocale)
	}
	keys := KeysFor(opts.Namespace)
	log := NewLog(s, keys)
	return &Controller{
		registry:  NewRegistry(s, log, keys, opts.Labels.DefaultTitle),
		log:       log,
		backend:   backend,
		labels:    opts.Labels,
		showSteps: opts.ShowSteps,
		now:       time.Now,
	}
}

// Registry returns the session registry.
func (c *Controller) Registry() *Registry { return c.registry }

// Log returns the message log.
func (c *Controller) Log() *Log { return c.log }

// Labels returns the locale strings in use.
func (c *Controller) Labels() Labels { return c.labels }

// ShowSteps reports whether replies are annotated with their step count.
func (c *Controller) ShowSteps() bool { return c.showSteps }

// SetShowSteps toggles step annotations for subsequent replies.
func (c *Controller) SetShowSteps(show bool) { c.showSteps = show }

// SetClock replaces the time source of the controller and its log.
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
	c.log.SetClock(now)
}

// View reads the current state.
func (c *Controller) View(ctx context.Context) (*View, error) {
	sessions, err := c.registry.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	active, err := c.registry.ActiveID(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := c.log.Load(ctx, active)
	if err != nil {
		return nil, err
	}
	return &View{Sessions: sessions, ActiveID: active, Messages: msgs}, nil
}

// Start makes sure a session is active and returns the initial view.
func (c *Controller) Start(ctx context.Context) (*View, error) {
	if _, err := c.registry.EnsureActiveSession(ctx); err != nil {
		return nil, err
	}
	return c.View(ctx)
}

// NewChat creates a session and switches to it.
func (c *Controller) NewChat(ctx context.Context) (*View, error) {
	if _, err := c.registry.CreateSession(ctx); err != nil {
		return nil, err
	}
	return c.View(ctx)
}

// Switch makes id the active session.
func (c *Controller) Switch(ctx context.Context, id string) (*View, error) {
	if err := c.registry.SetActive(ctx, id); err != nil {
		return nil, err
	}
	return c.View(ctx)
}

// SwitchRelative moves the active session by delta positions in the list,
// wrapping around at either end.
func (c *Controller) SwitchRelative(ctx context.Context, delta int) (*View, error) {
	view, err := c.View(ctx)
	if err != nil {
		return nil, err
	}
	n := len(view.Sessions)
	if n == 0 {
		return view, nil
	}
	i := indexOf(view.Sessions, view.ActiveID)
	if i < 0 {
		i = 0
	}
	next := ((i+delta)%n + n) % n
	return c.Switch(ctx, view.Sessions[next].ID)
}

// Rename sets the title of id, or of the active session when id is empty.
func (c *Controller) Rename(ctx context.Context, id, title string) (*View, error) {
	if id == "" {
		var err error
		if id, err = c.registry.ActiveID(ctx); err != nil {
			return nil, err
		}
	}
	if _, err := c.registry.RenameSession(ctx, id, title); err != nil {
		return nil, err
	}
	return c.View(ctx)
}

// Delete removes id and its history.
func (c *Controller) Delete(ctx context.Context, id string) (*View, error) {
	if _, err := c.registry.DeleteSession(ctx, id); err != nil {
		return nil, err
	}
	return c.View(ctx)
}

// DeleteActive removes the active session and its history.
func (c *Controller) DeleteActive(ctx context.Context) (*View, error) {
	active, err := c.registry.ActiveID(ctx)
	if err != nil {
		return nil, err
	}
	return c.Delete(ctx, active)
}

// ClearActive empties the history of the active session.
func (c *Controller) ClearActive(ctx context.Context) (*View, error) {
	active, err := c.registry.ActiveID(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.log.Clear(ctx, active); err != nil {
		return nil, err
	}
	return c.View(ctx)
}

// Transcript returns id with its history, or the active session when id is
// empty. The sentinel id yields a transcript with an empty title.
func (c *Controller) Transcript(ctx context.Context, id string) (*Transcript, error) {
	if id == "" {
		var err error
		if id, err = c.registry.ActiveID(ctx); err != nil {
			return nil, err
		}
	}
	sess, ok, err := c.registry.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		if id != SentinelID {
			return nil, ErrSessionNotFound
		}
		sess = Session{ID: id}
	}
	msgs, err := c.log.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Transcript{Session: sess, Messages: msgs}, nil
}

// BeginSend records the user message in the active session. Blank input
// returns ErrEmptyInput and changes nothing.
func (c *Controller) BeginSend(ctx context.Context, text string) (*PendingSend, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	active, err := c.registry.ActiveID(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := c.log.Append(ctx, active, RoleUser, text, c.labels.UserMeta); err != nil {
		return nil, err
	}
	return &PendingSend{SessionID: active, Text: text, StartedAt: c.now()}, nil
}

// CompleteSend records the result of a pending send. A request failure is
// reported in the outcome, not as an error; the returned error is for store
// failures only.
func (c *Controller) CompleteSend(ctx context.Context, p *PendingSend, reply *gateway.ChatReply, sendErr error) (*SendOutcome, error) {
	out := &SendOutcome{SessionID: p.SessionID}

	active, err := c.registry.ActiveID(ctx)
	if err != nil {
		return nil, err
	}
	out.Rerouted = active != p.SessionID

	if sendErr == nil && reply == nil {
		sendErr = &internal.RequestFailedError{Op: gateway.OpChat, Message: "empty reply"}
	}
	if sendErr != nil {
		internal.LogWarn("Send in %s failed after %s: %v", p.SessionID, c.now().Sub(p.StartedAt), sendErr)
		out.Err = sendErr
		out.ErrorMarker = &Message{
			Role:      RoleAgent,
			Text:      c.labels.ErrorPrefix + sendErr.Error(),
			Timestamp: c.now().UnixMilli(),
		}
		return out, nil
	}

	if p.SessionID != SentinelID {
		_, ok, err := c.registry.Session(ctx, p.SessionID)
		if err != nil {
			return nil, err
		}
		if !ok {
			internal.LogWarn("Discarding reply for deleted session %s", p.SessionID)
			out.Dropped = true
			return out, nil
		}
	}

	meta := ""
	if c.showSteps {
		meta = fmt.Sprintf(c.labels.StepsFormat, reply.Steps)
	}
	msg, err := c.log.Append(ctx, p.SessionID, RoleAgent, reply.Reply, meta)
	if err != nil {
		return nil, err
	}
	out.Reply = &msg

	if out.Retitled, err = c.registry.AutoTitle(ctx, p.SessionID, p.Text); err != nil {
		return nil, err
	}
	return out, nil
}

// Request performs the network call of a pending send. It does not touch
// the store, so it may run off the UI goroutine.
func (c *Controller) Request(ctx context.Context, p *PendingSend) (*gateway.ChatReply, error) {
	return c.backend.SendMessage(ctx, p.SessionID, p.Text)
}

// Send posts text and waits for the reply.
func (c *Controller) Send(ctx context.Context, text string) (*SendOutcome, error) {
	p, err := c.BeginSend(ctx, text)
	if err != nil {
		return nil, err
	}
	reply, sendErr := c.Request(ctx, p)
	return c.CompleteSend(ctx, p, reply, sendErr)
}

// LoadMemory fetches the backend memories of the active session.
func (c *Controller) LoadMemory(ctx context.Context) ([]string, error) {
	active, err := c.registry.ActiveID(ctx)
	if err != nil {
		return nil, err
	}
	mem, err := c.backend.FetchMemory(ctx, active)
	if err != nil {
		return nil, err
	}
	return mem.Memories, nil
}

// ParseDocuments splits raw into one document per non-blank line.
func ParseDocuments(raw string) []string {
	docs := strings.Split(raw, "\n")
	for i := range docs {
		docs[i] = strings.TrimSpace(docs[i])
	}
	return slices.DeleteFunc(docs, func(d string) bool { return d == "" })
}

// AddDocuments submits the non-blank lines of raw for indexing. The
// outcome status is set in every case, including failure.
func (c *Controller) AddDocuments(ctx context.Context, raw string) (*DocumentsOutcome, error) {
	docs := ParseDocuments(raw)
	if len(docs) == 0 {
		return &DocumentsOutcome{Status: c.labels.NoDocuments}, nil
	}

	result, err := c.backend.AddDocuments(ctx, docs)
	if err != nil {
		return &DocumentsOutcome{Status: c.labels.IndexError, Sent: true}, err
	}
	return &DocumentsOutcome{
		Status: fmt.Sprintf(c.labels.IndexedFormat, result.Count),
		Count:  result.Count,
		Sent:   true,
	}, nil
}
