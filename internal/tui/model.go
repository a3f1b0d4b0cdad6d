// Package tui is the interactive terminal chat client.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/iksnae/modular-chat/internal"
	"github.com/iksnae/modular-chat/internal/chat"
	"github.com/iksnae/modular-chat/internal/export"
	"github.com/iksnae/modular-chat/internal/gateway"
)

// Layout constants
const (
	sidebarWidth = 30
	docsHeight   = 6
	minMainWidth = 20
	minViewport  = 3
)

type mode int

const (
	modeChat mode = iota
	modeRename
	modeDocs
)

// Options configures the TUI.
type Options struct {
	AutoScroll bool
	// ExportDir receives transcripts exported with ^e.
	ExportDir string
}

type sendDoneMsg struct {
	pending *chat.PendingSend
	reply   *gateway.ChatReply
	err     error
}

type memoryMsg struct {
	sessionID string
	memories  []string
	err      error
}

type docsMsg struct {
	outcome *chat.DocumentsOutcome
	err     error
}

// Model is the Bubble Tea model of the chat client. Every state change goes
// through the controller and the model re-reads its view afterwards.
type Model struct {
	ctx    context.Context
	ctrl   *chat.Controller
	labels chat.Labels
	keys   keyMap
	help   help.Model

	view *chat.View
	// error markers shown for the displayed session, never persisted
	transient    []chat.Message
	transientFor string

	memories     []string
	memoryLoaded bool
	status       string
	banner       string
	docStatus    string

	input    textinput.Model
	rename   textinput.Model
	docs     textarea.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer

	mode       mode
	sending    bool
	docsBusy   bool
	autoScroll bool
	exportDir  string
	width      int
	height     int
}

// New starts the controller and builds the initial model.
func New(ctx context.Context, ctrl *chat.Controller, opts Options) (Model, error) {
	view, err := ctrl.Start(ctx)
	if err != nil {
		return Model{}, err
	}

	labels := ctrl.Labels()

	in := textinput.New()
	in.Placeholder = "Message..."
	in.CharLimit = 8000
	in.Focus()

	rn := textinput.New()
	rn.CharLimit = 80

	ta := textarea.New()
	ta.Placeholder = "One document per line"
	ta.ShowLineNumbers = false
	ta.SetHeight(docsHeight - 2)

	m := Model{
		ctx:        ctx,
		ctrl:       ctrl,
		labels:     labels,
		keys:       defaultKeyMap(),
		help:       help.New(),
		view:       view,
		status:     labels.Connected,
		input:      in,
		rename:     rn,
		docs:       ta,
		viewport:   viewport.New(80, 20),
		autoScroll: opts.AutoScroll,
		exportDir:  opts.ExportDir,
		width:      120,
		height:     30,
	}
	m.transientFor = view.ActiveID
	m.resize()
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case sendDoneMsg:
		m.finishSend(msg)
		return m, nil

	case memoryMsg:
		// the user switched chats while the load was in flight
		if msg.sessionID != m.view.ActiveID {
			return m, nil
		}
		if msg.err != nil {
			m.banner = msg.err.Error()
			m.memories = nil
			m.memoryLoaded = false
			return m, nil
		}
		m.memories = msg.memories
		m.memoryLoaded = true
		return m, nil

	case docsMsg:
		m.docsBusy = false
		if msg.outcome != nil {
			m.docStatus = msg.outcome.Status
		}
		if msg.err != nil {
			m.banner = msg.err.Error()
			return m, nil
		}
		if msg.outcome != nil && msg.outcome.Sent {
			m.docs.Reset()
			m.docs.Blur()
			m.mode = modeChat
			cmd := m.input.Focus()
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		switch m.mode {
		case modeRename:
			return m.updateRename(msg)
		case modeDocs:
			return m.updateDocs(msg)
		default:
			return m.updateChat(msg)
		}
	}
	return m, nil
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		return m.beginSend()

	case key.Matches(msg, m.keys.NewChat):
		m.apply(m.ctrl.NewChat(m.ctx))

	case key.Matches(msg, m.keys.DeleteChat):
		m.apply(m.ctrl.DeleteActive(m.ctx))

	case key.Matches(msg, m.keys.Clear):
		m.apply(m.ctrl.ClearActive(m.ctx))

	case key.Matches(msg, m.keys.PrevChat):
		m.apply(m.ctrl.SwitchRelative(m.ctx, -1))

	case key.Matches(msg, m.keys.NextChat):
		m.apply(m.ctrl.SwitchRelative(m.ctx, 1))

	case key.Matches(msg, m.keys.Rename):
		m.mode = modeRename
		m.input.Blur()
		m.rename.SetValue(m.view.ActiveTitle())
		m.rename.CursorEnd()
		cmd := m.rename.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Documents):
		m.mode = modeDocs
		m.input.Blur()
		m.resize()
		cmd := m.docs.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Export):
		m.exportActive()

	case key.Matches(msg, m.keys.Memory):
		m.banner = ""
		m.memories = nil
		m.memoryLoaded = false
		return m, m.memoryCmd()

	case key.Matches(msg, m.keys.Steps):
		m.ctrl.SetShowSteps(!m.ctrl.ShowSteps())

	case key.Matches(msg, m.keys.AutoScroll):
		m.autoScroll = !m.autoScroll
		m.syncViewport()

	case key.Matches(msg, m.keys.QuickHello):
		m.fillInput(m.labels.QuickHello)

	case key.Matches(msg, m.keys.QuickRAG):
		m.fillInput(m.labels.QuickRAG)

	case key.Matches(msg, m.keys.QuickTool):
		m.fillInput(m.labels.QuickTool)

	case msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.rename.Blur()
		m.mode = modeChat
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Send):
		m.apply(m.ctrl.Rename(m.ctx, "", m.rename.Value()))
		m.rename.Blur()
		m.mode = modeChat
		cmd := m.input.Focus()
		return m, cmd
	}

	var cmd tea.Cmd
	m.rename, cmd = m.rename.Update(msg)
	return m, cmd
}

func (m Model) updateDocs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.docs.Blur()
		m.mode = modeChat
		m.resize()
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Submit):
		if m.docsBusy {
			return m, nil
		}
		m.banner = ""
		if len(chat.ParseDocuments(m.docs.Value())) > 0 {
			m.docStatus = m.labels.SendingDocuments
		}
		m.docsBusy = true
		return m, m.docsCmd(m.docs.Value())
	}

	var cmd tea.Cmd
	m.docs, cmd = m.docs.Update(msg)
	return m, cmd
}

// beginSend records the user message and starts the request. Only one
// send is in flight at a time.
func (m Model) beginSend() (tea.Model, tea.Cmd) {
	if m.sending {
		m.status = m.labels.Waiting
		return m, nil
	}

	pending, err := m.ctrl.BeginSend(m.ctx, m.input.Value())
	if errors.Is(err, chat.ErrEmptyInput) {
		return m, nil
	}
	if err != nil {
		m.banner = err.Error()
		return m, nil
	}

	m.input.Reset()
	m.banner = ""
	m.sending = true
	m.refresh()
	return m, m.sendCmd(pending)
}

func (m *Model) finishSend(msg sendDoneMsg) {
	m.sending = false
	out, err := m.ctrl.CompleteSend(m.ctx, msg.pending, msg.reply, msg.err)
	if err != nil {
		internal.LogError("Failed to store reply for %s: %v", msg.pending.SessionID, err)
		m.banner = err.Error()
		return
	}
	m.refresh()

	if out.Err != nil {
		m.banner = out.Err.Error()
		if out.SessionID == m.transientFor {
			m.transient = append(m.transient, *out.ErrorMarker)
			m.syncViewport()
		}
		return
	}
	if out.Dropped {
		m.status = m.labels.DroppedNote
		return
	}
	if out.Rerouted {
		title := out.SessionID
		if i := indexOfSession(m.view.Sessions, out.SessionID); i >= 0 {
			title = m.view.Sessions[i].Title
		}
		m.status = fmt.Sprintf(m.labels.RerouteFormat, title)
		return
	}
	m.status = m.labels.Connected
}

func (m *Model) exportActive() {
	path, err := export.ExportSession(m.ctx, m.ctrl, "", m.exportDir, &export.TextExporter{})
	if err != nil {
		m.banner = err.Error()
		return
	}
	m.status = fmt.Sprintf(m.labels.ExportedFormat, path)
}

func (m *Model) fillInput(text string) {
	m.input.SetValue(text)
	m.input.CursorEnd()
}

// apply installs the view returned by a controller command
func (m *Model) apply(view *chat.View, err error) {
	if err != nil {
		internal.LogWarn("Command failed: %v", err)
		m.banner = err.Error()
		return
	}
	m.setView(view)
}

func (m *Model) refresh() {
	m.apply(m.ctrl.View(m.ctx))
}

func (m *Model) setView(view *chat.View) {
	m.view = view
	if view.ActiveID != m.transientFor {
		m.transient = nil
		m.transientFor = view.ActiveID
		m.memories = nil
		m.memoryLoaded = false
	}
	m.syncViewport()
}

func (m Model) sendCmd(p *chat.PendingSend) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		reply, err := ctrl.Request(ctx, p)
		return sendDoneMsg{pending: p, reply: reply, err: err}
	}
}

func (m Model) memoryCmd() tea.Cmd {
	ctx, ctrl, id := m.ctx, m.ctrl, m.view.ActiveID
	return func() tea.Msg {
		memories, err := ctrl.LoadMemory(ctx)
		return memoryMsg{sessionID: id, memories: memories, err: err}
	}
}

func (m Model) docsCmd(raw string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		outcome, err := ctrl.AddDocuments(ctx, raw)
		return docsMsg{outcome: outcome, err: err}
	}
}

func (m *Model) mainWidth() int {
	return max(m.width-sidebarWidth-1, minMainWidth)
}

// resize lays out the widgets for the current window size
func (m *Model) resize() {
	w := m.mainWidth()
	// title, status bar, input line and help
	reserved := 4
	if m.mode == modeDocs {
		reserved += docsHeight
	}

	m.viewport.Width = w
	m.viewport.Height = max(m.height-reserved, minViewport)
	m.input.Width = w - 4
	m.docs.SetWidth(w)
	m.help.Width = m.width

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(w-2),
	)
	if err != nil {
		internal.LogDebug("Markdown renderer unavailable: %v", err)
		r = nil
	}
	m.renderer = r
	m.syncViewport()
}

func (m *Model) syncViewport() {
	if m.view == nil {
		return
	}
	var b strings.Builder
	for _, msg := range m.view.Messages {
		b.WriteString(m.renderMessage(msg, false))
		b.WriteString("\n")
	}
	for _, msg := range m.transient {
		b.WriteString(m.renderMessage(msg, true))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	if m.autoScroll {
		m.viewport.GotoBottom()
	}
}

func indexOfSession(sessions []chat.Session, id string) int {
	for i, s := range sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}
