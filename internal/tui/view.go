package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iksnae/modular-chat/internal/chat"
)

func (m Model) View() string {
	pane := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderStatusBar(),
		m.renderInputArea(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), pane)
	return body + "\n" + m.help.ShortHelpView(m.keys.chatHelp())
}

func (m Model) renderHeader() string {
	title := m.view.ActiveTitle()
	if title == "" {
		title = m.view.ActiveID
	}
	return titleStyle.Render(truncate(title, m.mainWidth()-2))
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	inner := sidebarWidth - 3

	b.WriteString(sectionStyle.Render("Chats") + "\n")
	if len(m.view.Sessions) == 0 {
		b.WriteString(dimStyle.Render(m.labels.NoChats) + "\n")
	}
	for _, s := range m.view.Sessions {
		row := pad(truncate(s.Title, inner), inner)
		if s.ID == m.view.ActiveID {
			row = selectedStyle.Render(row)
		}
		b.WriteString(row + "\n")
	}

	b.WriteString("\n" + sectionStyle.Render("Memory") + "\n")
	switch {
	case m.memoryLoaded && len(m.memories) == 0:
		b.WriteString(dimStyle.Render(m.labels.NoMemories) + "\n")
	case m.memoryLoaded:
		for _, mem := range m.memories {
			b.WriteString(lipgloss.NewStyle().Width(inner).Render("• "+mem) + "\n")
		}
	default:
		b.WriteString(dimStyle.Render("^o to load") + "\n")
	}

	if m.docStatus != "" {
		b.WriteString("\n" + sectionStyle.Render("Documents") + "\n")
		b.WriteString(lipgloss.NewStyle().Width(inner).Render(m.docStatus) + "\n")
	}

	return sidebarStyle.Width(sidebarWidth).Height(max(m.height-1, 1)).Render(b.String())
}

func (m Model) renderStatusBar() string {
	if m.banner != "" {
		return bannerStyle.Width(m.mainWidth()).Render(truncate(m.banner, m.mainWidth()-2))
	}
	flags := []string{toggle("steps", m.ctrl.ShowSteps()), toggle("scroll", m.autoScroll)}
	status := m.status
	if m.sending {
		status = m.labels.Waiting
	}
	return statusBarStyle.Width(m.mainWidth()).Render(status + "  " + dimStyle.Render(strings.Join(flags, " ")))
}

func (m Model) renderInputArea() string {
	switch m.mode {
	case modeRename:
		return "Title: " + m.rename.View()
	case modeDocs:
		return m.docs.View() + "\n" + helpStyle.Render("^s: index  esc: cancel")
	default:
		return m.input.View()
	}
}

// renderMessage renders one message bubble; agent replies are markdown
func (m Model) renderMessage(msg chat.Message, marker bool) string {
	width := m.mainWidth() - 2
	meta := strings.TrimSpace(msg.Meta + " " + msg.Time().Local().Format("15:04:05"))

	var tag, body string
	switch {
	case marker:
		tag = agentRoleStyle.Render(" agent ")
		body = errorMarkerStyle.Width(width).Render(msg.Text)
	case msg.Role == chat.RoleUser:
		tag = userRoleStyle.Render(" user ")
		body = lipgloss.NewStyle().Width(width).Render(msg.Text)
	default:
		tag = agentRoleStyle.Render(" agent ")
		body = m.renderMarkdown(msg.Text, width)
	}
	return tag + " " + dimStyle.Render(meta) + "\n" + body + "\n"
}

func (m Model) renderMarkdown(text string, width int) string {
	if m.renderer != nil {
		if out, err := m.renderer.Render(text); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func toggle(name string, on bool) string {
	if on {
		return "[x] " + name
	}
	return "[ ] " + name
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if width <= 0 {
		return ""
	}
	if len(runes) <= width {
		return s
	}
	if width <= 2 {
		return string(runes[:width])
	}
	return string(runes[:width-2]) + ".."
}

func pad(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
