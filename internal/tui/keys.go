package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Send       key.Binding
	NewChat    key.Binding
	DeleteChat key.Binding
	Rename     key.Binding
	Clear      key.Binding
	Export     key.Binding
	Memory     key.Binding
	Documents  key.Binding
	Submit     key.Binding
	Cancel     key.Binding
	Steps      key.Binding
	AutoScroll key.Binding
	PrevChat   key.Binding
	NextChat   key.Binding
	QuickHello key.Binding
	QuickRAG   key.Binding
	QuickTool  key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NewChat:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("^n", "new")),
		DeleteChat: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("^x", "delete")),
		Rename:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("^r", "rename")),
		Clear:      key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("^l", "clear")),
		Export:     key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("^e", "export")),
		Memory:     key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("^o", "memory")),
		Documents:  key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("^u", "docs")),
		Submit:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("^s", "index")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Steps:      key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("^t", "steps")),
		AutoScroll: key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("^a", "autoscroll")),
		PrevChat:   key.NewBinding(key.WithKeys("alt+up"), key.WithHelp("alt+↑", "prev")),
		NextChat:   key.NewBinding(key.WithKeys("alt+down"), key.WithHelp("alt+↓", "next")),
		QuickHello: key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1-f3", "quick prompts")),
		QuickRAG:   key.NewBinding(key.WithKeys("f2")),
		QuickTool:  key.NewBinding(key.WithKeys("f3")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("^c", "quit")),
	}
}

// chatHelp lists the bindings shown in chat mode
func (k keyMap) chatHelp() []key.Binding {
	return []key.Binding{
		k.Send, k.NewChat, k.DeleteChat, k.Rename, k.Clear, k.Export,
		k.Memory, k.Documents, k.Steps, k.AutoScroll, k.PrevChat, k.NextChat,
		k.QuickHello, k.Quit,
	}
}
