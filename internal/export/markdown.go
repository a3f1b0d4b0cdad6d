package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/modular-chat/internal/chat"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(tr *chat.Transcript, w io.Writer) error {
	title := tr.Session.Title
	if title == "" {
		title = tr.Session.ID
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", title)
	_, _ = fmt.Fprintf(w, "**Session:** %s  \n", tr.Session.ID)
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(tr.Messages))
	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range tr.Messages {
		header := fmt.Sprintf("**%s:** (%s)", msg.Role, chat.FormatTimestamp(msg.Timestamp))
		if msg.Meta != "" {
			header += " _" + msg.Meta + "_"
		}

		// Agent replies are already markdown; only user text is escaped
		content := msg.Text
		if msg.Role == chat.RoleUser {
			content = escapeMarkdown(content)
		}

		_, err := fmt.Fprintf(w, "%s\n\n%s\n\n", header, content)
		if err != nil {
			return err
		}

		if i < len(tr.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown emphasis outside code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
