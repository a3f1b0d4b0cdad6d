package export

import (
	"io"

	"github.com/iksnae/modular-chat/internal/chat"
)

// TextExporter writes the plain transcript, one "[timestamp] role: text"
// line per message.
type TextExporter struct{}

// Export exports a transcript as plain text
func (e *TextExporter) Export(tr *chat.Transcript, w io.Writer) error {
	_, err := io.WriteString(w, chat.JoinLines(chat.TranscriptLines(tr.Messages)))
	return err
}

// Extension returns the file extension for this format
func (e *TextExporter) Extension() string {
	return "txt"
}
