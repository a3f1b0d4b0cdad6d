package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/modular-chat/internal"
	"github.com/iksnae/modular-chat/internal/chat"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(tr *chat.Transcript, w io.Writer) error
	Extension() string
}

// Formats lists the accepted format names
var Formats = []string{"txt", "md", "json", "jsonl", "yaml"}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "txt", "text":
		return &TextExporter{}, nil
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: txt, md, json, jsonl, yaml)", format)
	}
}

// FileName returns the export file name of a session: chat_<id>.<ext>
func FileName(sessionID string, e Exporter) string {
	return fmt.Sprintf("chat_%s.%s", sessionID, e.Extension())
}

// WriteFile exports tr into dir and returns the written path.
func WriteFile(dir string, tr *chat.Transcript, e Exporter) (string, error) {
	path := filepath.Join(dir, FileName(tr.Session.ID, e))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &internal.ExportError{Format: e.Extension(), Path: path, Err: err}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", &internal.ExportError{Format: e.Extension(), Path: path, Err: err}
	}

	if err := e.Export(tr, f); err != nil {
		_ = f.Close()
		return "", &internal.ExportError{Format: e.Extension(), Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &internal.ExportError{Format: e.Extension(), Path: path, Err: err}
	}

	internal.LogInfo("Exported %d messages to %s", len(tr.Messages), path)
	return path, nil
}

// ExportSession writes the transcript of session id (the active one when id
// is empty) into dir.
func ExportSession(ctx context.Context, ctrl *chat.Controller, id, dir string, e Exporter) (string, error) {
	tr, err := ctrl.Transcript(ctx, id)
	if err != nil {
		return "", err
	}
	return WriteFile(dir, tr, e)
}

// document is the structured form shared by the JSON and YAML exporters
type document struct {
	ID       string            `json:"id" yaml:"id"`
	Title    string            `json:"title" yaml:"title"`
	Messages []documentMessage `json:"messages" yaml:"messages"`
}

type documentMessage struct {
	Role      string `json:"role" yaml:"role"`
	Text      string `json:"text" yaml:"text"`
	Meta      string `json:"meta,omitempty" yaml:"meta,omitempty"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

func newDocumentMessage(m chat.Message) documentMessage {
	return documentMessage{
		Role:      string(m.Role),
		Text:      m.Text,
		Meta:      m.Meta,
		Timestamp: chat.FormatTimestamp(m.Timestamp),
	}
}

func newDocument(tr *chat.Transcript) document {
	doc := document{
		ID:       tr.Session.ID,
		Title:    tr.Session.Title,
		Messages: make([]documentMessage, 0, len(tr.Messages)),
	}
	for _, m := range tr.Messages {
		doc.Messages = append(doc.Messages, newDocumentMessage(m))
	}
	return doc
}
