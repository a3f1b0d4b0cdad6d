package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/modular-chat/internal"
	"github.com/iksnae/modular-chat/internal/chat"
	"github.com/iksnae/modular-chat/internal/store"
	"github.com/iksnae/modular-chat/testutil"
)

func TestNewExporter(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantExt string
		wantErr bool
	}{
		{name: "text format", format: "txt", wantExt: "txt"},
		{name: "text format long", format: "text", wantExt: "txt"},
		{name: "jsonl format", format: "jsonl", wantExt: "jsonl"},
		{name: "markdown format", format: "md", wantExt: "md"},
		{name: "markdown format long", format: "markdown", wantExt: "md"},
		{name: "yaml format", format: "yaml", wantExt: "yaml"},
		{name: "yml alias", format: "yml", wantExt: "yaml"},
		{name: "json format", format: "json", wantExt: "json"},
		{name: "unsupported format", format: "xml", wantErr: true},
		{name: "empty format", format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewExporter() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				if exporter != nil {
					t.Errorf("NewExporter() returned exporter %T, want nil", exporter)
				}
				return
			}

			if got := exporter.Extension(); got != tt.wantExt {
				t.Errorf("Exporter.Extension() = %v, want %v", got, tt.wantExt)
			}
		})
	}
}

// Test that every advertised format is accepted
func TestFormats(t *testing.T) {
	for _, f := range Formats {
		if _, err := NewExporter(f); err != nil {
			t.Errorf("NewExporter(%q) error = %v", f, err)
		}
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(testutil.CreateTempDir(t), "exports")

	path, err := WriteFile(dir, testTranscript("chat_01abc"), &TextExporter{})
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if want := filepath.Join(dir, "chat_chat_01abc.txt"); path != want {
		t.Errorf("WriteFile() path = %q, want %q", path, want)
	}

	got := string(testutil.ReadFile(t, path))
	want := "[2024-05-01T12:00:00.000Z] user: Hello, what can you do?\n" +
		"[2024-05-01T12:00:01.500Z] agent: I can **search** documents."
	if got != want {
		t.Errorf("file content = %q, want %q", got, want)
	}
}

func TestWriteFile_Error(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	// a regular file where the directory should be
	blocker := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := WriteFile(blocker, testTranscript("s"), &JSONExporter{})
	var exportErr *internal.ExportError
	if !errors.As(err, &exportErr) {
		t.Fatalf("WriteFile() error = %v, want ExportError", err)
	}
	if exportErr.Format != "json" {
		t.Errorf("ExportError.Format = %q, want json", exportErr.Format)
	}
}

func TestExportSession(t *testing.T) {
	ctx := context.Background()
	ctrl := chat.NewController(store.NewMemoryStore(), nil, chat.Options{})
	view, err := ctrl.Start(ctx)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := ctrl.Log().Append(ctx, view.ActiveID, chat.RoleUser, "ping", "You"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	dir := testutil.CreateTempDir(t)
	path, err := ExportSession(ctx, ctrl, "", dir, &JSONLExporter{})
	if err != nil {
		t.Fatalf("ExportSession() error = %v", err)
	}
	if want := filepath.Join(dir, "chat_"+view.ActiveID+".jsonl"); path != want {
		t.Errorf("ExportSession() path = %q, want %q", path, want)
	}

	if _, err := ExportSession(ctx, ctrl, "chat_missing", dir, &TextExporter{}); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Errorf("ExportSession(unknown) error = %v, want ErrSessionNotFound", err)
	}
}
