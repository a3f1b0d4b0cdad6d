package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/iksnae/modular-chat/internal/chat"
)

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name      string
		tr        *chat.Transcript
		wantLines int
		wantRoles []string
	}{
		{
			name:      "two messages",
			tr:        testTranscript("s1"),
			wantLines: 2,
			wantRoles: []string{"user", "agent"},
		},
		{
			name:      "empty transcript",
			tr:        emptyTranscript("s2"),
			wantLines: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&JSONLExporter{}).Export(tt.tr, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			var roles []string
			scanner := bufio.NewScanner(&buf)
			for scanner.Scan() {
				var msg documentMessage
				if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
					t.Fatalf("line is not valid JSON: %v", err)
				}
				roles = append(roles, msg.Role)
			}

			if len(roles) != tt.wantLines {
				t.Fatalf("lines = %d, want %d", len(roles), tt.wantLines)
			}
			for i, r := range tt.wantRoles {
				if roles[i] != r {
					t.Errorf("line %d role = %q, want %q", i, roles[i], r)
				}
			}
		})
	}
}
