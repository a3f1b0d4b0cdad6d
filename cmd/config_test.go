package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/modular-chat/testutil"
)

func TestConfigCommand_Init(t *testing.T) {
	e := newTestEnv(t)
	path := filepath.Join(e.dir, "config.yaml")

	out := e.mustRun("config")
	if !strings.Contains(out, "not found, using defaults") {
		t.Errorf("config = %q, want the missing file noted", out)
	}

	e.mustRun("config", "--init")
	data := string(testutil.ReadFile(t, path))
	if !strings.Contains(data, "backend_url: http://localhost:8000") {
		t.Errorf("written config = %q, want the default backend", data)
	}

	if out := e.mustRun("config"); !strings.Contains(out, "(found)") {
		t.Errorf("config = %q, want the file found", out)
	}

	if _, err := e.run("config", "--init"); err == nil {
		t.Error("config --init over an existing file: want error")
	}
}
