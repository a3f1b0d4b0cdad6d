package internal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestShowProgress(t *testing.T) {
	ctx := context.Background()
	var out, errOut bytes.Buffer
	defer SetOutput(&out, &errOut)()

	tests := []struct {
		name    string
		message string
		fn      func() error
		wantErr bool
	}{
		{
			name:    "successful function",
			message: "Testing",
			fn: func() error {
				return nil
			},
			wantErr: false,
		},
		{
			name:    "function with error",
			message: "Testing error",
			fn: func() error {
				return errors.New("test error")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgress(ctx, tt.message, tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// Not a terminal, so no spinner frames are drawn
	if errOut.Len() != 0 {
		t.Errorf("ShowProgress() wrote %q to a non-terminal", errOut.String())
	}
}

func TestShowSpinner(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() error
		wantErr  bool
		wantMark string
	}{
		{name: "success", fn: func() error { time.Sleep(20 * time.Millisecond); return nil }, wantMark: "✓"},
		{name: "failure", fn: func() error { return errors.New("boom") }, wantErr: true, wantMark: "✗"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := showSpinner(context.Background(), &buf, "Sending", tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("showSpinner() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(buf.String(), tt.wantMark+" Sending\n") {
				t.Errorf("showSpinner() output = %q, want final %s line", buf.String(), tt.wantMark)
			}
		})
	}
}

// Test that a cancelled context stops the spinner without waiting for fn
func TestShowSpinner_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	release := make(chan struct{})
	defer close(release)

	var buf bytes.Buffer
	err := showSpinner(ctx, &buf, "Waiting", func() error {
		<-release
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("showSpinner() error = %v, want DeadlineExceeded", err)
	}
}

func TestPrintHelpers(t *testing.T) {
	var out, errOut bytes.Buffer
	defer SetOutput(&out, &errOut)()

	PrintSuccess("saved")
	PrintInfo("3 chats")
	PrintError("failed")
	PrintWarning("careful")

	if got, want := out.String(), "saved\n3 chats\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if got, want := errOut.String(), "failed\nWARNING: careful\n"; got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
}
