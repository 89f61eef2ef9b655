package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes a shell script plugin into a temp dir.
func scriptPlugin(t *testing.T, name, script string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Actions:    []string{"announce"},
		},
		Path:       dir,
		Executable: path,
	}
}

func markedRequest() *Request {
	return &Request{
		Action:  "announce",
		Event:   EventAttendanceMarked,
		Config:  json.RawMessage(`{"voice":"en"}`),
		Payload: json.RawMessage(`{"Name":"Alice","Date":"2026-03-02","Time":"09:00:00","Status":"Present"}`),
	}
}

func TestExecutor_Execute(t *testing.T) {
	tests := []struct {
		name        string
		script      string
		wantErr     string
		wantSuccess bool
		wantError   string
	}{
		{
			name:        "success",
			script:      "echo '{\"success\":true,\"data\":{\"message\":\"hello\"}}'\n",
			wantSuccess: true,
		},
		{
			name:      "error response",
			script:    "echo '{\"success\":false,\"error\":\"speaker busy\"}'\n",
			wantError: "speaker busy",
		},
		{
			name:    "invalid json",
			script:  "echo 'not json'\n",
			wantErr: "failed to parse plugin response",
		},
		{
			name:    "non-zero exit",
			script:  "echo 'boom' >&2\nexit 3\n",
			wantErr: "stderr: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scriptPlugin(t, "notify", tt.script)

			resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, markedRequest())
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Execute() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if resp.Success != tt.wantSuccess || resp.Error != tt.wantError {
				t.Errorf("Execute() = %+v", resp)
			}
		})
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	p := scriptPlugin(t, "echo", `INPUT=$(cat)
echo "{\"success\":true,\"data\":$INPUT}"
`)

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, markedRequest())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var got Request
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatalf("failed to unmarshal echoed request: %v", err)
	}
	if got.Action != "announce" || got.Event != EventAttendanceMarked {
		t.Errorf("echoed request = %+v", got)
	}

	var payload map[string]string
	json.Unmarshal(got.Payload, &payload)
	if payload["Name"] != "Alice" {
		t.Errorf("payload Name = %q, want Alice", payload["Name"])
	}
}

func TestExecutor_Timeout(t *testing.T) {
	p := scriptPlugin(t, "slow", "sleep 5\necho '{\"success\":true}'\n")

	start := time.Now()
	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), p, markedRequest())
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("Execute() error = %v, want timeout", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("timeout did not stop the plugin promptly")
	}
}

func TestExecutor_ContextCancel(t *testing.T) {
	p := scriptPlugin(t, "slow", "sleep 5\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewExecutor(5*time.Second).Execute(ctx, p, markedRequest()); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestNewExecutor_DefaultTimeout(t *testing.T) {
	if e := NewExecutor(0); e.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", e.timeout, DefaultTimeout)
	}
}
