// Package main provides the notify plugin. It shows a desktop notification or
// appends a log line when attendance is marked or an enrollment completes.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Request is the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Event   string          `json:"event"`
	Config  json.RawMessage `json:"config"`
	Payload json.RawMessage `json:"payload"`
}

// Response is the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type config struct {
	// Path is the log file for the "log" action.
	Path string `json:"path"`
}

type actionHandler func(cfg config, msg string) error

var actionHandlers = map[string]actionHandler{
	"announce": announce,
	"log":      appendLog,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeResponse(fmt.Errorf("unknown action: %s", req.Action))
		return
	}

	var cfg config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeResponse(fmt.Errorf("invalid config: %w", err))
			return
		}
	}

	msg, err := message(req.Event, req.Payload)
	if err != nil {
		writeResponse(err)
		return
	}

	if err := handler(cfg, msg); err != nil {
		writeResponse(fmt.Errorf("action %s failed: %w", req.Action, err))
		return
	}
	writeResponse(nil)
}

// message renders the event payload as one line of text.
func message(event string, payload json.RawMessage) (string, error) {
	var fields map[string]any
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &fields); err != nil {
			return "", fmt.Errorf("invalid payload: %w", err)
		}
	}

	name := firstString(fields, "Name", "name")
	switch event {
	case "attendance.marked":
		return fmt.Sprintf("%s marked present at %s %s", name, firstString(fields, "Date"), firstString(fields, "Time")), nil
	case "enrollment.completed":
		return fmt.Sprintf("%s enrolled with %v samples", name, fields["samples_collected"]), nil
	default:
		return fmt.Sprintf("%s: %s", event, name), nil
	}
}

func firstString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := fields[k].(string); ok {
			return s
		}
	}
	return ""
}

// announce shows a desktop notification.
func announce(_ config, msg string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title "wavein"`, msg)
		cmd = exec.Command("osascript", "-e", script)
	case "linux":
		cmd = exec.Command("notify-send", "wavein", msg)
	default:
		return fmt.Errorf("notifications not supported on %s", runtime.GOOS)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// appendLog writes a timestamped line to the configured file.
func appendLog(cfg config, msg string) error {
	path := cfg.Path
	if path == "" {
		path = "notify.log"
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s %s\n", time.Now().Format(time.RFC3339), msg)
	return err
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
