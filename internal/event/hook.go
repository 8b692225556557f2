package event

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrRejected is returned by an approval hook when the operator declines.
var ErrRejected = errors.New("rejected by operator")

// Hook processes lifecycle events.
type Hook interface {
	// Name returns the hook's identifier.
	Name() string
	// Matches returns true if the hook should handle this event type.
	Matches(t EventType) bool
	// IsBlocking returns true if the emitting operation waits for this hook.
	IsBlocking() bool
	// Handle processes an event. For blocking hooks, an error aborts the operation.
	Handle(ev Event) error
}

// baseHook provides shared fields for all hook implementations.
type baseHook struct {
	name     string
	events   []EventType
	blocking bool
}

func (h *baseHook) Name() string     { return h.name }
func (h *baseHook) IsBlocking() bool { return h.blocking }
func (h *baseHook) Matches(t EventType) bool {
	if len(h.events) == 0 {
		return true // match all events if no filter specified
	}
	for _, ev := range h.events {
		if ev == t {
			return true
		}
	}
	return false
}

// ShellHook executes a shell command with event data in environment variables.
//
// Environment variables set:
//   - PROMPTVAULT_EVENT_TYPE: the event type string
//   - PROMPTVAULT_EVENT_JSON: JSON-encoded event
//   - PROMPTVAULT_VERSION_ID: version id from the event data, if any
//   - PROMPTVAULT_FILE: live file name from the event data, if any
//
// Command output goes to stderr so it never mixes with machine-readable CLI output.
type ShellHook struct {
	baseHook
	Command string
	Output  io.Writer
}

func NewShellHook(name, command string, events []EventType, blocking bool) *ShellHook {
	return &ShellHook{
		baseHook: baseHook{name: name, events: events, blocking: blocking},
		Command:  command,
		Output:   os.Stderr,
	}
}

func (h *ShellHook) Handle(ev Event) error {
	eventJSON, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	cmd := exec.Command("sh", "-c", h.Command)
	cmd.Env = append(os.Environ(),
		"PROMPTVAULT_EVENT_TYPE="+string(ev.Type),
		"PROMPTVAULT_EVENT_JSON="+string(eventJSON),
		"PROMPTVAULT_VERSION_ID="+ev.String("version_id"),
		"PROMPTVAULT_FILE="+ev.String("file"),
	)
	cmd.Stdout = h.Output
	cmd.Stderr = h.Output

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("shell hook %s failed: %w", h.name, err)
	}
	return nil
}

// WebhookHook sends an HTTP POST with event JSON to a URL.
type WebhookHook struct {
	baseHook
	URL     string
	Timeout time.Duration
}

func NewWebhookHook(name, url string, events []EventType, blocking bool) *WebhookHook {
	return &WebhookHook{
		baseHook: baseHook{name: name, events: events, blocking: blocking},
		URL:      url,
		Timeout:  10 * time.Second,
	}
}

func (h *WebhookHook) Handle(ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	client := &http.Client{Timeout: h.Timeout}
	resp, err := client.Post(h.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook %s failed: %w", h.name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook %s returned status %d", h.name, resp.StatusCode)
	}
	return nil
}

// LogHook logs events at the configured level. Always non-blocking.
type LogHook struct {
	baseHook
	logger Logger
	level  string // "debug", "info", "warn"
}

// FullLogger extends Logger with additional log levels for the LogHook.
type FullLogger interface {
	Logger
	Info(msg string, keyvals ...interface{})
	Debug(msg string, keyvals ...interface{})
}

func NewLogHook(name string, events []EventType, logger Logger, level string) *LogHook {
	if level == "" {
		level = "info"
	}
	return &LogHook{
		baseHook: baseHook{name: name, events: events, blocking: false},
		logger:   logger,
		level:    level,
	}
}

func (h *LogHook) Handle(ev Event) error {
	if h.logger == nil {
		return nil
	}
	msg := fmt.Sprintf("[event] %s", ev.Type)
	keyvals := make([]interface{}, 0, len(ev.Data)*2+2)
	keyvals = append(keyvals, "event_type", string(ev.Type))
	for k, v := range ev.Data {
		keyvals = append(keyvals, k, v)
	}

	if fl, ok := h.logger.(FullLogger); ok {
		switch h.level {
		case "debug":
			fl.Debug(msg, keyvals...)
		case "warn":
			fl.Warn(msg, keyvals...)
		default:
			fl.Info(msg, keyvals...)
		}
	} else {
		// Fallback: use Warn since Logger only guarantees Warn.
		h.logger.Warn(msg, keyvals...)
	}
	return nil
}

// PauseHook is a human approval gate. It prints a message and reads one line:
// an empty line or "y"/"yes" continues, "n"/"no" returns ErrRejected. Always
// blocking, so a rejection on change.applying stops the live write.
type PauseHook struct {
	baseHook
	Message string
	Reader  io.Reader // defaults to os.Stdin
	Output  io.Writer // defaults to os.Stderr
}

func NewPauseHook(name string, events []EventType, message string) *PauseHook {
	return &PauseHook{
		baseHook: baseHook{name: name, events: events, blocking: true},
		Message:  message,
		Reader:   os.Stdin,
		Output:   os.Stderr,
	}
}

func (h *PauseHook) Handle(ev Event) error {
	msg := h.Message
	if msg == "" {
		msg = fmt.Sprintf("Event %s occurred. Continue? [Y/n]", ev.Type)
	}
	// Replace template variables in message.
	msg = strings.NewReplacer(
		"{{.EventType}}", string(ev.Type),
		"{{.VersionID}}", ev.String("version_id"),
		"{{.File}}", ev.String("file"),
	).Replace(msg)

	out := h.Output
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintln(out, msg)

	reader := h.Reader
	if reader == nil {
		reader = os.Stdin
	}
	line, err := bufio.NewReader(reader).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("pause hook %s: %w", h.name, err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "n", "no":
		return fmt.Errorf("pause hook %s: %w", h.name, ErrRejected)
	}
	return nil
}

// Spec is the declarative form of a hook, as read from configuration.
type Spec struct {
	Name     string
	Type     string // shell, webhook, log, pause
	Events   []string
	Blocking bool
	Command  string
	URL      string
	Message  string
	Level    string
}

// Build constructs a hook from its spec. logger backs log hooks.
func Build(spec Spec, logger Logger) (Hook, error) {
	events := make([]EventType, 0, len(spec.Events))
	for _, e := range spec.Events {
		t := EventType(e)
		if !Known(t) {
			return nil, fmt.Errorf("hook %s: unknown event %q", spec.Name, e)
		}
		events = append(events, t)
	}

	switch spec.Type {
	case "shell":
		if spec.Command == "" {
			return nil, fmt.Errorf("hook %s: shell hook requires a command", spec.Name)
		}
		return NewShellHook(spec.Name, spec.Command, events, spec.Blocking), nil
	case "webhook":
		if spec.URL == "" {
			return nil, fmt.Errorf("hook %s: webhook hook requires a url", spec.Name)
		}
		return NewWebhookHook(spec.Name, spec.URL, events, spec.Blocking), nil
	case "log":
		return NewLogHook(spec.Name, events, logger, spec.Level), nil
	case "pause":
		return NewPauseHook(spec.Name, events, spec.Message), nil
	default:
		return nil, fmt.Errorf("hook %s: unknown type %q (must be shell, webhook, log, or pause)", spec.Name, spec.Type)
	}
}
