package streaming

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/snow-ghost/thoughtsearch/core"
	"github.com/snow-ghost/thoughtsearch/search"
)

// Event names written to a search stream.
const (
	EventStart    = "start"
	EventProgress = "progress"
	EventDone     = "done"
	EventError    = "error"
)

// SSEWriter handles Server-Sent Events writing. It is safe for concurrent
// use, so portfolio members can report through one writer.
type SSEWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &SSEWriter{
		w:       w,
		flusher: flusher,
	}, nil
}

// WriteEvent writes an SSE event
func (s *SSEWriter) WriteEvent(event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	if event != "" {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	// encoding/json never emits raw newlines, but keep the framing honest
	for _, line := range strings.Split(string(jsonData), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	if _, err := io.WriteString(s.w, b.String()); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Start is the payload of the first event of a stream.
type Start struct {
	RequestID    string `json:"request_id"`
	WorkerType   string `json:"worker_type"`
	Capabilities string `json:"capabilities"`
}

func (s *SSEWriter) WriteStart(start Start) error {
	return s.WriteEvent(EventStart, start)
}

func (s *SSEWriter) WriteProgress(p search.Progress) error {
	return s.WriteEvent(EventProgress, p)
}

// WriteDone writes the final outcome. A cancelled search still ends with done.
func (s *SSEWriter) WriteDone(out core.Outcome) error {
	return s.WriteEvent(EventDone, out)
}

// WriteError writes an error event
func (s *SSEWriter) WriteError(err error) error {
	return s.WriteEvent(EventError, map[string]string{"error": err.Error()})
}

// StreamHandler receives decoded events from ParseSSEStream. Nil callbacks
// skip their events.
type StreamHandler struct {
	OnStart    func(Start) error
	OnProgress func(search.Progress) error
	OnDone     func(core.Outcome) error
	OnError    func(error) error
}

// ParseSSEStream reads events from r until EOF or ctx ends. A clean EOF
// returns nil.
func ParseSSEStream(ctx context.Context, r io.Reader, handler *StreamHandler) error {
	reader := bufio.NewReader(r)
	var currentEvent string
	var currentData strings.Builder

	flush := func() error {
		defer func() {
			currentEvent = ""
			currentData.Reset()
		}()
		if currentData.Len() == 0 {
			return nil
		}
		return processEvent(currentEvent, currentData.String(), handler)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return readErr
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			// Empty line indicates end of event
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if currentData.Len() > 0 {
				currentData.WriteString("\n")
			}
			currentData.WriteString(strings.TrimPrefix(line, "data: "))
		}

		if readErr != nil {
			return flush()
		}
	}
}

func processEvent(eventType, data string, handler *StreamHandler) error {
	switch eventType {
	case EventStart:
		if handler.OnStart == nil {
			return nil
		}
		var start Start
		if err := json.Unmarshal([]byte(data), &start); err != nil {
			return fmt.Errorf("failed to unmarshal start: %w", err)
		}
		return handler.OnStart(start)

	case EventProgress:
		if handler.OnProgress == nil {
			return nil
		}
		var p search.Progress
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return fmt.Errorf("failed to unmarshal progress: %w", err)
		}
		return handler.OnProgress(p)

	case EventDone:
		if handler.OnDone == nil {
			return nil
		}
		var out core.Outcome
		if err := json.Unmarshal([]byte(data), &out); err != nil {
			return fmt.Errorf("failed to unmarshal done: %w", err)
		}
		return handler.OnDone(out)

	case EventError:
		if handler.OnError == nil {
			return nil
		}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal error: %w", err)
		}
		return handler.OnError(errors.New(payload.Error))

	default:
		// Ignore unknown event types
		return nil
	}
}
