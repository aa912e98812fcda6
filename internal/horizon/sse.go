package horizon

import (
	"bytes"
	"strings"
)

// splitSSE is a bufio.SplitFunc yielding one server-sent event block at a
// time. Blocks are separated by a blank line; CRLF framing is tolerated.
func splitSSE(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return i + 2, data[:i], nil
	}
	if i := bytes.Index(data, []byte("\r\n\r\n")); i >= 0 {
		return i + 4, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// sseEvent is one parsed server-sent event.
type sseEvent struct {
	Name string
	Data string
}

// parseSSEEvent assembles an event from the lines of one block. Multiple
// data lines concatenate with newlines per the SSE protocol; comment, id,
// and retry lines are ignored.
func parseSSEEvent(block string) sseEvent {
	ev := sseEvent{Name: "message"}
	var data []string

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case line == "" || strings.HasPrefix(line, ":"):
			continue
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	ev.Data = strings.Join(data, "\n")
	return ev
}
