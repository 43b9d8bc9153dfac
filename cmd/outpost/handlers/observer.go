package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/outpost-sh/outpost/internal/engine"
	"github.com/outpost-sh/outpost/internal/state"
)

// newRunObserver returns the observer for a CLI run: formatted lines on
// stderr, or JSON event lines when machine-readable output is requested.
func newRunObserver(outputJSON bool) engine.Observer {
	if outputJSON {
		return &jsonObserver{out: stdout}
	}
	return &consoleObserver{out: stderr}
}

// consoleObserver prints human-readable progress lines.
type consoleObserver struct {
	out    io.Writer
	fields map[string]string
}

func (o *consoleObserver) Event(event engine.Event) {
	switch event.Type {
	case engine.EventPhaseStarted:
		fmt.Fprintf(o.out, "==> %s\n", event.Message)
	case engine.EventPhaseCompleted:
		fmt.Fprintf(o.out, "    %s\n", event.Message)
	case engine.EventPhaseFailed:
		fmt.Fprintf(o.out, "!!  %s\n", event.Message)
	case engine.EventManualAction:
		fmt.Fprintf(o.out, " *  %s\n", event.Message)
	case engine.EventProgress:
		// Progress() already renders these.
	default:
		if event.Resource != "" {
			fmt.Fprintf(o.out, "    %s: %s\n", event.Resource, event.Message)
		} else {
			fmt.Fprintf(o.out, "    %s\n", event.Message)
		}
	}
}

func (o *consoleObserver) Progress(phase state.Phase, current, total int) {
	fmt.Fprintf(o.out, "    [%s] %d/%d ready\n", phase, current, total)
}

func (o *consoleObserver) WithFields(fields map[string]string) engine.Observer {
	merged := make(map[string]string, len(o.fields)+len(fields))
	for k, v := range o.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &consoleObserver{out: o.out, fields: merged}
}

// jsonObserver emits one JSON object per event, for agents and scripts.
type jsonObserver struct {
	out    io.Writer
	fields map[string]string
}

type jsonEvent struct {
	Type      string            `json:"type"`
	Phase     string            `json:"phase,omitempty"`
	Resource  string            `json:"resource,omitempty"`
	Message   string            `json:"message,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Fields    map[string]string `json:"fields,omitempty"`
}

func (o *jsonObserver) Event(event engine.Event) {
	merged := make(map[string]string, len(o.fields)+len(event.Fields))
	for k, v := range o.fields {
		merged[k] = v
	}
	for k, v := range event.Fields {
		merged[k] = v
	}
	ev := jsonEvent{
		Type:      string(event.Type),
		Phase:     string(event.Phase),
		Resource:  event.Resource,
		Message:   event.Message,
		Timestamp: event.Timestamp,
		Fields:    merged,
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintln(o.out, string(data))
}

func (o *jsonObserver) Progress(phase state.Phase, current, total int) {
	o.Event(engine.Event{
		Type:    engine.EventProgress,
		Phase:   phase,
		Message: fmt.Sprintf("%d/%d ready", current, total),
	})
}

func (o *jsonObserver) WithFields(fields map[string]string) engine.Observer {
	merged := make(map[string]string, len(o.fields)+len(fields))
	for k, v := range o.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &jsonObserver{out: o.out, fields: merged}
}
