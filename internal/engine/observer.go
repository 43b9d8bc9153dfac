package engine

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/outpost-sh/outpost/internal/state"
)

// Observer receives structured lifecycle events. Implementations must
// be safe for sequential use from a single wizard process.
type Observer interface {
	// Event emits a structured event.
	Event(event Event)

	// Progress reports progress within a phase.
	Progress(phase state.Phase, current, total int)

	// WithFields returns an Observer carrying additional context fields.
	WithFields(fields map[string]string) Observer
}

// Event is one structured lifecycle event.
type Event struct {
	Type      EventType
	Phase     state.Phase
	Resource  string
	Message   string
	Timestamp time.Time
	Fields    map[string]string
}

// EventType classifies lifecycle events.
type EventType string

const (
	EventPhaseStarted   EventType = "phase.started"
	EventPhaseCompleted EventType = "phase.completed"
	EventPhaseFailed    EventType = "phase.failed"

	EventResourceCreating EventType = "resource.creating"
	EventResourceCreated  EventType = "resource.created"
	EventResourceExists   EventType = "resource.exists"
	EventResourceDeleting EventType = "resource.deleting"
	EventResourceDeleted  EventType = "resource.deleted"
	EventResourceFailed   EventType = "resource.failed"

	EventManualAction EventType = "manual.action"
	EventProgress     EventType = "progress"
)

// LogrObserver emits events through a logr.Logger.
type LogrObserver struct {
	logger logr.Logger
	fields map[string]string
}

// NewObserver wraps a logr.Logger as an Observer.
func NewObserver(logger logr.Logger) *LogrObserver {
	return &LogrObserver{logger: logger, fields: map[string]string{}}
}

// Event implements Observer.
func (o *LogrObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	kv := []any{"event", string(event.Type)}
	if event.Phase != "" {
		kv = append(kv, "phase", string(event.Phase))
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	for k, v := range o.fields {
		if _, shadowed := event.Fields[k]; !shadowed {
			kv = append(kv, k, v)
		}
	}
	for k, v := range event.Fields {
		kv = append(kv, k, v)
	}
	o.logger.Info(event.Message, kv...)
}

// Progress implements Observer.
func (o *LogrObserver) Progress(phase state.Phase, current, total int) {
	o.Event(Event{
		Type:    EventProgress,
		Phase:   phase,
		Message: fmt.Sprintf("%d/%d", current, total),
	})
}

// WithFields implements Observer.
func (o *LogrObserver) WithFields(fields map[string]string) Observer {
	merged := make(map[string]string, len(o.fields)+len(fields))
	for k, v := range o.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &LogrObserver{logger: o.logger, fields: merged}
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) Event(Event)                             {}
func (NopObserver) Progress(state.Phase, int, int)          {}
func (n NopObserver) WithFields(map[string]string) Observer { return n }

// Helper functions for common events.

func LogPhaseStart(observer Observer, phase state.Phase) {
	observer.Event(Event{Type: EventPhaseStarted, Phase: phase, Message: "starting"})
}

func LogPhaseComplete(observer Observer, phase state.Phase, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

func LogPhaseFailed(observer Observer, phase state.Phase, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: fmt.Sprintf("failed: %v", err),
	})
}

func LogResourceCreating(observer Observer, phase state.Phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceCreating,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("creating %s", resourceType),
		Fields:   map[string]string{"type": resourceType},
	})
}

func LogResourceCreated(observer Observer, phase state.Phase, resourceType, resourceName, resourceID string) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s created", resourceType),
		Fields:   map[string]string{"type": resourceType, "id": resourceID},
	})
}

func LogResourceExists(observer Observer, phase state.Phase, resourceType, resourceName, resourceID string) {
	observer.Event(Event{
		Type:     EventResourceExists,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s already exists", resourceType),
		Fields:   map[string]string{"type": resourceType, "id": resourceID},
	})
}

func LogResourceDeleting(observer Observer, phase state.Phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceDeleting,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("deleting %s", resourceType),
		Fields:   map[string]string{"type": resourceType},
	})
}

func LogResourceDeleted(observer Observer, phase state.Phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceDeleted,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s deleted", resourceType),
		Fields:   map[string]string{"type": resourceType},
	})
}
