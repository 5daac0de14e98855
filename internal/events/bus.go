package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(RecordingStartedEvent{...})
func (b *Bus) Publish(ev Event) {
	// Use type switch to call the generic Publish with the correct type
	switch e := ev.(type) {
	case RecordingStartedEvent:
		event.Publish(b.dispatcher, e)
	case RecordingStoppedEvent:
		event.Publish(b.dispatcher, e)
	case RecordingProgressEvent:
		event.Publish(b.dispatcher, e)
	case ReplayStartedEvent:
		event.Publish(b.dispatcher, e)
	case ReplayStoppedEvent:
		event.Publish(b.dispatcher, e)
	case ReplaySavedEvent:
		event.Publish(b.dispatcher, e)
	case ExportFinishedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	case ConfigReloadedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives (type inference)
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e RecordingStartedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	// The kelindar/event library binds subscriptions to concrete event
	// types, so each handler signature gets its own case.
	switch h := handler.(type) {
	case func(RecordingStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RecordingStoppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RecordingProgressEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ReplayStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ReplayStoppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ReplaySavedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ExportFinishedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ConfigReloadedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}
