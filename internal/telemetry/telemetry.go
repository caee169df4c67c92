// Package telemetry defines the hooks notified after physical installs.
package telemetry

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Event describes one completed physical install.
type Event struct {
	ID       uuid.UUID
	Name     string
	LibID    int // zero for direct installs
	Version  string
	URL      string
	Dir      string
	Duration time.Duration
}

// NewEvent returns an Event with a fresh random ID.
func NewEvent(name string) Event {
	return Event{ID: uuid.New(), Name: name}
}

// Hooks receives install events.
type Hooks interface {
	OnInstall(ctx context.Context, e Event)
}

// Noop discards every event.
type Noop struct{}

// OnInstall does nothing.
func (Noop) OnInstall(context.Context, Event) {}

// Logger reports events at debug level.
type Logger struct {
	Log *log.Logger
}

// OnInstall logs e.
func (l Logger) OnInstall(_ context.Context, e Event) {
	if l.Log == nil {
		return
	}
	l.Log.Debug("install event",
		"event", e.ID.String(),
		"name", e.Name,
		"id", e.LibID,
		"version", e.Version,
		"url", e.URL,
		"duration", e.Duration.Round(time.Millisecond),
	)
}
