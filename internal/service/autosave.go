package service

import (
	"context"
	"log"
	"time"
)

// Autosaver persists the graph after changes settle. It subscribes to
// the event bus and debounces: a burst of edits produces one save once
// the diagram has been quiet for the debounce window.
type Autosaver struct {
	svc      *DiagramService
	debounce time.Duration
	events   chan Event
}

// NewAutosaver wires an autosaver to the bus. Run must be called for
// saves to happen.
func NewAutosaver(svc *DiagramService, eventBus *EventBus, debounce time.Duration) *Autosaver {
	a := &Autosaver{
		svc:      svc,
		debounce: debounce,
		events:   make(chan Event, 64),
	}
	eventBus.Subscribe(a.events)
	return a
}

// Run processes events until ctx is cancelled, then takes a final save
// so shutdown never loses settled edits.
func (a *Autosaver) Run(ctx context.Context) {
	timer := time.NewTimer(a.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			if pending {
				if err := a.svc.Persist(context.Background()); err != nil {
					log.Printf("Final autosave failed: %v", err)
				}
			}
			return

		case <-a.events:
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(a.debounce)
			pending = true

		case <-timer.C:
			pending = false
			if err := a.svc.Persist(ctx); err != nil {
				log.Printf("Autosave failed: %v", err)
			}
		}
	}
}
