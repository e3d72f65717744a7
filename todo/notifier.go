package todo

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// EventType identifies the kind of change an [Event] describes.
type EventType string

const (
	EventItemCreated EventType = "item.created"
	EventItemUpdated EventType = "item.updated"
	EventItemDeleted EventType = "item.deleted"
)

// Event describes a successful change to an item.
//
// Item holds the item as returned to the client. It is nil for deletes, and
// for updates whose re-read found nothing.
type Event struct {
	Type      EventType `json:"type"`
	ItemID    string    `json:"item_id"`
	Item      *Item     `json:"item,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier receives item change events.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Notifiers fans a single event out to several notifiers.
type Notifiers []Notifier

// maxConcurrentNotifications bounds how many notifiers run at once.
const maxConcurrentNotifications = 4

// Notify delivers the event to every notifier concurrently and waits for all
// of them. The returned error joins the errors of every failed notifier.
func (n Notifiers) Notify(ctx context.Context, event Event) error {
	if len(n) == 0 {
		return nil
	}

	if len(n) == 1 {
		return n[0].Notify(ctx, event)
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentNotifications)

	// Wait reports only the first error, and a failing notifier must not
	// hide the others, so each result is kept by index and joined.
	errs := make([]error, len(n))

	for i, notifier := range n {
		g.Go(func() error {
			errs[i] = notifier.Notify(ctx, event)
			return nil
		})
	}

	_ = g.Wait()

	return errors.Join(errs...)
}
