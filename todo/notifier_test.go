package todo_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/slackmgr/todo/todo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifiers_Notify(t *testing.T) {
	t.Parallel()

	event := todo.Event{Type: todo.EventItemDeleted, ItemID: "a1", Timestamp: fixedTime}

	t.Run("empty set is a no-op", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, todo.Notifiers(nil).Notify(context.Background(), event))
	})

	t.Run("every notifier receives the event", func(t *testing.T) {
		t.Parallel()

		a, b, c := &recordingNotifier{}, &recordingNotifier{}, &recordingNotifier{}

		err := todo.Notifiers{a, b, c}.Notify(context.Background(), event)

		require.NoError(t, err)

		for _, n := range []*recordingNotifier{a, b, c} {
			assert.Equal(t, []todo.Event{event}, n.Events())
		}
	})

	t.Run("errors are joined and do not stop delivery", func(t *testing.T) {
		t.Parallel()

		errA := errors.New("sqs down")
		errC := errors.New("pubsub down")
		a, b, c := &recordingNotifier{err: errA}, &recordingNotifier{}, &recordingNotifier{err: errC}

		err := todo.Notifiers{a, b, c}.Notify(context.Background(), event)

		require.Error(t, err)
		assert.ErrorIs(t, err, errA)
		assert.ErrorIs(t, err, errC)
		assert.Len(t, b.Events(), 1)
	})

	t.Run("every error is kept when notifiers outnumber the concurrency limit", func(t *testing.T) {
		t.Parallel()

		var (
			set  todo.Notifiers
			errs []error
		)

		for i := range 10 {
			err := fmt.Errorf("notifier %d down", i)
			errs = append(errs, err)
			set = append(set, &recordingNotifier{err: err})
		}

		err := set.Notify(context.Background(), event)

		require.Error(t, err)

		for i, want := range errs {
			assert.ErrorIs(t, err, want)
			assert.Len(t, set[i].(*recordingNotifier).Events(), 1)
		}
	})

	t.Run("concurrent deliveries are bounded", func(t *testing.T) {
		t.Parallel()

		gauge := &concurrencyGauge{}
		set := make(todo.Notifiers, 12)
		for i := range set {
			set[i] = gauge
		}

		require.NoError(t, set.Notify(context.Background(), event))

		assert.Equal(t, int32(12), gauge.calls.Load())
		assert.LessOrEqual(t, gauge.peak.Load(), int32(4))
	})

	t.Run("single notifier error is returned as is", func(t *testing.T) {
		t.Parallel()

		errA := errors.New("sqs down")

		err := todo.Notifiers{&recordingNotifier{err: errA}}.Notify(context.Background(), event)

		assert.Equal(t, errA, err)
	})
}

// concurrencyGauge records the highest number of overlapping Notify calls.
type concurrencyGauge struct {
	active atomic.Int32
	peak   atomic.Int32
	calls  atomic.Int32
}

func (g *concurrencyGauge) Notify(_ context.Context, _ todo.Event) error {
	n := g.active.Add(1)
	defer g.active.Add(-1)

	for {
		peak := g.peak.Load()
		if n <= peak || g.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	g.calls.Add(1)
	time.Sleep(5 * time.Millisecond)

	return nil
}

func TestItemUpdate_Fields(t *testing.T) {
	t.Parallel()

	title := "x"
	done := false

	assert.Empty(t, todo.ItemUpdate{}.Fields())
	assert.Equal(t, []todo.Field{{Name: "title", Value: "x"}}, todo.ItemUpdate{Title: &title}.Fields())
	assert.Equal(t, []todo.Field{{Name: "done", Value: false}}, todo.ItemUpdate{Done: &done}.Fields())
	assert.Equal(t,
		[]todo.Field{{Name: "title", Value: "x"}, {Name: "done", Value: false}},
		todo.ItemUpdate{Done: &done, Title: &title}.Fields(),
	)
}
