// Package speech serializes access to the single voice-output resource.
// The queue plays at most one utterance at any time: same-priority items in
// FIFO order, priority items at the head with preemption of whatever is
// currently playing.
package speech

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Item struct {
	ID      string
	Text    string
	Options Options

	OnStart func()
	// OnDone receives nil on success, ErrInterrupted on preemption, or the
	// synthesizer error otherwise.
	OnDone func(err error)
}

type Queue struct {
	mu sync.Mutex

	synth  Synthesizer
	settle time.Duration
	logger *zap.Logger

	items     []*Item
	running   bool
	currentID string
	cancel    context.CancelFunc
}

// NewQueue wraps an explicitly owned synthesizer handle. Tests construct
// independent queues over fakes; the server constructs exactly one.
func NewQueue(synth Synthesizer, settle time.Duration, logger *zap.Logger) *Queue {
	return &Queue{
		synth:  synth,
		settle: settle,
		logger: logger,
	}
}

// Enqueue appends an item, or with priority inserts it at the head and
// preempts the in-flight utterance. Returns the item id.
func (q *Queue) Enqueue(item *Item, priority bool) string {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Options == (Options{}) {
		item.Options = DefaultOptions()
	}

	q.mu.Lock()
	if priority {
		q.items = append([]*Item{item}, q.items...)
		if q.cancel != nil {
			q.cancel()
		}
	} else {
		q.items = append(q.items, item)
	}
	if !q.running {
		q.running = true
		go q.run()
	}
	q.mu.Unlock()
	return item.ID
}

// StopAll clears the queue and halts the in-flight utterance. The loop goes
// quiet until the next Enqueue.
func (q *Queue) StopAll() {
	q.mu.Lock()
	q.items = nil
	if q.cancel != nil {
		q.cancel()
	}
	q.mu.Unlock()
}

func (q *Queue) Speaking() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentID != ""
}

func (q *Queue) CurrentID() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentID
}

func (q *Queue) run() {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		item := q.items[0]
		q.items = q.items[1:]

		ctx, cancel := context.WithCancel(context.Background())
		q.cancel = cancel
		q.currentID = item.ID
		q.mu.Unlock()

		if item.OnStart != nil {
			item.OnStart()
		}

		err := q.synth.Speak(ctx, item.Text, item.Options)

		q.mu.Lock()
		q.cancel = nil
		q.currentID = ""
		q.mu.Unlock()
		cancel()

		switch {
		case err == nil:
		case errors.Is(err, ErrInterrupted):
			// Expected when preempted; not a user-facing failure.
			q.logger.Debug("utterance interrupted", zap.String("item_id", item.ID))
		default:
			q.logger.Error("utterance failed", zap.String("item_id", item.ID), zap.Error(err))
		}
		if item.OnDone != nil {
			item.OnDone(err)
		}

		// Settle before the next utterance; dispatching immediately after a
		// completion event races some platform synthesizers.
		time.Sleep(q.settle)
	}
}
