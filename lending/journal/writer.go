package journal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/lendbot/core/logger"
	"github.com/m3rciful/lendbot/lending"
)

const logComponent = "journal"

// ErrWriterClosed is returned by Enqueue after Close.
var ErrWriterClosed = errors.New("journal: writer closed")

// ErrQueueFull is returned by Enqueue when the buffer is saturated.
var ErrQueueFull = errors.New("journal: queue full")

// WriterOptions tunes the background writer.
type WriterOptions struct {
	QueueSize    int
	WriteTimeout time.Duration
}

// Writer is a lending.Observer that persists commits from a background
// goroutine, keeping database I/O out of the book's critical section.
type Writer struct {
	store   Store
	opts    WriterOptions
	queue   chan Entry
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewWriter starts a writer on top of store.
func NewWriter(store Store, opts WriterOptions) *Writer {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	w := &Writer{
		store: store,
		opts:  opts,
		queue: make(chan Entry, opts.QueueSize),
		done:  make(chan struct{}),
	}
	go w.loop()
	return w
}

// Committed queues the commit for persistence.
func (w *Writer) Committed(ctx context.Context, c lending.Commit) {
	e := EntryFromCommit(c)
	if err := w.Enqueue(e); err != nil {
		w.dropped.Add(1)
		logger.Warn(ctx, logComponent, "journal.drop",
			slog.String("status", "skip"),
			slog.String("order_id", e.OrderID),
			slog.Int64("seq", e.Seq),
			slog.String("err", err.Error()),
		)
	}
}

// Rejected is a no-op; rejections leave no trace in the journal.
func (w *Writer) Rejected(context.Context, lending.Operation, lending.SlotID, error) {}

// Enqueue schedules e without blocking.
func (w *Writer) Enqueue(e Entry) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWriterClosed
	}
	select {
	case w.queue <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dropped reports entries that never reached the queue.
func (w *Writer) Dropped() uint64 { return w.dropped.Load() }

// Failed reports entries the store rejected.
func (w *Writer) Failed() uint64 { return w.failed.Load() }

// Close stops accepting entries and waits until queued ones are written.
func (w *Writer) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
	return nil
}

func (w *Writer) loop() {
	defer close(w.done)
	for e := range w.queue {
		w.write(e)
	}
}

func (w *Writer) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), w.opts.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := w.store.Insert(ctx, e); err != nil {
		w.failed.Add(1)
		logger.Error(ctx, logComponent, "journal.write",
			slog.String("status", "fail"),
			slog.String("order_id", e.OrderID),
			slog.Int64("seq", e.Seq),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Debug(ctx, logComponent, "journal.write",
		slog.String("status", "ok"),
		slog.String("order_id", e.OrderID),
		slog.Int64("seq", e.Seq),
		slog.Duration("duration", logger.Took(start)),
	)
}
