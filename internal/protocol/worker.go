package protocol

import (
	"context"
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/olivier-w/wavesketch/internal/logging"
	"github.com/olivier-w/wavesketch/internal/render"
)

const defaultInboxSize = 256

// Worker owns a render engine and serves messages from a FIFO inbox on its
// own goroutine. Notifications are queued internally so a slow reader never
// stalls edits and nothing is dropped.
type Worker struct {
	id     string
	engine *render.Engine
	inbox  chan Message
	notes  chan Notification
	done   chan struct{}
	log    logrus.FieldLogger
}

// Option configures a Worker.
type Option func(w *Worker)

// WithLogger sets the logger. Without it the worker is silent.
func WithLogger(l logrus.FieldLogger) Option {
	return func(w *Worker) {
		w.log = l
	}
}

// WithInboxSize sets how many messages can wait before Send blocks.
func WithInboxSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.inbox = make(chan Message, n)
		}
	}
}

// NewWorker creates a worker. Call Run to start serving.
func NewWorker(options ...Option) *Worker {
	w := &Worker{
		id:    xid.New().String(),
		inbox: make(chan Message, defaultInboxSize),
		notes: make(chan Notification),
		done:  make(chan struct{}),
	}
	for _, option := range options {
		option(w)
	}
	w.log = logging.OrDiscard(w.log).WithField("worker", w.id)
	w.engine = render.NewEngine(w.log)
	return w
}

// ID returns the unique worker id used in log lines.
func (w *Worker) ID() string { return w.id }

// Notifications returns the channel notifications are delivered on. It is
// closed when Run returns.
func (w *Worker) Notifications() <-chan Notification { return w.notes }

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Send enqueues m. It blocks only while the inbox is full.
func (w *Worker) Send(ctx context.Context, m Message) error {
	select {
	case <-w.done:
		return ErrStopped
	default:
	}
	select {
	case w.inbox <- m:
		return nil
	case <-w.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View requests a braille rendering and waits for it.
func (w *Worker) View(ctx context.Context, cols, rows int) ([]string, error) {
	reply := make(chan []string, 1)
	if err := w.Send(ctx, RenderView{Cols: cols, Rows: rows, Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case lines := <-reply:
		return lines, nil
	case <-w.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run serves messages until ctx is done. Messages still in the inbox at
// that point are discarded along with the worker.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.notes)
	defer close(w.done)
	w.log.Debug("render worker started")

	var queue []Notification
	for {
		var out chan<- Notification
		var head Notification
		if len(queue) > 0 {
			out = w.notes
			head = queue[0]
		}

		select {
		case <-ctx.Done():
			w.log.WithField("undelivered", len(queue)).Debug("render worker stopped")
			return
		case m := <-w.inbox:
			if n := w.handle(m); n != nil {
				queue = append(queue, n)
			}
		case out <- head:
			queue[0] = nil
			queue = queue[1:]
		}
	}
}

func (w *Worker) handle(m Message) Notification {
	switch m := m.(type) {
	case InitSurfaces:
		if w.engine.Attached() {
			return w.fail(m, ErrAlreadyInitialized)
		}
		if m.Surfaces == nil {
			return w.fail(m, fmt.Errorf("init surfaces: %w", ErrNotInitialized))
		}
		w.engine.Attach(m.Surfaces)
		return nil

	case LoadImage:
		if !w.engine.Attached() {
			return w.fail(m, ErrNotInitialized)
		}
		loaded := w.engine.LoadImage(m.Image)
		return ImageLoaded{
			Values: loaded.Values,
			Width:  loaded.Width,
			Height: loaded.Height,
			Stats:  loaded.Stats,
		}

	case PointEdit:
		if !w.engine.Attached() {
			return w.fail(m, ErrNotInitialized)
		}
		edit, ok := w.engine.PointEdit(m.X, m.Y)
		return changed(edit, ok)

	case LineEdit:
		if !w.engine.Attached() {
			return w.fail(m, ErrNotInitialized)
		}
		edit, ok := w.engine.LineEdit(m.X, m.Y)
		return changed(edit, ok)

	case RenderView:
		lines := w.engine.View(m.Cols, m.Rows)
		select {
		case m.Reply <- lines:
		default:
			w.log.Warn("view reply channel full, reply discarded")
		}
		return nil

	default:
		return w.fail(m, fmt.Errorf("unknown message %T", m))
	}
}

func changed(edit render.Edit, ok bool) Notification {
	if !ok {
		return nil
	}
	return ValueRangeChanged{
		Start:  edit.Patch.Start,
		Values: edit.Patch.Values,
		Stats:  edit.Stats,
	}
}

func (w *Worker) fail(m Message, err error) Notification {
	w.log.WithError(err).WithField("message", fmt.Sprintf("%T", m)).Warn("message refused")
	return Failed{Message: m, Err: err}
}
