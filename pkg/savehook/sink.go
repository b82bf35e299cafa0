// Package savehook provides host-side consumers for the widget's save
// callback: somewhere to put each successful exchange once the widget reports
// it. None of these feed back into the widget.
package savehook

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/go-go-golems/chatwidget/pkg/session"
	"github.com/rs/zerolog/log"
)

// Record is a saved exchange as sinks see it.
type Record struct {
	session.SaveRecord
	SavedAt time.Time `json:"savedAt"`
}

// Sink stores or forwards saved exchanges.
type Sink interface {
	Save(ctx context.Context, rec Record) error
	Close() error
}

// Multi fans a record out to several sinks. Every sink is tried and the errors
// are joined.
type Multi []Sink

var _ Sink = Multi{}

func (m Multi) Save(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Dispatcher decouples the widget's event loop from sink I/O. The save
// callback it hands out only enqueues; a single worker drains the queue in
// order. When the queue is full the record is dropped and logged.
type Dispatcher struct {
	sink    Sink
	timeout time.Duration
	now     func() time.Time

	queue chan Record
	wg    sync.WaitGroup
	once  sync.Once
}

type DispatcherOption func(*Dispatcher)

func WithTimeout(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) { dp.timeout = d }
}

func WithQueueSize(n int) DispatcherOption {
	return func(dp *Dispatcher) {
		if n > 0 {
			dp.queue = make(chan Record, n)
		}
	}
}

func withNow(now func() time.Time) DispatcherOption {
	return func(dp *Dispatcher) { dp.now = now }
}

func NewDispatcher(sink Sink, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sink:    sink,
		timeout: 5 * time.Second,
		now:     time.Now,
		queue:   make(chan Record, 64),
	}
	for _, o := range opts {
		o(d)
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Func returns the callback to hand to the session.
func (d *Dispatcher) Func() session.SaveFunc {
	return func(r session.SaveRecord) {
		rec := Record{SaveRecord: r, SavedAt: d.now()}
		select {
		case d.queue <- rec:
		default:
			log.Warn().Str("user_id", r.UserID).Msg("savehook: queue full, dropping record")
		}
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for rec := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sink.Save(ctx, rec); err != nil {
			log.Warn().Err(err).Str("user_id", rec.UserID).Msg("savehook: sink failed")
		}
		cancel()
	}
}

// Close drains pending records, then closes the sink. The callback must not
// be called after Close.
func (d *Dispatcher) Close() error {
	var err error
	d.once.Do(func() {
		close(d.queue)
		d.wg.Wait()
		err = d.sink.Close()
	})
	return err
}
