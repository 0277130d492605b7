package telemetry

import (
	"context"
	"sync"

	"ethmon/pkg/log"
)

const defaultQueueSize = 256

// Dispatcher decouples connectors from slow sinks. Emit never blocks: when
// the queue is full the event is dropped.
type Dispatcher struct {
	sink  Sink
	queue chan Event
	wg    sync.WaitGroup
	once  sync.Once
}

// NewDispatcher wraps sink with a bounded queue and starts its worker.
func NewDispatcher(sink Sink, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &Dispatcher{
		sink:  sink,
		queue: make(chan Event, queueSize),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Emit implements Sink.
func (d *Dispatcher) Emit(_ context.Context, event Event) error {
	select {
	case d.queue <- event:
	default:
		log.Warn().
			Str("category", event.Category).
			Interface("name", event.Fields["name"]).
			Msg("Telemetry queue full, dropping event")
	}
	return nil
}

// Close stops accepting events and waits for queued ones to be delivered.
// Emit must not be called after Close.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for event := range d.queue {
		if err := d.sink.Emit(context.Background(), event); err != nil {
			log.Warn().
				Err(err).
				Str("category", event.Category).
				Interface("name", event.Fields["name"]).
				Msg("Failed to ship telemetry event")
		}
	}
}
