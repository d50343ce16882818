// Package feedback tells the user what the pipeline is doing without ever
// slowing it down. Events are queued by the hot paths and rendered (console
// plus optional chime and speech) on a dedicated worker.
package feedback

import (
	"sync"
)

// Kind classifies a feedback event.
type Kind int

const (
	// Triggered: the wake phrase was heard and the daemon is listening.
	Triggered Kind = iota

	// PartialTranscript: an interim STT hypothesis. Console only, never
	// spoken.
	PartialTranscript

	// NoSpeechDetected: listening timed out without any speech.
	NoSpeechDetected

	// RecognitionFailed: STT returned an error for the utterance.
	RecognitionFailed

	// CommandUnknown: the transcript did not match the grammar.
	CommandUnknown

	// DispatchSucceeded: the bot acknowledged the command.
	DispatchSucceeded

	// DispatchFailed: delivery failed after all retries.
	DispatchFailed
)

// Event is one pipeline occurrence to surface to the user.
type Event struct {
	Kind Kind

	// Text carries the transcript, command name, or error detail
	// depending on Kind.
	Text string

	// Song is set for successful play commands so the ack can name the
	// track.
	Song string
}

// Notifier is the pipeline-facing side of the queue.
type Notifier interface {
	Notify(ev Event)
}

// Queue decouples event production from rendering. Notify never blocks and
// never drops: events go into an unbounded slice under a mutex and a
// worker drains them in order.
type Queue struct {
	render func(Event)

	mu      sync.Mutex
	pending []Event
	closed  bool

	signal chan struct{}
	done   chan struct{}
}

var _ Notifier = (*Queue)(nil)

// NewQueue starts the rendering worker. render is called once per event,
// in Notify order, from a single goroutine.
func NewQueue(render func(Event)) *Queue {
	q := &Queue{
		render: render,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go q.loop()
	return q
}

// Notify enqueues ev. Safe for concurrent use; returns immediately.
func (q *Queue) Notify(ev Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, ev)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Close stops accepting events, renders everything already queued, and
// waits for the worker to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
	<-q.done
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		closed := q.closed
		q.mu.Unlock()

		for _, ev := range batch {
			q.render(ev)
		}

		if closed {
			// One more sweep in case Notify raced Close.
			q.mu.Lock()
			batch = q.pending
			q.pending = nil
			q.mu.Unlock()
			for _, ev := range batch {
				q.render(ev)
			}
			return
		}

		<-q.signal
	}
}
