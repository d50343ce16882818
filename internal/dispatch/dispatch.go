// Package dispatch delivers parsed commands to the music bot. The daemon
// fires intents at a Sink and the Dispatcher wraps the sink with bounded
// retry so one flaky request does not eat a command.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jarvis/internal/intent"
)

// Action is one wire-level command for the music bot.
type Action struct {
	// Command is the bot endpoint name ("play", "pause", ...).
	Command string

	// Query is the search string for play actions, empty otherwise.
	Query string
}

// actionFor maps intent kinds onto bot endpoints. Unknown has no action.
func actionFor(in intent.Intent) (Action, bool) {
	switch in.Kind {
	case intent.Play:
		return Action{Command: "play", Query: in.Song}, true
	case intent.NowPlaying:
		return Action{Command: "now-playing"}, true
	case intent.Pause:
		return Action{Command: "pause"}, true
	case intent.Resume:
		return Action{Command: "resume"}, true
	case intent.Next:
		return Action{Command: "next"}, true
	case intent.Clear:
		return Action{Command: "clear"}, true
	case intent.Stop:
		return Action{Command: "stop"}, true
	}
	return Action{}, false
}

// Error is a delivery failure with a retry classification. Network-level
// failures and throttling are retryable; the bot rejecting the request
// outright is not.
type Error struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result reports what happened to one intent.
type Result struct {
	// OK means the bot acknowledged the action.
	OK bool

	// NothingSent means the intent produced no action (Unknown). Not a
	// failure: the sink was never contacted.
	NothingSent bool

	// Reason carries the final error for failed deliveries.
	Reason error

	// Retryable reflects the classification of the final error.
	Retryable bool

	// Attempts is how many times the sink was called.
	Attempts int
}

// Sink delivers one action to the bot. Implementations classify their
// failures by returning *Error.
type Sink interface {
	Send(ctx context.Context, a Action) error
}

// Dispatcher retries a Sink with fixed backoff. Retries only apply to
// retryable failures; a permanent error stops the attempt loop at once.
type Dispatcher struct {
	sink    Sink
	retries int
	backoff time.Duration
	log     *slog.Logger
}

// NewDispatcher wraps sink with retry behavior. retries is the number of
// re-attempts after the first try, so the sink is called at most
// retries+1 times per intent.
func NewDispatcher(sink Sink, retries int, backoff time.Duration, log *slog.Logger) *Dispatcher {
	if retries < 0 {
		retries = 0
	}
	return &Dispatcher{sink: sink, retries: retries, backoff: backoff, log: log}
}

// Dispatch sends the intent's action and reports the outcome. Unknown
// intents short-circuit with NothingSent.
func (d *Dispatcher) Dispatch(ctx context.Context, in intent.Intent) Result {
	a, ok := actionFor(in)
	if !ok {
		return Result{NothingSent: true}
	}

	var last error
	attempts := 0
	for try := 0; try <= d.retries; try++ {
		if try > 0 {
			d.log.Warn("retrying dispatch",
				"command", a.Command,
				"attempt", try+1,
				"err", last,
			)
			select {
			case <-time.After(d.backoff):
			case <-ctx.Done():
				return Result{Reason: ctx.Err(), Attempts: attempts}
			}
		}

		attempts++
		err := d.sink.Send(ctx, a)
		if err == nil {
			d.log.Info("dispatched", "command", a.Command, "query", a.Query, "attempts", attempts)
			return Result{OK: true, Attempts: attempts}
		}
		last = err

		var de *Error
		if errors.As(err, &de) && !de.Retryable {
			return Result{Reason: err, Attempts: attempts}
		}
	}

	return Result{Reason: last, Retryable: true, Attempts: attempts}
}
