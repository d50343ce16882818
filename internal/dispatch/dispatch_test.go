package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"jarvis/internal/intent"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSink struct {
	calls atomic.Int64
	errs  []error
}

func (f *fakeSink) Send(ctx context.Context, a Action) error {
	n := f.calls.Add(1)
	if int(n) <= len(f.errs) {
		return f.errs[n-1]
	}
	return nil
}

func TestDispatcher_UnknownSendsNothing(t *testing.T) {
	sink := &fakeSink{}
	d := NewDispatcher(sink, 2, time.Millisecond, testLogger())

	res := d.Dispatch(context.Background(), intent.Intent{Kind: intent.Unknown, Raw: "make me a sandwich"})
	if !res.NothingSent {
		t.Error("expected NothingSent for an unknown intent")
	}
	if sink.calls.Load() != 0 {
		t.Errorf("sink was called %d times", sink.calls.Load())
	}
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	sink := &fakeSink{errs: []error{
		&Error{Op: "play", Retryable: true, Err: errors.New("connection refused")},
	}}
	d := NewDispatcher(sink, 2, time.Millisecond, testLogger())

	res := d.Dispatch(context.Background(), intent.Intent{Kind: intent.Play, Song: "hamster dance"})
	if !res.OK {
		t.Fatalf("dispatch failed: %v", res.Reason)
	}
	if res.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", res.Attempts)
	}
}

func TestDispatcher_RetryBudgetIsBounded(t *testing.T) {
	failure := &Error{Op: "pause", Retryable: true, Err: errors.New("boom")}
	sink := &fakeSink{errs: []error{failure, failure, failure, failure, failure}}
	d := NewDispatcher(sink, 2, time.Millisecond, testLogger())

	res := d.Dispatch(context.Background(), intent.Intent{Kind: intent.Pause})
	if res.OK {
		t.Fatal("dispatch unexpectedly succeeded")
	}
	// retries=2 means at most 3 sink calls.
	if got := sink.calls.Load(); got != 3 {
		t.Errorf("sink called %d times, want 3", got)
	}
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
	if !res.Retryable {
		t.Error("exhausted retryable failure should stay classified retryable")
	}
}

func TestDispatcher_PermanentErrorStopsRetrying(t *testing.T) {
	sink := &fakeSink{errs: []error{
		&Error{Op: "play", Retryable: false, Err: errors.New("400 bad request")},
	}}
	d := NewDispatcher(sink, 5, time.Millisecond, testLogger())

	res := d.Dispatch(context.Background(), intent.Intent{Kind: intent.Play, Song: "x"})
	if res.OK {
		t.Fatal("dispatch unexpectedly succeeded")
	}
	if got := sink.calls.Load(); got != 1 {
		t.Errorf("sink called %d times, want 1", got)
	}
	if res.Retryable {
		t.Error("permanent failure reported as retryable")
	}
}

func TestHTTPSink_SendsBotContract(t *testing.T) {
	var gotPath string
	var gotBody botRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := NewHTTPSink(HTTPConfig{
		BaseURL:        srv.URL,
		GuildID:        "g1",
		UserID:         "u1",
		VoiceChannelID: "vc1",
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	if err := sink.Send(context.Background(), Action{Command: "play", Query: "hamster dance"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/play" {
		t.Errorf("path = %q, want /play", gotPath)
	}
	if gotBody.GuildID != "g1" || gotBody.UserID != "u1" || gotBody.VoiceChannelID != "vc1" {
		t.Errorf("identity fields = %+v", gotBody)
	}
	if gotBody.Options.Query != "hamster dance" {
		t.Errorf("query = %q", gotBody.Options.Query)
	}
}

func TestHTTPSink_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusRequestTimeout, true},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		sink, err := NewHTTPSink(HTTPConfig{BaseURL: srv.URL}, testLogger())
		if err != nil {
			t.Fatal(err)
		}

		sendErr := sink.Send(context.Background(), Action{Command: "pause"})
		srv.Close()

		if sendErr == nil {
			t.Errorf("status %d: expected an error", tt.status)
			continue
		}
		var de *Error
		if !errors.As(sendErr, &de) {
			t.Errorf("status %d: error is not *Error: %v", tt.status, sendErr)
			continue
		}
		if de.Retryable != tt.retryable {
			t.Errorf("status %d: Retryable = %v, want %v", tt.status, de.Retryable, tt.retryable)
		}
	}
}

func TestHTTPSink_ConnectionErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	sink, err := NewHTTPSink(HTTPConfig{BaseURL: srv.URL}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	sendErr := sink.Send(context.Background(), Action{Command: "stop"})
	var de *Error
	if !errors.As(sendErr, &de) || !de.Retryable {
		t.Errorf("connection failure not retryable: %v", sendErr)
	}
}

func TestDispatcher_StopIsIdempotent(t *testing.T) {
	var stops atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/stop" {
			stops.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := NewHTTPSink(HTTPConfig{BaseURL: srv.URL}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	d := NewDispatcher(sink, 2, time.Millisecond, testLogger())

	for i := 0; i < 2; i++ {
		if res := d.Dispatch(context.Background(), intent.Intent{Kind: intent.Stop}); !res.OK {
			t.Fatalf("stop %d failed: %v", i, res.Reason)
		}
	}
	if stops.Load() != 2 {
		t.Errorf("bot saw %d stop requests, want 2", stops.Load())
	}
}
