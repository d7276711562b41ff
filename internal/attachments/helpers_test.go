package attachments

import (
	"context"
	"sync"
	"time"
)

// fakeProber answers from a fixed table and counts calls per reference.
type fakeProber struct {
	mu      sync.Mutex
	types   map[string]string
	errs    map[string]error
	calls   map[string]int
	aborted map[string]int
	delay   time.Duration
	gate    chan struct{}
	entered chan string
}

func newFakeProber(types map[string]string) *fakeProber {
	return &fakeProber{
		types:   types,
		errs:    map[string]error{},
		calls:   map[string]int{},
		aborted: map[string]int{},
	}
}

func (f *fakeProber) Probe(ctx context.Context, ref string) (string, error) {
	f.mu.Lock()
	f.calls[ref]++
	gate := f.gate
	entered := f.entered
	delay := f.delay
	err := f.errs[ref]
	mime := f.types[ref]
	f.mu.Unlock()

	if Classify(ref) == KindInline {
		return InlineMimeType(ref), nil
	}
	if entered != nil {
		select {
		case entered <- ref:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", f.abort(ctx, ref)
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", f.abort(ctx, ref)
		}
	}
	if err != nil {
		return "", err
	}
	return mime, nil
}

func (f *fakeProber) abort(ctx context.Context, ref string) error {
	f.mu.Lock()
	f.aborted[ref]++
	f.mu.Unlock()
	return ctx.Err()
}

// abortedCount reports how many probes for ref saw their context end.
func (f *fakeProber) abortedCount(ref string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aborted[ref]
}

func (f *fakeProber) callCount(ref string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[ref]
}

// snapshotRecorder collects every state published by a Sequencer.
type snapshotRecorder struct {
	mu     sync.Mutex
	states []ResolutionState
}

func (r *snapshotRecorder) record(state ResolutionState) {
	r.mu.Lock()
	r.states = append(r.states, state)
	r.mu.Unlock()
}

func (r *snapshotRecorder) all() []ResolutionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ResolutionState(nil), r.states...)
}
