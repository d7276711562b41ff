package attachments

import (
	"context"
	"sync"

	perrors "collapsible/internal/errors"
	"collapsible/internal/observability"
	"collapsible/internal/shared/logging"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ResolutionState is the per-index outcome of one resolution sequence.
// MimeTypes and Loading are always as long as References.
type ResolutionState struct {
	Generation uint64   `json:"generation"`
	Version    uint64   `json:"version"`
	References []string `json:"references"`
	MimeTypes  []string `json:"mime_types"`
	Loading    []bool   `json:"loading"`
	Done       bool     `json:"done"`
}

func newResolutionState(generation uint64, refs []string) ResolutionState {
	return ResolutionState{
		Generation: generation,
		References: append([]string(nil), refs...),
		MimeTypes:  make([]string, len(refs)),
		Loading:    make([]bool, len(refs)),
		Done:       len(refs) == 0,
	}
}

// Clone returns a deep copy safe to hand to readers.
func (s ResolutionState) Clone() ResolutionState {
	return ResolutionState{
		Generation: s.Generation,
		Version:    s.Version,
		References: append([]string(nil), s.References...),
		MimeTypes:  append([]string(nil), s.MimeTypes...),
		Loading:    append([]bool(nil), s.Loading...),
		Done:       s.Done,
	}
}

// LoadingCount returns how many entries are currently in flight.
func (s ResolutionState) LoadingCount() int {
	count := 0
	for _, loading := range s.Loading {
		if loading {
			count++
		}
	}
	return count
}

// Sequencer resolves a reference list one index at a time. Starting a new
// sequence supersedes the running one: its context is cancelled and any write
// it attempts afterwards is discarded.
//
// Snapshots are delivered outside the sequencer lock, one at a time and in
// version order; a snapshot overtaken by a newer one before delivery is
// skipped. The update callback may call Snapshot, Start or Stop but must not
// Wait, since it can run on the sequence goroutine.
type Sequencer struct {
	prober   Prober
	logger   logging.Logger
	metrics  *observability.PanelMetrics
	tracer   trace.Tracer
	onUpdate func(ResolutionState)

	mu         sync.Mutex
	generation uint64
	state      ResolutionState
	version    uint64
	cancel     context.CancelFunc
	done       chan struct{}

	pubMu      sync.Mutex
	pending    *ResolutionState
	delivering bool
	delivered  uint64
}

type SequencerOption func(*Sequencer)

func WithSequencerLogger(logger logging.Logger) SequencerOption {
	return func(s *Sequencer) {
		s.logger = logging.OrNop(logger)
	}
}

func WithPanelMetrics(metrics *observability.PanelMetrics) SequencerOption {
	return func(s *Sequencer) {
		s.metrics = metrics
	}
}

func WithSequencerTracer(tracer trace.Tracer) SequencerOption {
	return func(s *Sequencer) {
		s.tracer = tracer
	}
}

// WithUpdateFunc registers the observer receiving every state snapshot.
func WithUpdateFunc(fn func(ResolutionState)) SequencerOption {
	return func(s *Sequencer) {
		s.onUpdate = fn
	}
}

func NewSequencer(prober Prober, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		prober: prober,
		logger: logging.Nop(),
		state:  newResolutionState(0, nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins resolving refs and returns the new generation.
func (s *Sequencer) Start(ctx context.Context, refs []string) uint64 {
	s.mu.Lock()
	s.supersedeLocked()
	s.generation++
	gen := s.generation
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.state = newResolutionState(gen, refs)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	s.metrics.SequenceStarted()
	go s.run(runCtx, gen, append([]string(nil), refs...), done)
	return gen
}

// Stop abandons the running sequence, if any. In-flight entries are reported
// as no longer loading.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	s.supersedeLocked()
	s.generation++
	s.cancel = nil
	if s.state.LoadingCount() == 0 {
		s.mu.Unlock()
		return
	}
	for i := range s.state.Loading {
		s.state.Loading[i] = false
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

func (s *Sequencer) supersedeLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	if !s.state.Done {
		s.metrics.SequenceSuperseded()
		s.logger.Debug("Superseding resolution generation %d", s.state.Generation)
	}
}

// Snapshot returns a copy of the current state.
func (s *Sequencer) Snapshot() ResolutionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Wait blocks until the current sequence finishes or ctx is done.
func (s *Sequencer) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sequencer) run(ctx context.Context, gen uint64, refs []string, done chan struct{}) {
	defer close(done)

	ctx, span := observability.StartSpan(ctx, s.tracer, observability.SpanResolveAll,
		attribute.Int(observability.AttrRefCount, len(refs)))
	defer span.End()

	for i, ref := range refs {
		if ctx.Err() != nil {
			return
		}
		switch Classify(ref) {
		case KindEmpty:
			continue
		case KindInline:
			mime, _ := s.prober.Probe(ctx, ref)
			if !s.update(gen, func(state *ResolutionState) {
				state.MimeTypes[i] = mime
			}) {
				return
			}
			recordResolved(span, i, mime)
		case KindRemote:
			if !s.update(gen, func(state *ResolutionState) {
				state.Loading[i] = true
			}) {
				return
			}
			mime, err := s.prober.Probe(ctx, ref)
			s.logProbeError(i, ref, err)
			if !s.update(gen, func(state *ResolutionState) {
				state.Loading[i] = false
				state.MimeTypes[i] = mime
			}) {
				return
			}
			recordResolved(span, i, mime)
		}
	}

	s.update(gen, func(state *ResolutionState) {
		state.Done = true
	})
}

func recordResolved(span trace.Span, index int, mime string) {
	span.AddEvent(observability.EventAttachmentResolved, trace.WithAttributes(
		attribute.Int(observability.AttrRefIndex, index),
		attribute.String(observability.AttrMimeType, mime),
	))
}

func (s *Sequencer) logProbeError(index int, ref string, err error) {
	switch {
	case err == nil:
	case perrors.IsCancellation(err):
		s.logger.Debug("Probe for attachment %d cancelled", index)
	default:
		s.logger.Warn("Probe for attachment %d (%s) failed [%s]: %v", index, ref, perrors.GetErrorType(err), err)
	}
}

// update applies mutate if gen is still current and publishes the result.
func (s *Sequencer) update(gen uint64, mutate func(*ResolutionState)) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return false
	}
	mutate(&s.state)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return true
}

func (s *Sequencer) snapshotLocked() ResolutionState {
	s.version++
	s.state.Version = s.version
	return s.state.Clone()
}

// publish hands snap to the update callback. Concurrent publishers leave
// their snapshot with whichever caller is already delivering.
func (s *Sequencer) publish(snap ResolutionState) {
	if s.onUpdate == nil {
		return
	}
	s.pubMu.Lock()
	if s.pending == nil || snap.Version > s.pending.Version {
		s.pending = &snap
	}
	if s.delivering {
		s.pubMu.Unlock()
		return
	}
	s.delivering = true
	for s.pending != nil {
		next := *s.pending
		s.pending = nil
		if next.Version <= s.delivered {
			continue
		}
		s.delivered = next.Version
		s.pubMu.Unlock()
		s.onUpdate(next)
		s.pubMu.Lock()
	}
	s.delivering = false
	s.pubMu.Unlock()
}
