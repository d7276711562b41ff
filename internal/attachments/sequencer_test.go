package attachments

import (
	"context"
	"testing"
	"time"

	"collapsible/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func waitSequence(t *testing.T, seq *Sequencer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, seq.Wait(ctx))
}

func TestSequencerProbesRemoteReferencesOneAtATime(t *testing.T) {
	refs := []string{"https://h/a", "https://h/b", "https://h/c", "https://h/d"}
	fake := newFakeProber(map[string]string{
		"https://h/a": "image/png",
		"https://h/b": "audio/mpeg",
		"https://h/c": "",
		"https://h/d": "application/pdf",
	})
	fake.delay = 5 * time.Millisecond

	var recorder snapshotRecorder
	seq := NewSequencer(fake, WithUpdateFunc(recorder.record))
	seq.Start(context.Background(), refs)
	waitSequence(t, seq)

	states := recorder.all()
	require.NotEmpty(t, states)
	sawLoading := make([]bool, len(refs))
	for _, state := range states {
		assert.LessOrEqual(t, state.LoadingCount(), 1)
		for i, loading := range state.Loading {
			if loading {
				sawLoading[i] = true
				assert.Empty(t, state.MimeTypes[i], "type must not appear before the probe completes")
			}
		}
	}
	assert.Equal(t, []bool{true, true, true, true}, sawLoading)

	final := seq.Snapshot()
	assert.True(t, final.Done)
	assert.Equal(t, []bool{false, false, false, false}, final.Loading)
	assert.Equal(t, []string{"image/png", "audio/mpeg", "", "application/pdf"}, final.MimeTypes)
}

func TestSequencerResolvesInlineDataWithoutLoading(t *testing.T) {
	refs := []string{"data:text/plain;base64,aGVsbG8=", "", "https://h/x"}
	fake := newFakeProber(map[string]string{"https://h/x": "video/mp4"})

	var recorder snapshotRecorder
	seq := NewSequencer(fake, WithUpdateFunc(recorder.record))
	seq.Start(context.Background(), refs)
	waitSequence(t, seq)

	for _, state := range recorder.all() {
		assert.False(t, state.Loading[0], "inline data is never loading")
		assert.False(t, state.Loading[1], "empty references are skipped")
	}
	assert.Equal(t, []string{"text/plain", "", "video/mp4"}, seq.Snapshot().MimeTypes)
	assert.Equal(t, 0, fake.callCount(""))
}

func TestSequencerSupersedesRunningSequence(t *testing.T) {
	fake := newFakeProber(map[string]string{"https://h/old": "image/png"})
	fake.gate = make(chan struct{})
	fake.entered = make(chan string, 1)

	var recorder snapshotRecorder
	seq := NewSequencer(fake, WithUpdateFunc(recorder.record))
	first := seq.Start(context.Background(), []string{"https://h/old", "https://h/old2"})

	select {
	case <-fake.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first sequence never started probing")
	}

	second := seq.Start(context.Background(), []string{"data:image/gif;base64,R0lGOD=="})
	require.Greater(t, second, first)
	waitSequence(t, seq)
	close(fake.gate)
	time.Sleep(20 * time.Millisecond)

	states := recorder.all()
	sawSecond := false
	for _, state := range states {
		if state.Generation == second {
			sawSecond = true
			continue
		}
		assert.False(t, sawSecond, "stale generation %d published after %d started", state.Generation, second)
	}

	final := seq.Snapshot()
	assert.Equal(t, second, final.Generation)
	assert.Equal(t, []string{"image/gif"}, final.MimeTypes)
	assert.Equal(t, 0, fake.callCount("https://h/old2"))
}

func TestSequencerEmptyListIsImmediatelyDone(t *testing.T) {
	seq := NewSequencer(newFakeProber(nil))
	seq.Start(context.Background(), nil)
	waitSequence(t, seq)

	state := seq.Snapshot()
	assert.True(t, state.Done)
	assert.Empty(t, state.References)
}

func TestSequencerStopClearsLoadingFlags(t *testing.T) {
	fake := newFakeProber(nil)
	fake.gate = make(chan struct{})
	fake.entered = make(chan string, 1)
	defer close(fake.gate)

	seq := NewSequencer(fake)
	seq.Start(context.Background(), []string{"https://h/slow"})
	<-fake.entered
	require.Equal(t, 1, seq.Snapshot().LoadingCount())

	seq.Stop()
	assert.Equal(t, 0, seq.Snapshot().LoadingCount())
	waitSequence(t, seq)
	assert.Equal(t, 0, seq.Snapshot().LoadingCount())
}

func TestSequencerUpdateCallbackMayReadSnapshot(t *testing.T) {
	fake := newFakeProber(map[string]string{"https://h/a": "image/png", "https://h/b": "audio/ogg"})

	var seq *Sequencer
	var seen []ResolutionState
	seq = NewSequencer(fake, WithUpdateFunc(func(state ResolutionState) {
		current := seq.Snapshot()
		assert.GreaterOrEqual(t, current.Version, state.Version)
		seen = append(seen, state)
	}))
	seq.Start(context.Background(), []string{"https://h/a", "https://h/b"})
	waitSequence(t, seq)

	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i].Version, seen[i-1].Version)
	}
	assert.True(t, seen[len(seen)-1].Done)
}

func TestSequencerUpdateCallbackMayStopSequence(t *testing.T) {
	fake := newFakeProber(nil)
	fake.gate = make(chan struct{})
	defer close(fake.gate)

	var seq *Sequencer
	var recorder snapshotRecorder
	seq = NewSequencer(fake, WithUpdateFunc(func(state ResolutionState) {
		recorder.record(state)
		if state.LoadingCount() > 0 {
			seq.Stop()
		}
	}))
	seq.Start(context.Background(), []string{"https://h/slow", "https://h/never"})
	waitSequence(t, seq)

	states := recorder.all()
	require.NotEmpty(t, states)
	last := states[len(states)-1]
	assert.Equal(t, 0, last.LoadingCount())
	assert.False(t, last.Done)
	assert.Equal(t, 0, fake.callCount("https://h/never"))
}

func TestSequencerRecordsResolvedIndexesOnSpan(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	fake := newFakeProber(map[string]string{"https://h/a": "image/png"})
	seq := NewSequencer(fake, WithSequencerTracer(provider.Tracer("test")))
	seq.Start(context.Background(), []string{"", "https://h/a"})
	waitSequence(t, seq)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	events := ended[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, observability.EventAttachmentResolved, events[0].Name)
	assert.Contains(t, events[0].Attributes, attribute.Int(observability.AttrRefIndex, 1))
	assert.Contains(t, events[0].Attributes, attribute.String(observability.AttrMimeType, "image/png"))
}
