package panel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"collapsible/internal/attachments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func waitResolved(t *testing.T, p *Panel) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))
}

type countingProber struct {
	mu    sync.Mutex
	calls int
	inner attachments.Prober
}

func (c *countingProber) Probe(ctx context.Context, ref string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Probe(ctx, ref)
}

func (c *countingProber) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// gatedProber holds every probe until gate closes and answers with mime.
type gatedProber struct {
	mime    string
	gate    chan struct{}
	entered chan struct{}
}

func newGatedProber(mime string) *gatedProber {
	return &gatedProber{mime: mime, gate: make(chan struct{}), entered: make(chan struct{}, 1)}
}

func (g *gatedProber) Probe(ctx context.Context, ref string) (string, error) {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	select {
	case <-g.gate:
		return g.mime, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type viewLog struct {
	mu    sync.Mutex
	views []View
}

func (l *viewLog) add(v View) {
	l.mu.Lock()
	l.views = append(l.views, v)
	l.mu.Unlock()
}

func (l *viewLog) all() []View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]View(nil), l.views...)
}

func TestToolCallPanelShowsDecodedInlineText(t *testing.T) {
	p := New(context.Background(), Options{
		Attributes: AttributeSet{
			Kind:  "tool_calls",
			Done:  strPtr("true"),
			Name:  "search",
			Files: `["data:text/plain;base64,aGVsbG8="]`,
		},
	}, Deps{BaseURL: "https://h"})
	defer p.Close()
	waitResolved(t, p)

	closed := p.View()
	assert.Equal(t, "View Result from search", closed.Label)
	assert.Empty(t, closed.Items, "content is hidden while closed")

	require.True(t, p.Toggle())
	view := p.View()
	assert.Equal(t, "View Result from search", view.Label)
	require.Len(t, view.Items, 1)
	assert.Equal(t, attachments.BranchText, view.Items[0].Branch)
	assert.Equal(t, "hello", view.Items[0].Text)
	assert.True(t, view.Resolved)
}

func TestPanelResolvesRemoteAttachments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a":
			w.Header().Set("Content-Type", "image/webp")
		case "/b":
			w.Header().Set("Content-Type", "application/pdf")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	p := New(context.Background(), Options{
		Open:       true,
		Attributes: AttributeSet{Files: `"[\"/a\", \"b\", \"missing\"]"`},
	}, Deps{BaseURL: server.URL})
	defer p.Close()
	waitResolved(t, p)

	view := p.View()
	require.Len(t, view.Items, 3)
	assert.Equal(t, attachments.BranchImage, view.Items[0].Branch)
	assert.Equal(t, server.URL+"/a", view.Items[0].URL)
	assert.Equal(t, attachments.BranchDocument, view.Items[1].Branch)
	assert.Equal(t, attachments.BranchGeneric, view.Items[2].Branch)
	assert.Equal(t, 0, view.Pending)
}

func TestPanelOnlyRestartsWhenFilesChange(t *testing.T) {
	prober := &countingProber{inner: attachments.NewHTTPProber("https://h")}
	attrs := AttributeSet{Kind: "tool_calls", Name: "run", Files: `["data:image/png;base64,AA=="]`}

	p := New(context.Background(), Options{Attributes: attrs}, Deps{Prober: prober})
	defer p.Close()
	waitResolved(t, p)
	require.Equal(t, 1, prober.count())
	firstGen := p.Resolution().Generation

	attrs.Done = strPtr("true")
	attrs.Files = `[ "data:image/png;base64,AA==" ]`
	p.Update(attrs)
	waitResolved(t, p)
	assert.Equal(t, 1, prober.count())
	assert.Equal(t, firstGen, p.Resolution().Generation)
	assert.Equal(t, "View Result from run", p.View().Label)

	attrs.Files = `["data:audio/wav;base64,AA=="]`
	p.Update(attrs)
	waitResolved(t, p)
	assert.Equal(t, 2, prober.count())
	assert.Greater(t, p.Resolution().Generation, firstGen)
}

func TestPanelToggleNotifiesHostAndSubscribers(t *testing.T) {
	var hostCalls []bool
	p := New(context.Background(), Options{
		Title:    "Sources",
		OnChange: func(open bool) { hostCalls = append(hostCalls, open) },
	}, Deps{})
	defer p.Close()
	waitResolved(t, p)

	var mu sync.Mutex
	var views []View
	cancel := p.Subscribe(func(v View) {
		mu.Lock()
		views = append(views, v)
		mu.Unlock()
	})

	require.True(t, p.Toggle())
	cancel()
	require.True(t, p.Toggle())

	assert.Equal(t, []bool{true, false}, hostCalls)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, views, 1)
	assert.True(t, views[0].Open)
	assert.Equal(t, "Sources", views[0].Label)
}

func TestDisabledPanelIgnoresToggle(t *testing.T) {
	called := false
	p := New(context.Background(), Options{
		Disabled: true,
		OnChange: func(bool) { called = true },
	}, Deps{})
	defer p.Close()

	assert.False(t, p.Toggle())
	assert.False(t, p.Open())
	assert.False(t, called)
}

func TestHiddenPanelKeepsContentSlotEmpty(t *testing.T) {
	p := New(context.Background(), Options{
		Open:       true,
		Hide:       true,
		Body:       "reasoning trace",
		Attributes: AttributeSet{Files: `["data:text/plain,hi"]`},
	}, Deps{})
	defer p.Close()
	waitResolved(t, p)

	view := p.View()
	assert.Empty(t, view.Items)
	assert.Equal(t, "reasoning trace", view.Body)
}

func TestInProgressToolCallFormatsPartialArguments(t *testing.T) {
	p := New(context.Background(), Options{
		Open: true,
		Attributes: AttributeSet{
			Kind:      "tool_calls",
			Done:      strPtr("false"),
			Name:      "search",
			Arguments: `{"query": "weather`,
			Result:    `"ignored"`,
		},
	}, Deps{})
	defer p.Close()

	view := p.View()
	assert.Equal(t, "Executing search...", view.Label)
	assert.Contains(t, view.Arguments, `"query"`)
	assert.Empty(t, view.Result)

	done := "true"
	p.Update(AttributeSet{
		Kind:      "tool_calls",
		Done:      &done,
		Name:      "search",
		Arguments: `{"query":"weather"}`,
		Result:    `"{\"temp\":21}"`,
	})
	view = p.View()
	assert.Equal(t, "{\n  \"query\": \"weather\"\n}", view.Arguments)
	assert.Equal(t, "{\n  \"temp\": 21\n}", view.Result)
}

func TestToggleDuringResolutionEndsOnResolvedView(t *testing.T) {
	prober := newGatedProber("image/png")
	p := New(context.Background(), Options{
		Title:      "Files",
		Attributes: AttributeSet{Files: `["https://h/a.png"]`},
	}, Deps{Prober: prober})
	defer p.Close()
	<-prober.entered

	var log viewLog
	holding := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p.Subscribe(func(v View) {
		log.add(v)
		if v.Open && !v.Resolved {
			once.Do(func() {
				close(holding)
				<-release
			})
		}
	})

	toggled := make(chan struct{})
	go func() {
		p.Toggle()
		close(toggled)
	}()
	<-holding

	// The resolution settles while the subscriber still holds the toggle view.
	close(prober.gate)
	waitResolved(t, p)
	close(release)
	<-toggled

	views := log.all()
	require.NotEmpty(t, views)
	last := views[len(views)-1]
	assert.True(t, last.Open)
	assert.True(t, last.Resolved)
	assert.Equal(t, 0, last.Pending)
	require.Len(t, last.Items, 1)
	assert.Equal(t, attachments.BranchImage, last.Items[0].Branch)
	for i := 1; i < len(views); i++ {
		assert.Greater(t, views[i].Revision, views[i-1].Revision)
	}
}

func TestSubscriberMayReadResolutionWhileResolving(t *testing.T) {
	prober := newGatedProber("application/pdf")
	p := New(context.Background(), Options{
		Open:       true,
		Attributes: AttributeSet{Files: `["https://h/a.pdf", "https://h/b.pdf"]`},
	}, Deps{Prober: prober})
	defer p.Close()
	<-prober.entered

	var mu sync.Mutex
	var states []attachments.ResolutionState
	p.Subscribe(func(View) {
		state := p.Resolution()
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
	})
	close(prober.gate)
	waitResolved(t, p)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, states)
	assert.True(t, states[len(states)-1].Done)
	assert.Equal(t, []string{"application/pdf", "application/pdf"}, states[len(states)-1].MimeTypes)
}

func TestSetDisabledPublishesOnlyOnChange(t *testing.T) {
	p := New(context.Background(), Options{Title: "Notes"}, Deps{})
	defer p.Close()
	waitResolved(t, p)

	var log viewLog
	p.Subscribe(log.add)

	p.SetDisabled(false)
	assert.Empty(t, log.all())

	p.SetDisabled(true)
	p.SetDisabled(true)
	views := log.all()
	require.Len(t, views, 1)
	assert.True(t, views[0].Disabled)
	assert.False(t, p.Toggle())
}
