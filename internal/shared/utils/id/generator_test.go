package id

import (
	"context"
	"strings"
	"testing"
)

func TestNewCollapsibleIDIsPrefixedAndUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		value := NewCollapsibleID()
		if !strings.HasPrefix(value, "collapsible-") {
			t.Fatalf("expected collapsible prefix, got %q", value)
		}
		if _, dup := seen[value]; dup {
			t.Fatalf("duplicate id %q", value)
		}
		seen[value] = struct{}{}
	}
}

func TestPanelIDsAreTimeOrdered(t *testing.T) {
	first := NewPanelID()
	second := NewPanelID()
	if !strings.HasPrefix(first, "panel-") {
		t.Fatalf("expected panel prefix, got %q", first)
	}
	if first >= second {
		t.Fatalf("expected UUIDv7 ordering, got %q then %q", first, second)
	}
}

func TestPanelIDContextRoundTrip(t *testing.T) {
	ctx := WithPanelID(context.Background(), "collapsible-x")
	if got := PanelIDFromContext(ctx); got != "collapsible-x" {
		t.Fatalf("expected panel id on context, got %q", got)
	}
	if got := PanelIDFromContext(WithPanelID(context.Background(), "")); got != "" {
		t.Fatalf("expected empty id to be ignored, got %q", got)
	}
}
