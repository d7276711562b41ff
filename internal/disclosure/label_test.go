package disclosure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestLabel(t *testing.T) {
	tests := []struct {
		name    string
		content Content
		title   string
		want    string
	}{
		{"reasoning not started", Content{Kind: KindReasoning}, "", "Thinking..."},
		{"reasoning in progress", Content{Kind: KindReasoning, Done: strPtr("false")}, "", "Thinking..."},
		{"reasoning short", Content{Kind: KindReasoning, Done: strPtr("true"), Duration: floatPtr(12)}, "", "Thought for 12 seconds"},
		{"reasoning fractional", Content{Kind: KindReasoning, Done: strPtr("true"), Duration: floatPtr(2.5)}, "", "Thought for 2.5 seconds"},
		{"reasoning minute", Content{Kind: KindReasoning, Done: strPtr("true"), Duration: floatPtr(75)}, "", "Thought for a minute"},
		{"reasoning minutes", Content{Kind: KindReasoning, Done: strPtr("true"), Duration: floatPtr(300)}, "", "Thought for 5 minutes"},
		{"reasoning no duration", Content{Kind: KindReasoning, Done: strPtr("true")}, "", "Thought for less than a second"},
		{"analyzing", Content{Kind: KindCodeInterpreter, Done: strPtr("false")}, "", "Analyzing..."},
		{"analyzed", Content{Kind: KindCodeInterpreter, Done: strPtr("true")}, "", "Analyzed"},
		{"executing", Content{Kind: KindToolCalls, Name: "search"}, "", "Executing search..."},
		{"tool result", Content{Kind: KindToolCalls, Done: strPtr("true"), Name: "search"}, "", "View Result from search"},
		{"generic", Content{Done: strPtr("true")}, "Sources", "Sources"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(tt.content, tt.title, nil, nil))
		})
	}
}

func TestLabelUsesCollaborators(t *testing.T) {
	var gotKey string
	var gotPlaceholders map[string]string
	tr := TranslatorFunc(func(key string, placeholders map[string]string) string {
		gotKey, gotPlaceholders = key, placeholders
		return "translated"
	})
	h := humanizerFunc(func(time.Duration) string { return "ages" })

	got := Label(Content{Kind: KindReasoning, Done: strPtr("true"), Duration: floatPtr(3600)}, "", tr, h)
	assert.Equal(t, "translated", got)
	assert.Equal(t, KeyThoughtFor, gotKey)
	assert.Equal(t, map[string]string{"DURATION": "ages"}, gotPlaceholders)
}

type humanizerFunc func(time.Duration) string

func (f humanizerFunc) Humanize(d time.Duration) string { return f(d) }

func TestEnglishHumanizer(t *testing.T) {
	h := EnglishHumanizer{}
	assert.Equal(t, "a minute", h.Humanize(60*time.Second))
	assert.Equal(t, "2 minutes", h.Humanize(100*time.Second))
	assert.Equal(t, "an hour", h.Humanize(time.Hour))
	assert.Equal(t, "3 hours", h.Humanize(3*time.Hour))
	assert.Equal(t, "a day", h.Humanize(30*time.Hour))
	assert.Equal(t, "10 days", h.Humanize(240*time.Hour))
}

func TestLoadCatalogOverridesEnglish(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("\"Thinking...\": \"Réflexion...\"\n\"View Result from {{NAME}}\": \"Résultat de {{NAME}}\"\n"), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "Réflexion...", catalog.Translate(KeyThinking, nil))
	assert.Equal(t, "Résultat de search", catalog.Translate(KeyViewResult, map[string]string{"NAME": "search"}))
	assert.Equal(t, "Analyzed", catalog.Translate(KeyAnalyzed, nil))
	assert.Equal(t, "not in catalog", catalog.Translate("not in catalog", nil))
}
