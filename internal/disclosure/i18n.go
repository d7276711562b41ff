package disclosure

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Translator looks up a localized string and fills {{NAME}} placeholders.
type Translator interface {
	Translate(key string, placeholders map[string]string) string
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(key string, placeholders map[string]string) string

func (f TranslatorFunc) Translate(key string, placeholders map[string]string) string {
	return f(key, placeholders)
}

// Humanizer phrases a duration relative to now ("a minute", "3 hours").
type Humanizer interface {
	Humanize(d time.Duration) string
}

// Catalog is a key to template table. Missing keys translate to themselves.
type Catalog map[string]string

func (c Catalog) Translate(key string, placeholders map[string]string) string {
	template, ok := c[key]
	if !ok || template == "" {
		template = key
	}
	return Interpolate(template, placeholders)
}

// Merge returns a catalog with overrides applied on top of c.
func (c Catalog) Merge(overrides Catalog) Catalog {
	merged := make(Catalog, len(c)+len(overrides))
	for k, v := range c {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// Interpolate replaces every {{NAME}} in template with placeholders["NAME"].
func Interpolate(template string, placeholders map[string]string) string {
	if len(placeholders) == 0 || !strings.Contains(template, "{{") {
		return template
	}
	pairs := make([]string, 0, len(placeholders)*2)
	for name, value := range placeholders {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

var english = Catalog{
	KeyThinking:          "Thinking...",
	KeyThoughtFor:        "Thought for {{DURATION}}",
	KeyThoughtForSeconds: "Thought for {{DURATION}} seconds",
	KeyThoughtBriefly:    "Thought for less than a second",
	KeyAnalyzing:         "Analyzing...",
	KeyAnalyzed:          "Analyzed",
	KeyExecuting:         "Executing {{NAME}}...",
	KeyViewResult:        "View Result from {{NAME}}",
	"Loading...":         "Loading...",
	"View file":          "View file",
	"Download file":      "Download file",
	"Unknown file type":  "Unknown file type",
}

// English returns a copy of the built-in catalog.
func English() Catalog {
	return english.Merge(nil)
}

// LoadCatalog reads a YAML (or JSON) key/template map and layers it over the
// English catalog.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var entries map[string]string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return English().Merge(entries), nil
}

// EnglishHumanizer uses the usual relative-time thresholds: under 45s is "a
// few seconds", under 90s "a minute", and so on up to years.
type EnglishHumanizer struct{}

func (EnglishHumanizer) Humanize(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	seconds := d.Seconds()
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case seconds < 45:
		return "a few seconds"
	case seconds < 90:
		return "a minute"
	case minutes < 45:
		return plural(minutes, "minutes")
	case minutes < 90:
		return "an hour"
	case hours < 22:
		return plural(hours, "hours")
	case hours < 36:
		return "a day"
	case days < 26:
		return plural(days, "days")
	case days < 46:
		return "a month"
	case days < 320:
		return plural(days/30.4, "months")
	case days < 548:
		return "a year"
	default:
		return plural(days/365, "years")
	}
}

func plural(value float64, unit string) string {
	n := int(math.Max(2, math.Round(value)))
	return fmt.Sprintf("%d %s", n, unit)
}
