package output

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"collapsible/internal/attachments"
	"collapsible/internal/config"
	"collapsible/internal/panel"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// MarkdownRenderer renders the default slot. glamour's TermRenderer satisfies it.
type MarkdownRenderer interface {
	Render(string) (string, error)
}

// CLIRenderer renders panels for terminal display
type CLIRenderer struct {
	width      int
	mdRenderer MarkdownRenderer
}

const inlineReferencePreviewLimit = 48

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C792EA"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFCB6B"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#82AAFF"))
	codeStyle     = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#5C6370")).
			PaddingLeft(1)
	linkStyle  = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("#89DDFF"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0A0A0"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F07178"))
)

var branchIcons = map[attachments.Branch]string{
	attachments.BranchLoading:  "⏳",
	attachments.BranchImage:    "🖼",
	attachments.BranchAudio:    "🔊",
	attachments.BranchVideo:    "🎬",
	attachments.BranchDocument: "📄",
	attachments.BranchText:     "📝",
	attachments.BranchGeneric:  "📦",
}

// NewCLIRenderer creates a CLI renderer wrapping at width columns.
// A non-positive width disables wrapping and truncation.
func NewCLIRenderer(width int) *CLIRenderer {
	return NewCLIRendererWithMarkdown(width, nil)
}

// NewCLIRendererWithMarkdown allows tests to supply a lightweight markdown renderer.
func NewCLIRendererWithMarkdown(width int, md MarkdownRenderer) *CLIRenderer {
	renderer := &CLIRenderer{width: width}

	if md != nil {
		renderer.mdRenderer = md
		return renderer
	}

	// Set lipgloss to use stdout for color detection only when using the default renderer.
	lipgloss.SetColorProfile(lipgloss.NewRenderer(os.Stdout).ColorProfile())

	if defaultRenderer := buildDefaultMarkdownRenderer(width); defaultRenderer != nil {
		renderer.mdRenderer = defaultRenderer
	}

	return renderer
}

func buildDefaultMarkdownRenderer(width int) MarkdownRenderer {
	if width <= 0 {
		width = defaultOutputWidth
	}
	options := []glamour.TermRendererOption{
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	}

	if value, ok := config.DefaultEnvLookup("GLAMOUR_STYLE"); ok && value != "" {
		options = append(options, glamour.WithEnvironmentConfig())
	} else if term.IsTerminal(int(os.Stdout.Fd())) {
		options = append(options, glamour.WithAutoStyle())
	} else {
		options = append(options, glamour.WithStandardStyle("dark"))
	}

	mdRenderer, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return nil
	}
	return mdRenderer
}

// Target returns the output target
func (r *CLIRenderer) Target() OutputTarget {
	return TargetCLI
}

// RenderPanel renders the header line, the default slot and, while the
// panel is open and not hidden, the content slot.
func (r *CLIRenderer) RenderPanel(view panel.View) string {
	var out strings.Builder

	out.WriteString(r.renderHeader(view))
	out.WriteString("\n")

	if body := strings.TrimSpace(view.Body); body != "" {
		out.WriteString(r.renderMarkdown(body))
		out.WriteString("\n")
	}

	if view.ContentVisible() {
		if view.Arguments != "" {
			out.WriteString(sectionStyle.Render("Arguments"))
			out.WriteString("\n")
			out.WriteString(codeStyle.Render(view.Arguments))
			out.WriteString("\n")
		}
		if view.Result != "" {
			out.WriteString(sectionStyle.Render("Result"))
			out.WriteString("\n")
			out.WriteString(codeStyle.Render(view.Result))
			out.WriteString("\n")
		}
		for _, item := range view.Items {
			out.WriteString(r.renderItem(item))
			out.WriteString("\n")
		}
	}

	return ConstrainWidth(out.String(), r.width)
}

func (r *CLIRenderer) renderHeader(view panel.View) string {
	label := view.Label
	if label == "" {
		label = view.Title
	}

	var header strings.Builder
	if view.Chevron {
		if view.Open {
			header.WriteString("▾ ")
		} else {
			header.WriteString("▸ ")
		}
	}
	if view.Disabled {
		header.WriteString(disabledStyle.Render(label))
	} else {
		header.WriteString(headerStyle.Render(label))
	}
	if view.Pending > 0 {
		header.WriteString(" ")
		header.WriteString(pendingStyle.Render(fmt.Sprintf("(resolving %d)", view.Pending)))
	}
	return header.String()
}

func (r *CLIRenderer) renderItem(item attachments.Presentation) string {
	icon := branchIcons[item.Branch]
	target := r.describeReference(item)

	switch item.Branch {
	case attachments.BranchLoading:
		return fmt.Sprintf("%s %s %s", icon, pendingStyle.Render(item.Label), mutedStyle.Render(target))
	case attachments.BranchText:
		if item.Inline {
			return fmt.Sprintf("%s %s\n%s", icon, mutedStyle.Render(item.MimeType), codeStyle.Render(item.Text))
		}
		return fmt.Sprintf("%s %s %s", icon, item.Label, linkStyle.Render(item.URL))
	case attachments.BranchGeneric:
		if item.Inline {
			preview := item.Preview
			if item.Truncated {
				preview += "…"
			}
			return fmt.Sprintf("%s %s %s", icon, mutedStyle.Render(item.Label), preview)
		}
		return fmt.Sprintf("%s %s %s %s", icon, item.Label, linkStyle.Render(item.URL), mutedStyle.Render("("+item.DownloadName+")"))
	default:
		return fmt.Sprintf("%s %s %s", icon, string(item.Branch), linkStyle.Render(target))
	}
}

func (r *CLIRenderer) describeReference(item attachments.Presentation) string {
	if item.Inline {
		return truncateInlinePreview(item.Reference, inlineReferencePreviewLimit)
	}
	return item.URL
}

func (r *CLIRenderer) renderMarkdown(text string) string {
	if r.mdRenderer == nil {
		return text
	}
	rendered, err := r.mdRenderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(rendered, "\n")
}

// RenderProbeReports lists one line per probed reference.
func (r *CLIRenderer) RenderProbeReports(reports []ProbeReport) string {
	var out strings.Builder
	for _, report := range reports {
		ref := truncateInlinePreview(report.Reference, inlineReferencePreviewLimit)
		if report.Error != "" {
			out.WriteString(fmt.Sprintf("✗ %s %s\n", ref, errorStyle.Render(report.Error)))
			continue
		}
		mime := report.MimeType
		if mime == "" {
			mime = "unknown"
		}
		out.WriteString(fmt.Sprintf("✓ %s → %s %s %s\n",
			ref,
			sectionStyle.Render(mime),
			mutedStyle.Render("["+string(report.Branch)+"]"),
			mutedStyle.Render(formatLatency(report.Latency)),
		))
	}
	return ConstrainWidth(out.String(), r.width)
}

func formatLatency(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.Round(time.Millisecond).String()
}

func truncateInlinePreview(preview string, limit int) string {
	if limit <= 0 {
		return preview
	}

	if utf8.RuneCountInString(preview) <= limit {
		return preview
	}

	runes := []rune(preview)
	if limit == 1 {
		return string(runes[0])
	}

	return string(runes[:limit-1]) + "…"
}
