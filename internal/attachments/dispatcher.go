package attachments

import (
	"strings"
	"unicode/utf8"
)

// Branch names the presentation selected for one attachment.
type Branch string

const (
	BranchNone     Branch = "none"
	BranchLoading  Branch = "loading"
	BranchImage    Branch = "image"
	BranchAudio    Branch = "audio"
	BranchVideo    Branch = "video"
	BranchDocument Branch = "document"
	BranchText     Branch = "text"
	BranchGeneric  Branch = "generic"
)

// DefaultPreviewLimit is the number of characters shown for inline data of an
// unrecognised type.
const DefaultPreviewLimit = 100

// Label keys handed to the Labeler.
const (
	LabelLoading     = "Loading..."
	LabelViewFile    = "View file"
	LabelDownload    = "Download file"
	LabelUnknownType = "Unknown file type"
)

// Presentation describes how one attachment is rendered.
type Presentation struct {
	Index     int    `json:"index"`
	Branch    Branch `json:"branch"`
	Reference string `json:"reference,omitempty"`
	URL       string `json:"url,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	Inline    bool   `json:"inline"`
	Text      string `json:"text,omitempty"`
	Preview   string `json:"preview,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	Label     string `json:"label,omitempty"`
	// DownloadName is set for branches rendered as a download link.
	DownloadName string `json:"download_name,omitempty"`
}

// Labeler localizes link and placeholder labels.
type Labeler interface {
	Translate(key string, placeholders map[string]string) string
}

type identityLabeler struct{}

func (identityLabeler) Translate(key string, _ map[string]string) string { return key }

// Dispatcher maps a resolved type to exactly one Branch. The decision uses
// only the loading flag and the type, never names or extensions.
type Dispatcher struct {
	BaseURL      string
	PreviewLimit int
	Labeler      Labeler
}

func (d Dispatcher) labeler() Labeler {
	if d.Labeler == nil {
		return identityLabeler{}
	}
	return d.Labeler
}

func (d Dispatcher) previewLimit() int {
	if d.PreviewLimit <= 0 {
		return DefaultPreviewLimit
	}
	return d.PreviewLimit
}

// SelectBranch applies the precedence without building a Presentation.
func SelectBranch(ref, mime string, loading bool) Branch {
	mime = strings.ToLower(mime)
	switch {
	case strings.TrimSpace(ref) == "":
		return BranchNone
	case loading:
		return BranchLoading
	case strings.HasPrefix(mime, "image/"):
		return BranchImage
	case strings.HasPrefix(mime, "audio/"):
		return BranchAudio
	case strings.HasPrefix(mime, "video/"):
		return BranchVideo
	case strings.Contains(mime, "pdf"):
		return BranchDocument
	case strings.HasPrefix(mime, "text/"), strings.Contains(mime, "json"), strings.Contains(mime, "xml"):
		return BranchText
	default:
		return BranchGeneric
	}
}

// Dispatch builds the presentation for the attachment at index.
func (d Dispatcher) Dispatch(index int, ref, mime string, loading bool) Presentation {
	mime = strings.ToLower(strings.TrimSpace(mime))
	p := Presentation{
		Index:     index,
		Branch:    SelectBranch(ref, mime, loading),
		Reference: ref,
		MimeType:  mime,
		Inline:    IsInlineData(ref),
	}
	if p.Branch == BranchNone {
		p.Reference = ""
		p.Inline = false
		return p
	}
	p.URL = Resolve(ref, d.BaseURL)
	labels := d.labeler()

	switch p.Branch {
	case BranchLoading:
		p.Label = labels.Translate(LabelLoading, nil)
	case BranchText:
		if p.Inline {
			p.Text = inlineText(ref)
		} else {
			p.Label = labels.Translate(LabelViewFile, nil)
		}
	case BranchDocument:
		p.DownloadName = DownloadName(index, ref, mime)
	case BranchGeneric:
		p.DownloadName = DownloadName(index, ref, mime)
		if p.Inline {
			p.Preview, p.Truncated = truncateRunes(ref, d.previewLimit())
			if declared := InlineMimeType(ref); declared != "" {
				p.Label = declared
			} else if mime != "" {
				p.Label = mime
			} else {
				p.Label = labels.Translate(LabelUnknownType, nil)
			}
		} else {
			p.Label = labels.Translate(LabelDownload, nil)
		}
	}
	return p
}

// DispatchAll presents every entry of state in order.
func (d Dispatcher) DispatchAll(state ResolutionState) []Presentation {
	out := make([]Presentation, 0, len(state.References))
	for i, ref := range state.References {
		var mime string
		var loading bool
		if i < len(state.MimeTypes) {
			mime = state.MimeTypes[i]
		}
		if i < len(state.Loading) {
			loading = state.Loading[i]
		}
		out = append(out, d.Dispatch(i, ref, mime, loading))
	}
	return out
}

func inlineText(ref string) string {
	payload, err := DecodeInline(ref)
	if err == nil {
		return string(payload)
	}
	if comma := strings.IndexByte(ref, ','); comma >= 0 {
		return ref[comma+1:]
	}
	return ""
}

func truncateRunes(value string, limit int) (string, bool) {
	if utf8.RuneCountInString(value) <= limit {
		return value, false
	}
	runes := []rune(value)
	return string(runes[:limit]), true
}
