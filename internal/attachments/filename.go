package attachments

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var fileSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFileName converts a candidate name into a filesystem-safe value.
// The media type backfills the extension when the name has none.
func SanitizeFileName(candidate, mediaType string) string {
	name := strings.TrimSpace(candidate)
	if name == "" {
		return ""
	}
	name = path.Base(name)
	name = strings.Trim(fileSanitizer.ReplaceAllString(name, "_"), "._")
	if name == "" {
		return ""
	}
	if !strings.Contains(name, ".") {
		name += InferExtension(mediaType)
	}
	return name
}

// InferExtension returns the conventional extension, dot included, for
// mediaType or "" when it is unknown.
func InferExtension(mediaType string) string {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if semi := strings.IndexByte(mediaType, ';'); semi >= 0 {
		mediaType = strings.TrimSpace(mediaType[:semi])
	}
	if mediaType == "" {
		return ""
	}
	if m := mimetype.Lookup(mediaType); m != nil {
		return m.Extension()
	}
	return ""
}

// DownloadName suggests the file name offered by a download link. Remote
// references keep the last path segment; inline data is named by position.
func DownloadName(index int, ref, mediaType string) string {
	if !IsInlineData(ref) {
		if u, err := url.Parse(ref); err == nil {
			if name := SanitizeFileName(u.Path, mediaType); name != "" {
				return name
			}
		}
	}
	return fmt.Sprintf("attachment-%d%s", index+1, InferExtension(mediaType))
}
