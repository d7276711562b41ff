package attachments

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

const inlineScheme = "data:"

// Kind is the coarse classification of an attachment reference.
type Kind string

const (
	KindEmpty  Kind = "empty"
	KindInline Kind = "inline"
	KindRemote Kind = "remote"
)

// Classify reports whether ref is empty, inline data or a remote address.
func Classify(ref string) Kind {
	switch {
	case strings.TrimSpace(ref) == "":
		return KindEmpty
	case IsInlineData(ref):
		return KindInline
	default:
		return KindRemote
	}
}

// IsInlineData reports whether ref is a data: URI.
func IsInlineData(ref string) bool {
	return hasPrefixFold(ref, inlineScheme)
}

// IsAbsolute reports whether ref carries an explicit http(s) scheme.
func IsAbsolute(ref string) bool {
	return hasPrefixFold(ref, "http://") || hasPrefixFold(ref, "https://")
}

// Resolve turns a relative reference into an address under base. Inline and
// absolute references are returned unchanged. Exactly one "/" separates base
// and ref whatever slashes either side already carries.
func Resolve(ref, base string) string {
	if IsInlineData(ref) || IsAbsolute(ref) {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}

// InlineMimeType returns the media type declared by a data: URI, or "" when
// ref is not inline data or declares none.
func InlineMimeType(ref string) string {
	if !IsInlineData(ref) {
		return ""
	}
	meta := ref[len(inlineScheme):]
	if end := strings.IndexAny(meta, ";,"); end >= 0 {
		meta = meta[:end]
	}
	return strings.TrimSpace(meta)
}

// DecodeInline returns the payload of a data: URI, base64-decoding it when the
// URI says so and percent-decoding it otherwise.
func DecodeInline(ref string) ([]byte, error) {
	if !IsInlineData(ref) {
		return nil, fmt.Errorf("not a data URI")
	}
	header, payload, ok := strings.Cut(ref[len(inlineScheme):], ",")
	if !ok {
		return nil, fmt.Errorf("data URI has no payload separator")
	}

	base64Encoded := false
	for _, segment := range strings.Split(header, ";") {
		if strings.EqualFold(strings.TrimSpace(segment), "base64") {
			base64Encoded = true
			break
		}
	}

	if !base64Encoded {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URI payload: %w", err)
		}
		return []byte(decoded), nil
	}

	payload = strings.TrimSpace(payload)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if decoded, err := enc.DecodeString(payload); err == nil {
			return decoded, nil
		}
	}
	return nil, fmt.Errorf("decode data URI payload: invalid base64")
}

func hasPrefixFold(value, prefix string) bool {
	return len(value) >= len(prefix) && strings.EqualFold(value[:len(prefix)], prefix)
}
