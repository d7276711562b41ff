package id

import (
	"fmt"

	"github.com/google/uuid"
)

// NewCollapsibleID generates the identifier a panel uses to namespace nested content.
func NewCollapsibleID() string {
	return newIdentifier("collapsible")
}

// NewPanelID generates an identifier for panels registered with the preview server.
func NewPanelID() string {
	return newIdentifier("panel")
}

// newIdentifier prefers time-ordered UUIDv7 bodies and falls back to v4 when
// the clock source fails.
func newIdentifier(prefix string) string {
	body := NewUUIDv7()
	if body == "" {
		body = uuid.NewString()
	}
	return fmt.Sprintf("%s-%s", prefix, body)
}

// NewUUIDv7 exposes raw UUIDv7 generation for callers that need unprefixed identifiers.
func NewUUIDv7() string {
	uuidv7, err := uuid.NewV7()
	if err != nil {
		return ""
	}
	return uuidv7.String()
}
