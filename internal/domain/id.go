package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Orders created by this service get UUIDs. Orders carried over from the
// earlier document store keep their 24-digit hex ObjectId.
var legacyOrderIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// NewOrderID returns the id for a new order.
func NewOrderID() string {
	return uuid.New().String()
}

// ParseOrderID returns the canonical form of raw, or false when raw is
// neither a UUID nor a legacy ObjectId.
func ParseOrderID(raw string) (string, bool) {
	if IsLegacyOrderID(raw) {
		return strings.ToLower(raw), true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// IsLegacyOrderID reports whether id is a hex ObjectId.
func IsLegacyOrderID(id string) bool {
	return legacyOrderIDPattern.MatchString(id)
}
