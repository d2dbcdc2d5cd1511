package protocol

import (
	"regexp"
	"strings"
)

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ValidAddress reports whether s is a 0x-prefixed 40-hex-digit address.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// NormalizeAddress trims and lowercases an address for comparison and storage.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SameAddress compares two addresses case-insensitively.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// OtherParticipant extracts the non-self participant from a channel id of the
// form "addrA:addrB". The id is opaque and server-ordered; this only splits,
// it never re-derives the ordering. Returns "" if the id has no separator.
func OtherParticipant(channelID, self string) string {
	first, second, ok := strings.Cut(channelID, ":")
	if !ok {
		return ""
	}
	if SameAddress(first, self) {
		return second
	}
	return first
}
