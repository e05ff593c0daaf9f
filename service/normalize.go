package service

import (
	"errors"
	"strings"
)

const (
	// Chassis numbers shorter than this are treated as absent and the
	// plate-like fallback field is consulted instead.
	minPrimaryLength = 5
	// The fallback is accepted only above this length; a plate number on
	// its own is never a full identifier.
	minFallbackLength = 10
	// No candidate below this length ever reaches the registry.
	minIdentifierLength = 10
)

// ErrIdentifierNotRecognized means neither the primary nor the fallback
// field yielded a usable identifier.
var ErrIdentifierNotRecognized = errors.New("identifier not recognized")

// NormalizeIdentifier strips everything but letters and digits and
// uppercases the rest.
func NormalizeIdentifier(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		}
	}
	return b.String()
}

// ResolveIdentifier picks the identifier candidate for a document from the
// extractor's primary (chassis) field, falling back to the secondary
// plate-like field when the primary is missing or too short. Extraction of
// the leading characters is the failure-prone part, so length is the only
// quality signal applied here.
func ResolveIdentifier(primary, fallback string) (string, error) {
	candidate := NormalizeIdentifier(primary)
	if len(candidate) < minPrimaryLength {
		derived := NormalizeIdentifier(fallback)
		if len(derived) > minFallbackLength {
			candidate = derived
		}
	}
	if len(candidate) < minIdentifierLength {
		return "", ErrIdentifierNotRecognized
	}
	return candidate, nil
}
