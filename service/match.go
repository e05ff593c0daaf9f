package service

import (
	"context"
	"errors"

	"github.com/AnTengye/fleetdocs/model"
	"github.com/AnTengye/fleetdocs/store"
)

var (
	// ErrNoMatch means no registered vehicle carries the identifier suffix.
	ErrNoMatch = errors.New("no registered vehicle for identifier")
	// ErrAmbiguousIdentifier means more than one vehicle carries the
	// suffix. The pipeline never picks one arbitrarily; ambiguous
	// documents go to the resolution queue.
	ErrAmbiguousIdentifier = errors.New("identifier matches more than one vehicle")
)

// Matcher resolves a normalized identifier to exactly one vehicle record.
// Matching compares only the trailing characters of the stored chassis
// number: the leading characters of a stamped identifier are the ones OCR
// gets wrong, and the last few are a practical uniqueness key at fleet
// scale.
type Matcher struct {
	registry     store.Registry
	suffixLength int
}

func NewMatcher(registry store.Registry, suffixLength int) *Matcher {
	if suffixLength <= 0 {
		suffixLength = 6
	}
	return &Matcher{registry: registry, suffixLength: suffixLength}
}

// Match looks up the vehicle whose chassis number ends with the last
// suffixLength characters of the given normalized identifier.
func (m *Matcher) Match(ctx context.Context, identifier string) (*model.Vehicle, error) {
	suffix := identifier
	if len(suffix) > m.suffixLength {
		suffix = suffix[len(suffix)-m.suffixLength:]
	}

	vehicles, err := m.registry.FindByIdentifierSuffix(ctx, suffix)
	if err != nil {
		return nil, err
	}

	switch len(vehicles) {
	case 0:
		return nil, ErrNoMatch
	case 1:
		return &vehicles[0], nil
	default:
		return nil, ErrAmbiguousIdentifier
	}
}
