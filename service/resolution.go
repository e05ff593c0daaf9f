package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnTengye/fleetdocs/model"
)

// Corrected identifiers typed by an operator only need to cover the match
// suffix, not a full chassis number.
const minRematchLength = 6

// ErrQueueClosed is returned by transitions on a closed or drained queue.
var ErrQueueClosed = errors.New("resolution queue is closed")

// ResolutionQueue presents unmatched documents one at a time for human
// adjudication. It is a plain state machine over the failure queue: a
// cursor over the items plus a closed flag, with transitions that either
// advance the cursor or leave the current item presented with an error.
// It knows nothing about how it is rendered.
type ResolutionQueue struct {
	matcher *Matcher
	merger  *Merger
	items   []model.FailedMatchItem
	cursor  int
	closed  bool
}

func NewResolutionQueue(items []model.FailedMatchItem, matcher *Matcher, merger *Merger) *ResolutionQueue {
	return &ResolutionQueue{
		matcher: matcher,
		merger:  merger,
		items:   items,
	}
}

// Current returns the presented item, or false when the queue is done.
func (q *ResolutionQueue) Current() (*model.FailedMatchItem, bool) {
	if q.Done() {
		return nil, false
	}
	return &q.items[q.cursor], true
}

// Done reports whether the queue is closed or drained.
func (q *ResolutionQueue) Done() bool {
	return q.closed || q.cursor >= len(q.items)
}

// Progress returns the zero-based cursor and the total item count.
func (q *ResolutionQueue) Progress() (int, int) {
	return q.cursor, len(q.items)
}

// Rematch re-runs the vehicle matcher with an operator-corrected
// identifier. On a match the merger runs and the cursor advances; on any
// failure the item stays presented and the error is returned.
func (q *ResolutionQueue) Rematch(ctx context.Context, identifier string) (string, error) {
	item, ok := q.Current()
	if !ok {
		return "", ErrQueueClosed
	}

	normalized := NormalizeIdentifier(identifier)
	if len(normalized) < minRematchLength {
		return "", fmt.Errorf("corrected identifier needs at least %d usable characters", minRematchLength)
	}

	vehicle, err := q.matcher.Match(ctx, normalized)
	if err != nil {
		return "", err
	}

	outcome, err := q.merger.Merge(ctx, vehicle, itemDocument(item))
	if err != nil {
		return "", err
	}

	q.cursor++
	return outcome, nil
}

// Select merges the presented document into the chosen vehicle
// unconditionally, bypassing matching, and advances the cursor.
func (q *ResolutionQueue) Select(ctx context.Context, vehicle *model.Vehicle) (string, error) {
	item, ok := q.Current()
	if !ok {
		return "", ErrQueueClosed
	}

	outcome, err := q.merger.Merge(ctx, vehicle, itemDocument(item))
	if err != nil {
		return "", err
	}

	q.cursor++
	return outcome, nil
}

// Skip drops the presented item without touching the store.
func (q *ResolutionQueue) Skip() {
	if !q.Done() {
		q.cursor++
	}
}

// Close drops every not-yet-presented item.
func (q *ResolutionQueue) Close() {
	q.closed = true
}

func itemDocument(item *model.FailedMatchItem) *model.StagedDocument {
	return &model.StagedDocument{
		Filename:     item.Filename,
		Kind:         item.Kind,
		NormalizedID: item.DetectedID,
		FileURL:      item.FileURL,
		Payload:      item.Payload,
	}
}
