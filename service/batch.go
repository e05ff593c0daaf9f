package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AnTengye/fleetdocs/model"
)

// InputFile is one raw file handed to the batch processor.
type InputFile struct {
	Filename string
	MimeType string
	Data     []byte
}

// BatchProcessor drives every file of a batch through
// preprocess → upload → extract → normalize → match → merge, strictly
// sequentially. Sequential processing is deliberate: the extraction
// service is shared and rate-limited, and the merger's
// find-then-update-or-insert sequence is not atomic against the store, so
// two documents for the same vehicle must never be in flight at once.
type BatchProcessor struct {
	preprocessor *Preprocessor
	uploader     Uploader
	extractor    Extractor
	matcher      *Matcher
	merger       *Merger
	folder       string
	fileTimeout  time.Duration
}

func NewBatchProcessor(pre *Preprocessor, uploader Uploader, extractor Extractor, matcher *Matcher, merger *Merger, folder string, fileTimeout time.Duration) *BatchProcessor {
	if fileTimeout <= 0 {
		fileTimeout = 2 * time.Minute
	}
	return &BatchProcessor{
		preprocessor: pre,
		uploader:     uploader,
		extractor:    extractor,
		matcher:      matcher,
		merger:       merger,
		folder:       folder,
		fileTimeout:  fileTimeout,
	}
}

// Process runs the batch and returns its result by value. Cancellation is
// checked between files: the in-flight file finishes (or times out),
// remaining files are counted as skipped.
func (b *BatchProcessor) Process(ctx context.Context, files []InputFile) model.BatchResult {
	result := model.BatchResult{}

	for i, file := range files {
		if ctx.Err() != nil {
			remaining := len(files) - i
			result.Skipped += remaining
			result.Log = append(result.Log, fmt.Sprintf("batch cancelled, %d file(s) skipped", remaining))
			break
		}

		result.Processed++
		outcome, item, err := b.processFile(ctx, file)
		switch {
		case item != nil:
			result.Unmatched = append(result.Unmatched, *item)
			result.Log = append(result.Log, fmt.Sprintf("%s: %s, queued for review", file.Filename, item.Reason))
		case err != nil:
			result.Failed++
			result.Log = append(result.Log, fmt.Sprintf("%s: %v", file.Filename, err))
			slog.Warn("file failed", "filename", file.Filename, "error", err)
		default:
			result.Succeeded++
			result.Log = append(result.Log, outcome)
		}
	}

	return result
}

// processFile runs one file through all stages under a bounded timeout.
// It returns exactly one of: an outcome line (merged), a failed-match item
// (recoverable, goes to the resolution queue), or an error (hard failure).
func (b *BatchProcessor) processFile(ctx context.Context, file InputFile) (string, *model.FailedMatchItem, error) {
	// Detached from the batch context: a cancel arriving mid-file must not
	// abort the in-flight file, only stop the loop before the next one. The
	// per-file timeout still bounds it.
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.fileTimeout)
	defer cancel()

	staged := &model.StagedDocument{
		Filename: file.Filename,
		MimeType: file.MimeType,
	}

	data, mimeType := b.preprocessor.Process(file.Data, file.MimeType)

	fileURL, err := b.uploader.Upload(fctx, b.folder, file.Filename, data, mimeType)
	if err != nil {
		return b.fail(fctx, staged, fmt.Errorf("upload failed: %w", err))
	}
	staged.FileURL = fileURL

	payload, err := b.extractor.Extract(fctx, data, mimeType)
	if err != nil {
		return b.fail(fctx, staged, fmt.Errorf("extraction failed: %w", err))
	}
	staged.Payload = payload
	staged.Kind = payload.DocumentKind
	staged.RawID = payload.ChassisNo

	identifier, err := ResolveIdentifier(payload.ChassisNo, payload.PlateNo)
	if err != nil {
		return "", unresolvedItem(staged, "identifier not recognized"), nil
	}
	staged.NormalizedID = identifier

	vehicle, err := b.matcher.Match(fctx, identifier)
	switch {
	case errors.Is(err, ErrNoMatch):
		return "", unresolvedItem(staged, fmt.Sprintf("no registered vehicle for identifier %q", identifier)), nil
	case errors.Is(err, ErrAmbiguousIdentifier):
		return "", unresolvedItem(staged, fmt.Sprintf("identifier %q matches more than one vehicle", identifier)), nil
	case err != nil:
		return b.fail(fctx, staged, fmt.Errorf("vehicle lookup failed: %w", err))
	}

	outcome, err := b.merger.Merge(fctx, vehicle, staged)
	if err != nil {
		return b.fail(fctx, staged, fmt.Errorf("merge failed: %w", err))
	}

	return outcome, nil, nil
}

// fail classifies a stage error. A per-file deadline is recoverable by a
// human, so it goes to the resolution queue with whatever was recovered
// before the deadline; everything else is a hard per-file failure.
func (b *BatchProcessor) fail(fctx context.Context, staged *model.StagedDocument, err error) (string, *model.FailedMatchItem, error) {
	if errors.Is(fctx.Err(), context.DeadlineExceeded) {
		return "", unresolvedItem(staged, "processing timed out"), nil
	}
	return "", nil, err
}

func unresolvedItem(staged *model.StagedDocument, reason string) *model.FailedMatchItem {
	detected := staged.NormalizedID
	if detected == "" {
		detected = staged.RawID
	}
	return &model.FailedMatchItem{
		Filename:   staged.Filename,
		DetectedID: detected,
		Kind:       staged.Kind,
		FileURL:    staged.FileURL,
		Payload:    staged.Payload,
		Reason:     reason,
	}
}
