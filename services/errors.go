package services

import "errors"

// Failure classes shared by the scrape sources and the qualifier. Adapters
// wrap their errors with one of these so callers can pick a policy with
// errors.Is.
var (
	// ErrProviderUnavailable: a collaborator call failed or timed out. The
	// song or artist is treated as having no data and the batch continues.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrMalformedRecord: a record is missing fields the pipeline needs. The
	// song is skipped.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrNotFound: the catalogue has no such song. The song is skipped.
	ErrNotFound = errors.New("not found")

	// ErrBatchTimeout: one chart target ran past its time budget and its
	// partial rows were discarded.
	ErrBatchTimeout = errors.New("batch timeout")
)

// skippable reports whether err means "drop this song and keep going".
func skippable(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMalformedRecord) ||
		errors.Is(err, ErrProviderUnavailable)
}
