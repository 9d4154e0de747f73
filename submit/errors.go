package submit

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// ErrNoAnswers rejects a submission that carries no field values at all.
var ErrNoAnswers = errors.New("No answers provided")

var errNoFileStorage = errors.New("file storage is not configured")

// BlockedError is a SubmissionGate rejection; Reason is user-facing.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string { return e.Reason }

// UploadError aggregates every failed file-upload field of one submission.
// The whole submission is rejected; nothing partial is persisted.
type UploadError struct {
	// FieldErrors maps field id to its underlying upload failure.
	FieldErrors map[string]error
}

func (e *UploadError) Error() string {
	fields := make([]string, 0, len(e.FieldErrors))
	for id := range e.FieldErrors {
		fields = append(fields, id)
	}
	sort.Strings(fields)

	var merr *multierror.Error
	for _, id := range fields {
		merr = multierror.Append(merr, fmt.Errorf("field %s: %w", id, e.FieldErrors[id]))
	}
	return fmt.Sprintf("file upload failed: %s", merr)
}

// PersistenceError is a failed save after successful validation and
// assembly; it is retryable from the caller's point of view.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("could not save response: %s", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
