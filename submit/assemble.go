// Package submit turns raw submitted values into stored response records:
// the gate decides admission, the assembler uploads files, cleans the
// answer set and persists the result.
package submit

import (
	"context"
	"time"

	"github.com/gofrs/uuid"

	"github.com/formloom/formloom/model"
)

// Uploader is the file-storage collaborator. Upload must be bounded: a
// timeout is an upload failure, not a hang.
type Uploader interface {
	Upload(ctx context.Context, fh model.FileHandle) (model.UploadedFile, error)
}

// Store is the slice of the response store the assembler needs.
type Store interface {
	AppendResponse(ctx context.Context, r model.Response) (string, error)
}

// Assembler builds and persists one response per call. It has no state of
// its own; two submissions assembling concurrently never interact.
type Assembler struct {
	Uploader Uploader
	Store    Store
	Now      func() time.Time
}

type uploadResult struct {
	fieldID string
	file    model.UploadedFile
	err     error
}

// Submit assembles the raw answers into a Response and hands it to the
// store. File uploads for distinct fields run concurrently and must all
// succeed before anything is persisted; one failure rejects the whole
// submission.
func (a Assembler) Submit(ctx context.Context, form model.Form, raw map[string]any, userID string, meta model.Metadata) (string, error) {
	record, err := a.Assemble(ctx, form, raw, userID, meta)
	if err != nil {
		return "", err
	}

	id, err := a.Store.AppendResponse(ctx, record)
	if err != nil {
		return "", &PersistenceError{err}
	}
	return id, nil
}

// Assemble performs every step short of persistence.
func (a Assembler) Assemble(ctx context.Context, form model.Form, raw map[string]any, userID string, meta model.Metadata) (model.Response, error) {
	if len(raw) == 0 {
		return model.Response{}, ErrNoAnswers
	}

	answers := make(map[string]any, len(raw))
	for id, v := range raw {
		fld, ok := form.FieldByID(id)
		if !ok || fld.Type.LayoutOnly() {
			// layout fields never carry answers; stray ids are dropped
			continue
		}
		answers[id] = v
	}
	if len(answers) == 0 {
		return model.Response{}, ErrNoAnswers
	}

	if err := a.uploadFiles(ctx, answers); err != nil {
		return model.Response{}, err
	}

	for id, v := range answers {
		clean, ok := stripUndefined(v)
		if !ok {
			delete(answers, id)
			continue
		}
		answers[id] = clean
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	if userID == "" {
		userID = model.AnonymousUser
	}

	return model.Response{
		ID:          uuid.Must(uuid.NewV4()).String(),
		FormID:      form.ID,
		UserID:      userID,
		Answers:     answers,
		Metadata:    meta,
		SubmittedAt: now().UTC().Format(time.RFC3339),
		Status:      "completed",
	}, nil
}

// uploadFiles replaces every FileHandle answer with its uploaded
// descriptor, fanning the uploads out and waiting for all of them.
func (a Assembler) uploadFiles(ctx context.Context, answers map[string]any) error {
	results := make(chan uploadResult)
	pending := 0
	for id, v := range answers {
		fh, ok := v.(model.FileHandle)
		if !ok {
			continue
		}
		if a.Uploader == nil {
			return &UploadError{FieldErrors: map[string]error{id: errNoFileStorage}}
		}
		pending++
		go func(id string, fh model.FileHandle) {
			file, err := a.Uploader.Upload(ctx, fh)
			if fh.Content != nil {
				fh.Content.Close()
			}
			results <- uploadResult{id, file, err}
		}(id, fh)
	}
	if pending == 0 {
		return nil
	}

	failed := map[string]error{}
	for ; pending > 0; pending-- {
		res := <-results
		if res.err != nil {
			failed[res.fieldID] = res.err
			continue
		}
		answers[res.fieldID] = res.file
	}
	if len(failed) > 0 {
		return &UploadError{FieldErrors: failed}
	}
	return nil
}
