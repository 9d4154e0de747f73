// Package storage defines the persistence collaborators consumed by the
// core and implements them on SQLite.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/formloom/formloom/model"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
)

type FormStore interface {
	LoadForm(ctx context.Context, id string) (model.Form, error)
	ListForms(ctx context.Context) ([]model.Form, error)
	CreateForm(ctx context.Context, f model.Form) error
	// SaveForm replaces the stored form if the version matches, bumping it;
	// a stale version yields ErrVersionConflict.
	SaveForm(ctx context.Context, f model.Form) error
	DeleteForm(ctx context.Context, id string) error
}

type ResponseStore interface {
	AppendResponse(ctx context.Context, r model.Response) (string, error)
	CountResponses(ctx context.Context, formID string) (int, error)
	CountResponsesByUser(ctx context.Context, formID, userID string) (int, error)
	ListResponses(ctx context.Context, formID string) ([]model.Response, error)
	DeleteResponse(ctx context.Context, formID, responseID string) error
}
