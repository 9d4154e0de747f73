package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/formloom/formloom/model"
)

// SQLite implements FormStore and ResponseStore on a *sql.DB opened by the
// database package. Field definitions travel as JSON in a single column;
// the row keeps id, position and type for ordering and inspection.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db}
}

func (s *SQLite) LoadForm(ctx context.Context, id string) (form model.Form, err error) {
	var settings, theme []byte
	err = s.db.QueryRowContext(ctx, `
		SELECT id, version, title, description, status, settings, theme, response_count, created_at, updated_at
		FROM form
		WHERE id = ?`,
		id,
	).Scan(
		&form.ID, &form.Version, &form.Title, &form.Description, &form.Status,
		&settings, &theme, &form.ResponseCount, &form.CreatedAt, &form.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return form, ErrNotFound
	}
	if err != nil {
		return form, errors.Wrap(err, "load form")
	}

	if err = json.Unmarshal(settings, &form.Settings); err != nil {
		return form, errors.Wrap(err, "load form: settings")
	}
	if err = json.Unmarshal(theme, &form.Theme); err != nil {
		return form, errors.Wrap(err, "load form: theme")
	}

	form.Fields, err = s.loadFields(ctx, id)
	return form, err
}

func (s *SQLite) loadFields(ctx context.Context, formID string) ([]model.Field, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT definition
		FROM form_field
		WHERE form_id = ?
		ORDER BY position`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "load fields")
	}
	defer rows.Close()

	fields := []model.Field{}
	for rows.Next() {
		var definition []byte
		if err := rows.Scan(&definition); err != nil {
			return nil, errors.Wrap(err, "load fields: scan")
		}
		var f model.Field
		if err := json.Unmarshal(definition, &f); err != nil {
			return nil, errors.Wrap(err, "load fields: definition")
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (s *SQLite) ListForms(ctx context.Context) ([]model.Form, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version, title, description, status, response_count, created_at, updated_at
		FROM form
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list forms")
	}
	defer rows.Close()

	forms := []model.Form{}
	for rows.Next() {
		var f model.Form
		err = rows.Scan(&f.ID, &f.Version, &f.Title, &f.Description, &f.Status,
			&f.ResponseCount, &f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "list forms: scan")
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

func (s *SQLite) CreateForm(ctx context.Context, f model.Form) error {
	settings, theme, err := marshalFormBlobs(f)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "create form: begin")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO form (id, version, title, description, status, settings, theme, response_count, created_at, updated_at)
		VALUES (?, 1, ?, ?, ?, ?, ?, 0, ?, ?)`,
		f.ID, f.Title, f.Description, f.Status, settings, theme, now, now,
	)
	if err != nil {
		return errors.Wrap(err, "create form")
	}

	if err := insertFields(ctx, tx, f.ID, f.Fields); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "create form: commit")
}

func (s *SQLite) SaveForm(ctx context.Context, f model.Form) error {
	settings, theme, err := marshalFormBlobs(f)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "save form: begin")
	}
	defer tx.Rollback()

	// optimistic lock on version
	res, err := tx.ExecContext(ctx, `
		UPDATE form
		SET
			title = ?,
			description = ?,
			status = ?,
			settings = ?,
			theme = ?,
			version = version + 1,
			updated_at = ?
		WHERE	id = ?
			AND version = ?`,
		f.Title, f.Description, f.Status, settings, theme, time.Now().UTC(),
		f.ID, f.Version,
	)
	if err != nil {
		return errors.Wrap(err, "save form")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "save form: verify")
	}
	if n < 1 {
		var exists bool
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM form WHERE id = ?`, f.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return errors.Wrap(err, "save form: verify")
		}
		return ErrVersionConflict
	}

	// recreate all fields
	_, err = tx.ExecContext(ctx, `DELETE FROM form_field WHERE form_id = ?`, f.ID)
	if err != nil {
		return errors.Wrap(err, "save form: delete fields")
	}
	if err := insertFields(ctx, tx, f.ID, f.Fields); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "save form: commit")
}

func (s *SQLite) DeleteForm(ctx context.Context, id string) error {
	// fields and responses cascade with the form row
	res, err := s.db.ExecContext(ctx, `DELETE FROM form WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete form")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete form: verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

func insertFields(ctx context.Context, tx *sql.Tx, formID string, fields []model.Field) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO form_field (id, form_id, position, type, definition)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "insert fields: prepare")
	}
	defer stmt.Close()

	for i, f := range fields {
		definition, err := json.Marshal(f)
		if err != nil {
			return errors.Wrap(err, "insert fields: definition")
		}
		if _, err := stmt.ExecContext(ctx, f.ID, formID, i, f.Type, definition); err != nil {
			return errors.Wrap(err, "insert fields")
		}
	}
	return nil
}

func marshalFormBlobs(f model.Form) (settings, theme []byte, err error) {
	settings, err = json.Marshal(f.Settings)
	if err != nil {
		return nil, nil, errors.Wrap(err, "marshal settings")
	}
	theme, err = json.Marshal(f.Theme)
	if err != nil {
		return nil, nil, errors.Wrap(err, "marshal theme")
	}
	return settings, theme, nil
}

func (s *SQLite) AppendResponse(ctx context.Context, r model.Response) (string, error) {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return "", errors.Wrap(err, "append response: answers")
	}
	metadata, err := json.Marshal(r.Metadata)
	if err != nil {
		return "", errors.Wrap(err, "append response: metadata")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "append response: begin")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO response (id, form_id, user_id, answers, metadata, submitted_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.FormID, r.UserID, answers, metadata, r.SubmittedAt, r.Status,
	)
	if err != nil {
		return "", errors.Wrap(err, "append response")
	}

	// cached counter is only ever adjusted by atomic deltas
	_, err = tx.ExecContext(ctx, `
		UPDATE form SET response_count = response_count + 1 WHERE id = ?`,
		r.FormID,
	)
	if err != nil {
		return "", errors.Wrap(err, "append response: counter")
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "append response: commit")
	}
	return r.ID, nil
}

func (s *SQLite) CountResponses(ctx context.Context, formID string) (n int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM response WHERE form_id = ?`,
		formID,
	).Scan(&n)
	return n, errors.Wrap(err, "count responses")
}

func (s *SQLite) CountResponsesByUser(ctx context.Context, formID, userID string) (n int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM response WHERE form_id = ? AND user_id = ?`,
		formID, userID,
	).Scan(&n)
	return n, errors.Wrap(err, "count user responses")
}

func (s *SQLite) ListResponses(ctx context.Context, formID string) ([]model.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, form_id, user_id, answers, metadata, submitted_at, status
		FROM response
		WHERE form_id = ?
		ORDER BY submitted_at DESC`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list responses")
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		var r model.Response
		var answers, metadata []byte
		err = rows.Scan(&r.ID, &r.FormID, &r.UserID, &answers, &metadata, &r.SubmittedAt, &r.Status)
		if err != nil {
			return nil, errors.Wrap(err, "list responses: scan")
		}
		if err = json.Unmarshal(answers, &r.Answers); err != nil {
			return nil, errors.Wrap(err, "list responses: answers")
		}
		if err = json.Unmarshal(metadata, &r.Metadata); err != nil {
			return nil, errors.Wrap(err, "list responses: metadata")
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

func (s *SQLite) DeleteResponse(ctx context.Context, formID, responseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "delete response: begin")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM response WHERE id = ? AND form_id = ?`,
		responseID, formID,
	)
	if err != nil {
		return errors.Wrap(err, "delete response")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete response: verify")
	}
	if n < 1 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE form SET response_count = MAX(response_count - 1, 0) WHERE id = ?`,
		formID,
	)
	if err != nil {
		return errors.Wrap(err, "delete response: counter")
	}
	return errors.Wrap(tx.Commit(), "delete response: commit")
}
