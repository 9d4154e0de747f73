package storage_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formloom/formloom/config"
	"github.com/formloom/formloom/database"
	"github.com/formloom/formloom/model"
	"github.com/formloom/formloom/storage"
)

var dbSeq int

func openStore(t *testing.T) *storage.SQLite {
	t.Helper()
	dbSeq++
	cfg := config.Config{
		DBUrl: fmt.Sprintf("file:storage_test_%d?mode=memory&cache=shared&_fk=true", dbSeq),
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewSQLite(db)
}

func sampleForm() model.Form {
	form := model.NewForm("Event feedback", "Tell us how it went")
	form.AddField(model.SectionHeading)
	form.AddField(model.Email)
	form.AddField(model.Checkboxes)
	return form
}

func TestFormRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	form := sampleForm()
	require.NoError(t, store.CreateForm(ctx, form))

	got, err := store.LoadForm(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, form.Title, got.Title)
	assert.Equal(t, model.StatusDraft, got.Status)
	assert.Equal(t, 1, got.Version)
	require.Len(t, got.Fields, 3)
	for i := range form.Fields {
		assert.Equal(t, form.Fields[i].ID, got.Fields[i].ID, "field order is preserved")
		assert.Equal(t, form.Fields[i].Type, got.Fields[i].Type)
	}
	assert.Equal(t, form.Settings, got.Settings)

	_, err = store.LoadForm(ctx, "no-such-form")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSaveFormOptimisticLock(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	form := sampleForm()
	require.NoError(t, store.CreateForm(ctx, form))
	form, err := store.LoadForm(ctx, form.ID)
	require.NoError(t, err)

	form.Title = "Renamed"
	form.Status = model.StatusPublished
	require.NoError(t, store.SaveForm(ctx, form))

	got, err := store.LoadForm(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, 2, got.Version)

	// stale version loses
	assert.ErrorIs(t, store.SaveForm(ctx, form), storage.ErrVersionConflict)

	missing := sampleForm()
	assert.ErrorIs(t, store.SaveForm(ctx, missing), storage.ErrNotFound)
}

func TestResponsesAndCounter(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	form := sampleForm()
	require.NoError(t, store.CreateForm(ctx, form))

	addResponse := func(user string, when time.Time) string {
		r := model.Response{
			ID:          fmt.Sprintf("resp-%s-%d", user, when.UnixNano()),
			FormID:      form.ID,
			UserID:      user,
			Answers:     map[string]any{form.Fields[1].ID: user + "@example.com"},
			SubmittedAt: when.UTC().Format(time.RFC3339),
			Status:      "completed",
		}
		id, err := store.AppendResponse(ctx, r)
		require.NoError(t, err)
		return id
	}

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	first := addResponse("alice", base)
	addResponse("bob", base.Add(time.Minute))
	addResponse(model.AnonymousUser, base.Add(2*time.Minute))

	n, err := store.CountResponses(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = store.CountResponsesByUser(ctx, form.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.LoadForm(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ResponseCount, "counter incremented per append")

	responses, err := store.ListResponses(ctx, form.ID)
	require.NoError(t, err)
	require.Len(t, responses, 3)
	assert.Equal(t, model.AnonymousUser, responses[0].UserID, "newest first")
	assert.Equal(t, "alice@example.com", responses[2].Answers[form.Fields[1].ID])

	require.NoError(t, store.DeleteResponse(ctx, form.ID, first))
	got, err = store.LoadForm(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ResponseCount, "counter decremented on delete")

	assert.ErrorIs(t, store.DeleteResponse(ctx, form.ID, first), storage.ErrNotFound)
}

func TestDeleteFormCascades(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	form := sampleForm()
	require.NoError(t, store.CreateForm(ctx, form))
	_, err := store.AppendResponse(ctx, model.Response{
		ID:          "resp-1",
		FormID:      form.ID,
		UserID:      model.AnonymousUser,
		Answers:     map[string]any{form.Fields[1].ID: "x@example.com"},
		SubmittedAt: time.Now().UTC().Format(time.RFC3339),
		Status:      "completed",
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteForm(ctx, form.ID))

	_, err = store.LoadForm(ctx, form.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	n, err := store.CountResponses(ctx, form.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "responses are cascade-deleted with the form")

	assert.ErrorIs(t, store.DeleteForm(ctx, form.ID), storage.ErrNotFound)
}
