package routes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/formloom/formloom/app"
	"github.com/formloom/formloom/export"
	"github.com/formloom/formloom/httpx"
	"github.com/formloom/formloom/log"
	"github.com/formloom/formloom/model"
	"github.com/formloom/formloom/routes/middlewares"
	"github.com/formloom/formloom/storage"
)

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if body.Title == "" {
			httpx.JSONError(w, r, http.StatusBadRequest, "create_form.title", "Title is required")
			return
		}

		form := model.NewForm(body.Title, body.Description)
		if err := app.Forms.CreateForm(r.Context(), form); err != nil {
			httpx.LogInternalError(w, "db.insert_form", err)
			return
		}
		log.Debugf("form %s created by %s", form.ID, middlewares.Username(r))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, form)
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forms, err := app.Forms.ListForms(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

func GetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		form, err := app.Forms.LoadForm(r.Context(), formID)
		if errors.Is(err, storage.ErrNotFound) {
			httpx.LogNotFound(w, "get_form", formID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		form.ID = formID

		for _, f := range form.Fields {
			if !f.Type.Valid() {
				httpx.JSONError(w, r, http.StatusBadRequest, "update_form.field_type",
					fmt.Sprintf("Unknown field type %q", f.Type))
				return
			}
		}

		saveForm(app, w, r, form)
	}
}

// saveForm persists through the optimistic lock, mapping conflicts to 409.
func saveForm(app app.App, w http.ResponseWriter, r *http.Request, form model.Form) {
	err := app.Forms.SaveForm(r.Context(), form)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httpx.LogNotFound(w, "save_form", form.ID)
	case errors.Is(err, storage.ErrVersionConflict):
		httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.save_form.conflict")
	case err != nil:
		httpx.LogInternalError(w, "db.save_form", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		err := app.Forms.DeleteForm(r.Context(), formID)
		if errors.Is(err, storage.ErrNotFound) {
			httpx.LogNotFound(w, "delete_form", formID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// withForm loads the form, applies op, and saves it back under the
// optimistic lock. Field ops all follow this load-modify-save shape.
func withForm(app app.App, op func(*model.Form, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		form, err := app.Forms.LoadForm(r.Context(), formID)
		if errors.Is(err, storage.ErrNotFound) {
			httpx.LogNotFound(w, "get_form", formID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}

		if err := op(&form, r); err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "field_op", err.Error())
			return
		}

		saveForm(app, w, r, form)
	}
}

func AddField(app app.App) http.HandlerFunc {
	return withForm(app, func(form *model.Form, r *http.Request) error {
		var body struct {
			Type model.FieldType `json:"type"`
		}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			return errors.New("invalid request body")
		}
		_, err := form.AddField(body.Type)
		return err
	})
}

func UpdateField(app app.App) http.HandlerFunc {
	return withForm(app, func(form *model.Form, r *http.Request) error {
		var field model.Field
		if err := render.DecodeJSON(r.Body, &field); err != nil {
			return errors.New("invalid request body")
		}
		field.ID = chi.URLParam(r, "fieldId")
		return form.UpdateField(field)
	})
}

func DeleteField(app app.App) http.HandlerFunc {
	return withForm(app, func(form *model.Form, r *http.Request) error {
		return form.DeleteField(chi.URLParam(r, "fieldId"))
	})
}

func DuplicateField(app app.App) http.HandlerFunc {
	return withForm(app, func(form *model.Form, r *http.Request) error {
		_, err := form.DuplicateField(chi.URLParam(r, "fieldId"))
		return err
	})
}

func ReorderFields(app app.App) http.HandlerFunc {
	return withForm(app, func(form *model.Form, r *http.Request) error {
		var body struct {
			Order []string `json:"order"`
		}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			return errors.New("invalid request body")
		}
		return form.ReorderFields(body.Order)
	})
}

func SetFormStatus(app app.App, action string) http.HandlerFunc {
	return withForm(app, func(form *model.Form, r *http.Request) error {
		switch action {
		case "publish":
			form.Status = model.StatusPublished
		case "archive":
			form.Status = model.StatusArchived
		}
		return nil
	})
}

func ListFormResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		if _, err := app.Forms.LoadForm(r.Context(), formID); errors.Is(err, storage.ErrNotFound) {
			httpx.LogNotFound(w, "get_form", formID)
			return
		} else if err != nil {
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}

		responses, err := app.Responses.ListResponses(r.Context(), formID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

func DeleteFormResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")
		responseID := chi.URLParam(r, "responseId")

		err := app.Responses.DeleteResponse(r.Context(), formID, responseID)
		if errors.Is(err, storage.ErrNotFound) {
			httpx.LogNotFound(w, "delete_response", responseID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.delete_response", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ExportFormResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		form, err := app.Forms.LoadForm(r.Context(), formID)
		if errors.Is(err, storage.ErrNotFound) {
			httpx.LogNotFound(w, "get_form", formID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}

		responses, err := app.Responses.ListResponses(r.Context(), formID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}

		doc, err := export.ResponsesCSV(form.Fields, responses)
		if err != nil {
			httpx.LogInternalError(w, "export.csv", err)
			return
		}
		if doc == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("content-type", "text/csv; charset=utf-8")
		w.Header().Set("content-disposition",
			fmt.Sprintf("attachment; filename=%q", form.Title+" responses.csv"))
		w.Write(doc)
	}
}
