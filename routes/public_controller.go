package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/formloom/formloom/app"
	"github.com/formloom/formloom/httpx"
	"github.com/formloom/formloom/log"
	"github.com/formloom/formloom/model"
	"github.com/formloom/formloom/storage"
	"github.com/formloom/formloom/submit"
	"github.com/formloom/formloom/validate"
)

// maxSubmissionBody caps multipart submissions (files included).
const maxSubmissionBody = 32 << 20

func PublicGetForm(app app.App) http.HandlerFunc {
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

		// drafts and archived forms are invisible to respondents
		if !form.Accepting() {
			httpx.LogNotFound(w, "get_form.status", formID)
			return
		}

		render.JSON(w, r, form)
	}
}

// submission is the public submit payload. Multipart requests carry the
// same JSON in a "submission" part, with file parts keyed by field id.
type submission struct {
	Answers  map[string]any `json:"answers"`
	UserID   string         `json:"userId"`
	Metadata model.Metadata `json:"metadata"`
}

func PublicSubmitForm(app app.App) http.HandlerFunc {
	gate := submit.Gate{Counter: app.Responses}
	assembler := submit.Assembler{Uploader: app.Uploader, Store: app.Responses}

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
		if !form.Accepting() {
			httpx.JSONError(w, r, http.StatusConflict, "submit.status",
				"This form is not accepting responses")
			return
		}

		sub, err := decodeSubmission(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if sub.UserID == "" {
			sub.UserID = model.AnonymousUser
		}
		if sub.Metadata.UserAgent == "" {
			sub.Metadata.UserAgent = r.UserAgent()
		}

		if form.Settings.RequireAuth && sub.UserID == model.AnonymousUser {
			httpx.JSONError(w, r, http.StatusUnauthorized, "submit.require_auth",
				"You must be signed in to submit this form")
			return
		}

		if decision := gate.CanSubmit(r.Context(), form, sub.UserID); !decision.Allowed {
			httpx.JSONError(w, r, http.StatusConflict, "submit.gate", decision.Reason)
			return
		}

		if result := validate.Form(form, sub.Answers); !result.OK() {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, map[string]any{
				"errors":          result.Errors,
				"firstErrorField": result.First,
			})
			return
		}

		id, err := assembler.Submit(r.Context(), form, sub.Answers, sub.UserID, sub.Metadata)
		if err != nil {
			var uploadErr *submit.UploadError
			var persistErr *submit.PersistenceError
			switch {
			case errors.Is(err, submit.ErrNoAnswers):
				httpx.JSONError(w, r, http.StatusBadRequest, "submit.empty", err.Error())
			case errors.As(err, &uploadErr):
				log.Errorf("submit.upload: %s", uploadErr)
				httpx.JSONError(w, r, http.StatusBadGateway, "submit.upload",
					uploadErr.Error())
			case errors.As(err, &persistErr):
				httpx.LogInternalError(w, "submit.persist", persistErr)
			default:
				httpx.LogInternalError(w, "submit", err)
			}
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id":                  id,
			"confirmationMessage": form.Settings.ConfirmationMessage,
		})
	}
}

// decodeSubmission accepts application/json bodies and multipart forms.
// In a multipart form the "submission" part holds the JSON payload and
// every file part is an answer keyed by its field id.
func decodeSubmission(r *http.Request) (sub submission, err error) {
	ct := r.Header.Get("content-type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err = r.ParseMultipartForm(maxSubmissionBody); err != nil {
			return
		}
		if raw := r.FormValue("submission"); raw != "" {
			if err = json.Unmarshal([]byte(raw), &sub); err != nil {
				return
			}
		}
		if sub.Answers == nil {
			sub.Answers = map[string]any{}
		}
		for fieldID, headers := range r.MultipartForm.File {
			if len(headers) == 0 {
				continue
			}
			h := headers[0]
			file, ferr := h.Open()
			if ferr != nil {
				return sub, ferr
			}
			sub.Answers[fieldID] = model.FileHandle{
				Name:        h.Filename,
				Size:        h.Size,
				ContentType: h.Header.Get("content-type"),
				Content:     file,
			}
		}
		return
	}

	err = render.DecodeJSON(r.Body, &sub)
	return
}
