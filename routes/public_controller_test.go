package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formloom/formloom/app"
	"github.com/formloom/formloom/config"
	"github.com/formloom/formloom/model"
	"github.com/formloom/formloom/storage"
)

type fakeForms struct {
	forms map[string]model.Form
}

func (f *fakeForms) LoadForm(ctx context.Context, id string) (model.Form, error) {
	form, ok := f.forms[id]
	if !ok {
		return model.Form{}, storage.ErrNotFound
	}
	return form, nil
}
func (f *fakeForms) ListForms(ctx context.Context) ([]model.Form, error) { return nil, nil }
func (f *fakeForms) CreateForm(ctx context.Context, form model.Form) error {
	f.forms[form.ID] = form
	return nil
}
func (f *fakeForms) SaveForm(ctx context.Context, form model.Form) error {
	if _, ok := f.forms[form.ID]; !ok {
		return storage.ErrNotFound
	}
	f.forms[form.ID] = form
	return nil
}
func (f *fakeForms) DeleteForm(ctx context.Context, id string) error {
	delete(f.forms, id)
	return nil
}

type fakeResponses struct {
	appended []model.Response
	counts   map[string]int
}

func (f *fakeResponses) AppendResponse(ctx context.Context, r model.Response) (string, error) {
	f.appended = append(f.appended, r)
	return r.ID, nil
}
func (f *fakeResponses) CountResponses(ctx context.Context, formID string) (int, error) {
	return f.counts[formID], nil
}
func (f *fakeResponses) CountResponsesByUser(ctx context.Context, formID, userID string) (int, error) {
	return f.counts[formID+"/"+userID], nil
}
func (f *fakeResponses) ListResponses(ctx context.Context, formID string) ([]model.Response, error) {
	return f.appended, nil
}
func (f *fakeResponses) DeleteResponse(ctx context.Context, formID, responseID string) error {
	return nil
}

func testApp(forms *fakeForms, responses *fakeResponses) app.App {
	return app.App{
		Forms:     forms,
		Responses: responses,
		Config:    config.Config{TokenSecret: "test-secret"},
	}
}

func publishedForm() model.Form {
	return model.Form{
		ID:     "form-1",
		Title:  "Contact",
		Status: model.StatusPublished,
		Fields: []model.Field{
			{ID: "email", Type: model.Email, Required: true, Label: "Email"},
			{ID: "rating", Type: model.Rating, MaxRating: 5, Label: "Rating"},
		},
		Settings: model.Settings{AllowMultipleResponses: true},
	}
}

func TestPublicGetForm(t *testing.T) {
	forms := &fakeForms{forms: map[string]model.Form{"form-1": publishedForm()}}
	handler := Wire(testApp(forms, &fakeResponses{counts: map[string]int{}}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/forms/form-1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got model.Form
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Contact", got.Title)
	assert.Len(t, got.Fields, 2)
}

func TestPublicGetFormHidesDrafts(t *testing.T) {
	draft := publishedForm()
	draft.Status = model.StatusDraft
	forms := &fakeForms{forms: map[string]model.Form{"form-1": draft}}
	handler := Wire(testApp(forms, &fakeResponses{counts: map[string]int{}}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/forms/form-1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/forms/no-such", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func submitJSON(t *testing.T, handler http.Handler, formID string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/forms/"+formID+"/responses", bytes.NewReader(body))
	req.Header.Set("content-type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestPublicSubmitValidationErrors(t *testing.T) {
	forms := &fakeForms{forms: map[string]model.Form{"form-1": publishedForm()}}
	responses := &fakeResponses{counts: map[string]int{}}
	handler := Wire(testApp(forms, responses))

	w := submitJSON(t, handler, "form-1", map[string]any{
		"answers": map[string]any{"email": "not-an-email"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Errors          map[string]string `json:"errors"`
		FirstErrorField string            `json:"firstErrorField"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Please enter a valid email address", body.Errors["email"])
	assert.Equal(t, "email", body.FirstErrorField)
	assert.NotContains(t, body.Errors, "rating")
	assert.Empty(t, responses.appended)
}

func TestPublicSubmitPersistsResponse(t *testing.T) {
	forms := &fakeForms{forms: map[string]model.Form{"form-1": publishedForm()}}
	responses := &fakeResponses{counts: map[string]int{}}
	handler := Wire(testApp(forms, responses))

	w := submitJSON(t, handler, "form-1", map[string]any{
		"answers": map[string]any{"email": "a@b.com", "rating": 4},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, responses.appended, 1)
	record := responses.appended[0]
	assert.Equal(t, "form-1", record.FormID)
	assert.Equal(t, model.AnonymousUser, record.UserID)
	assert.Equal(t, map[string]any{"email": "a@b.com", "rating": float64(4)}, record.Answers)
	assert.Equal(t, "completed", record.Status)
}

func TestPublicSubmitGateBlocks(t *testing.T) {
	form := publishedForm()
	form.Settings.MaxSubmissions = 3
	forms := &fakeForms{forms: map[string]model.Form{"form-1": form}}
	responses := &fakeResponses{counts: map[string]int{"form-1": 3}}
	handler := Wire(testApp(forms, responses))

	w := submitJSON(t, handler, "form-1", map[string]any{
		"answers": map[string]any{"email": "a@b.com"},
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "maximum number of responses")
	assert.Empty(t, responses.appended)
}

func TestPublicSubmitClosedForm(t *testing.T) {
	form := publishedForm()
	form.Status = model.StatusArchived
	forms := &fakeForms{forms: map[string]model.Form{"form-1": form}}
	handler := Wire(testApp(forms, &fakeResponses{counts: map[string]int{}}))

	w := submitJSON(t, handler, "form-1", map[string]any{
		"answers": map[string]any{"email": "a@b.com"},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPublicSubmitRequireAuth(t *testing.T) {
	form := publishedForm()
	form.Settings.RequireAuth = true
	forms := &fakeForms{forms: map[string]model.Form{"form-1": form}}
	responses := &fakeResponses{counts: map[string]int{}}
	handler := Wire(testApp(forms, responses))

	w := submitJSON(t, handler, "form-1", map[string]any{
		"answers": map[string]any{"email": "a@b.com"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = submitJSON(t, handler, "form-1", map[string]any{
		"userId":  "alice",
		"answers": map[string]any{"email": "a@b.com"},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, responses.appended, 1)
	assert.Equal(t, "alice", responses.appended[0].UserID)
}

type fakeUploader struct {
	err error
}

func (f *fakeUploader) Upload(ctx context.Context, fh model.FileHandle) (model.UploadedFile, error) {
	if f.err != nil {
		return model.UploadedFile{}, f.err
	}
	data, err := io.ReadAll(fh.Content)
	if err != nil {
		return model.UploadedFile{}, err
	}
	return model.UploadedFile{
		FileName: fh.Name,
		FileSize: int64(len(data)),
		FileType: fh.ContentType,
		URL:      "https://files.example.com/" + fh.Name,
	}, nil
}

func formWithUpload() model.Form {
	form := publishedForm()
	form.Fields = append(form.Fields,
		model.Field{ID: "cv", Type: model.FileUpload, Label: "CV"})
	return form
}

// submitMultipart posts a multipart body: the JSON payload in the
// "submission" part, each file part keyed by its field id.
func submitMultipart(t *testing.T, handler http.Handler, formID string, payload any, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("submission", string(raw)))

	for fieldID, content := range files {
		part, err := mw.CreateFormFile(fieldID, fieldID+".pdf")
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/forms/"+formID+"/responses", &buf)
	req.Header.Set("content-type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestPublicSubmitMultipart(t *testing.T) {
	forms := &fakeForms{forms: map[string]model.Form{"form-1": formWithUpload()}}
	responses := &fakeResponses{counts: map[string]int{}}
	a := testApp(forms, responses)
	a.Uploader = &fakeUploader{}
	handler := Wire(a)

	w := submitMultipart(t, handler, "form-1", map[string]any{
		"answers": map[string]any{"email": "a@b.com"},
	}, map[string]string{"cv": "resumepdf"})
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, responses.appended, 1)
	record := responses.appended[0]
	assert.Equal(t, "a@b.com", record.Answers["email"])

	file, ok := record.Answers["cv"].(model.UploadedFile)
	require.True(t, ok, "file handle replaced by its descriptor")
	assert.Equal(t, "cv.pdf", file.FileName)
	assert.Equal(t, int64(len("resumepdf")), file.FileSize)
	assert.NotEmpty(t, file.URL)
}

func TestPublicSubmitMultipartUploadFailure(t *testing.T) {
	forms := &fakeForms{forms: map[string]model.Form{"form-1": formWithUpload()}}
	responses := &fakeResponses{counts: map[string]int{}}
	a := testApp(forms, responses)
	a.Uploader = &fakeUploader{err: errors.New("bucket gone")}
	handler := Wire(a)

	w := submitMultipart(t, handler, "form-1", map[string]any{
		"answers": map[string]any{"email": "a@b.com"},
	}, map[string]string{"cv": "resumepdf"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "cv")
	assert.Empty(t, responses.appended, "nothing is persisted when an upload fails")
}
