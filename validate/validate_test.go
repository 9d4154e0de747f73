package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/formloom/formloom/model"
)

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }

func TestRequiredField(t *testing.T) {
	for _, empty := range []any{nil, "", []any{}, []string{}, model.Undefined} {
		fld := model.Field{ID: "f1", Type: model.ShortText, Required: true}
		assert.Equal(t, "This field is required", Field(fld, empty), "%#v", empty)
	}
}

func TestOptionalEmptyPassesEveryOtherRule(t *testing.T) {
	fld := model.Field{
		ID:   "f1",
		Type: model.Number,
		Validation: &model.Validation{
			Min:     fptr(5),
			Pattern: `^\d{4}$`,
		},
	}
	for _, empty := range []any{nil, ""} {
		assert.Empty(t, Field(fld, empty))
	}
}

func TestLayoutFieldsNeverValidate(t *testing.T) {
	for _, ft := range []model.FieldType{model.SectionHeading, model.Divider, model.DescriptionText} {
		fld := model.Field{ID: "f1", Type: ft, Required: true}
		assert.Empty(t, Field(fld, nil), ft)
	}
}

func TestEmailFormat(t *testing.T) {
	fld := model.Field{ID: "f1", Type: model.Email}

	assert.Empty(t, Field(fld, "a@b.com"))
	assert.Empty(t, Field(fld, "first.last+tag@sub.domain.org"))

	for _, bad := range []string{"not-an-email", "a@b", "a b@c.de", "@no.local", "trailing@"} {
		assert.Equal(t, "Please enter a valid email address", Field(fld, bad), bad)
	}
}

func TestURLFormat(t *testing.T) {
	fld := model.Field{ID: "f1", Type: model.URL}

	assert.Empty(t, Field(fld, "https://example.com/x?y=1"))
	assert.Equal(t, "Please enter a valid URL", Field(fld, "example.com"))
	assert.Equal(t, "Please enter a valid URL", Field(fld, "not a url"))
}

func TestNumberBounds(t *testing.T) {
	fld := model.Field{
		ID:   "f1",
		Type: model.Number,
		Validation: &model.Validation{
			Min: fptr(5),
			Max: fptr(10),
		},
	}

	assert.Equal(t, "Minimum value is 5", Field(fld, float64(4)))
	assert.Equal(t, "Maximum value is 10", Field(fld, float64(11)))
	assert.Empty(t, Field(fld, float64(7)))

	// string inputs parse before bounds apply
	assert.Equal(t, "Minimum value is 5", Field(fld, "4"))
	assert.Empty(t, Field(fld, "7"))
	assert.Equal(t, "Please enter a valid number", Field(fld, "seven"))
}

func TestTextLengthBounds(t *testing.T) {
	fld := model.Field{
		ID:   "f1",
		Type: model.ShortText,
		Validation: &model.Validation{
			MinLength: iptr(3),
			MaxLength: iptr(5),
		},
	}

	assert.Equal(t, "Minimum length is 3 characters", Field(fld, "ab"))
	assert.Equal(t, "Maximum length is 5 characters", Field(fld, "abcdef"))
	assert.Empty(t, Field(fld, "abcd"))
}

func TestPatternRule(t *testing.T) {
	fld := model.Field{
		ID:   "f1",
		Type: model.ShortText,
		Validation: &model.Validation{
			Pattern: `^\d{5}$`,
		},
	}
	assert.Empty(t, Field(fld, "12345"))
	assert.Equal(t, "Invalid format", Field(fld, "1234"))

	fld.Validation.ErrorMessage = "Enter a 5-digit ZIP code"
	assert.Equal(t, "Enter a 5-digit ZIP code", Field(fld, "1234"))

	// a pattern the schema author broke is not the respondent's problem
	fld.Validation.Pattern = `([`
	assert.Empty(t, Field(fld, "anything"))
}

func TestFileConstraints(t *testing.T) {
	fld := model.Field{
		ID:           "f1",
		Type:         model.FileUpload,
		MaxSize:      1024,
		AllowedTypes: []string{"image/png"},
	}

	ok := model.FileHandle{Name: "a.png", Size: 512, ContentType: "image/png"}
	assert.Empty(t, Field(fld, ok))

	big := model.FileHandle{Name: "a.png", Size: 2048, ContentType: "image/png"}
	assert.NotEmpty(t, Field(fld, big))

	wrong := model.FileHandle{Name: "a.pdf", Size: 512, ContentType: "application/pdf"}
	assert.NotEmpty(t, Field(fld, wrong))
}

func TestFormCollectsOneErrorPerFieldInOrder(t *testing.T) {
	form := model.Form{Fields: []model.Field{
		{ID: "heading", Type: model.SectionHeading},
		{ID: "name", Type: model.ShortText, Required: true},
		{ID: "email", Type: model.Email, Required: true},
		{ID: "age", Type: model.Number, Validation: &model.Validation{Min: fptr(18)}},
	}}

	res := Form(form, map[string]any{
		"email": "nope",
		"age":   float64(12),
	})

	assert.False(t, res.OK())
	assert.Equal(t, "name", res.First, "first failing field in form order")
	assert.Equal(t, map[string]string{
		"name":  "This field is required",
		"email": "Please enter a valid email address",
		"age":   "Minimum value is 18",
	}, res.Errors)

	res = Form(form, map[string]any{
		"name":  "Ada",
		"email": "ada@example.com",
	})
	assert.True(t, res.OK())
	assert.Empty(t, res.First)
}

func TestLongValuesDoNotTruncateMessages(t *testing.T) {
	fld := model.Field{
		ID:         "f1",
		Type:       model.LongText,
		Validation: &model.Validation{MaxLength: iptr(10)},
	}
	msg := Field(fld, strings.Repeat("x", 100))
	assert.Equal(t, "Maximum length is 10 characters", msg)
}
