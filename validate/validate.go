// Package validate evaluates a form's field rules against submitted values.
// All checks are pure and synchronous; one error surfaces per field, the
// first failing rule wins.
package validate

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/formloom/formloom/model"
)

const (
	msgRequired     = "This field is required"
	msgEmail        = "Please enter a valid email address"
	msgURL          = "Please enter a valid URL"
	msgNumber       = "Please enter a valid number"
	msgBadFormat    = "Invalid format"
	msgFileTooLarge = "File exceeds the maximum allowed size"
	msgFileType     = "This file type is not allowed"
)

var reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Result is the outcome of validating a full submission.
type Result struct {
	// Errors maps field id to its single error message.
	Errors map[string]string
	// First is the id of the first failing field in form order, so callers
	// can implement "jump to first error".
	First string
}

func (r Result) OK() bool { return len(r.Errors) == 0 }

// Form checks every field of the form against the raw answer map and
// collects one error per failing field.
func Form(form model.Form, answers map[string]any) Result {
	res := Result{Errors: map[string]string{}}
	for _, fld := range form.Fields {
		msg := Field(fld, answers[fld.ID])
		if msg == "" {
			continue
		}
		res.Errors[fld.ID] = msg
		if res.First == "" {
			res.First = fld.ID
		}
	}
	return res
}

// Field validates one answer value against its field definition. It returns
// the empty string when the value is acceptable.
func Field(f model.Field, value any) string {
	if f.Type.LayoutOnly() {
		return ""
	}

	if model.IsEmptyAnswer(value) {
		if f.Required {
			return msgRequired
		}
		// empty optional fields pass, no further rules apply
		return ""
	}

	if msg := checkFormat(f, value); msg != "" {
		return msg
	}
	return checkPattern(f, value)
}

func checkFormat(f model.Field, value any) string {
	switch f.Type {
	case model.Email:
		if !reEmail.MatchString(asString(value)) {
			return msgEmail
		}
	case model.URL:
		u, err := url.Parse(asString(value))
		if err != nil || !u.IsAbs() || u.Host == "" {
			return msgURL
		}
	case model.Number:
		n, ok := asNumber(value)
		if !ok {
			return msgNumber
		}
		if v := f.Validation; v != nil {
			if v.Min != nil && n < *v.Min {
				return fmt.Sprintf("Minimum value is %s", trimFloat(*v.Min))
			}
			if v.Max != nil && n > *v.Max {
				return fmt.Sprintf("Maximum value is %s", trimFloat(*v.Max))
			}
		}
	case model.ShortText, model.LongText:
		if v := f.Validation; v != nil {
			n := utf8.RuneCountInString(asString(value))
			if v.MinLength != nil && n < *v.MinLength {
				return fmt.Sprintf("Minimum length is %d characters", *v.MinLength)
			}
			if v.MaxLength != nil && n > *v.MaxLength {
				return fmt.Sprintf("Maximum length is %d characters", *v.MaxLength)
			}
		}
	case model.FileUpload:
		if fh, ok := value.(model.FileHandle); ok {
			if f.MaxSize > 0 && fh.Size > f.MaxSize {
				return msgFileTooLarge
			}
			if len(f.AllowedTypes) > 0 && !contains(f.AllowedTypes, fh.ContentType) {
				return msgFileType
			}
		}
	}
	return ""
}

func checkPattern(f model.Field, value any) string {
	v := f.Validation
	if v == nil || v.Pattern == "" {
		return ""
	}
	re, err := regexp.Compile(v.Pattern)
	if err != nil {
		// a broken pattern is a schema problem, not the respondent's
		return ""
	}
	if re.MatchString(asString(value)) {
		return ""
	}
	if v.ErrorMessage != "" {
		return v.ErrorMessage
	}
	return msgBadFormat
}

func asString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return trimFloat(v)
	default:
		return fmt.Sprint(v)
	}
}

func asNumber(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case int:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(v, 64)
		return n, err == nil && !math.IsNaN(n) && !math.IsInf(n, 0)
	}
	return 0, false
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
