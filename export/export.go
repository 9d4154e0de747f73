// Package export renders a form's collected responses as a CSV document.
// Column order and escaping are part of the product's contract: exports are
// re-imported into spreadsheets and scripts, so the output must round-trip.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/formloom/formloom/model"
)

const noAnswer = "(No answer)"

// ResponsesCSV renders one row per response, in the order given (callers
// fetch newest first; the exporter preserves, never defines, that order).
// It returns nil when there are no responses.
func ResponsesCSV(fields []model.Field, responses []model.Response) ([]byte, error) {
	if len(responses) == 0 {
		return nil, nil
	}

	columns := make([]model.Field, 0, len(fields))
	for _, f := range fields {
		if !f.Type.LayoutOnly() {
			columns = append(columns, f)
		}
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	header := []string{"Response ID", "User Name", "User Email", "Submitted At"}
	for _, f := range columns {
		header = append(header, f.Label)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, r := range responses {
		row := []string{
			r.ID,
			r.Metadata.Name,
			r.Metadata.Email,
			formatTimestamp(r.SubmittedAt),
		}
		for _, f := range columns {
			row = append(row, formatCell(r.Answers[f.ID]))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatCell(v any) string {
	if model.IsEmptyAnswer(v) {
		return noAnswer
	}
	switch v := v.(type) {
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = formatScalar(e)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(v, ", ")
	case model.UploadedFile:
		return formatFile(v.FileName, v.URL)
	case map[string]any:
		// uploaded-file descriptors come back from the store as plain maps
		if name, ok := v["fileName"].(string); ok {
			url, _ := v["url"].(string)
			return formatFile(name, url)
		}
		return fmt.Sprint(v)
	}
	return formatScalar(v)
}

func formatFile(name, url string) string {
	if url == "" {
		url = "URL not available"
	}
	return fmt.Sprintf("%s (%s)", name, url)
}

func formatScalar(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(v)
}

// formatTimestamp tolerates the three shapes submittedAt has shipped in:
// a time.Time, an RFC 3339 string, and a store-native {seconds, nanos}
// map. Anything unparseable degrades to N/A instead of failing the export.
func formatTimestamp(v any) string {
	switch v := v.(type) {
	case time.Time:
		return v.UTC().Format("2006-01-02 15:04:05")
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC().Format("2006-01-02 15:04:05")
		}
	case map[string]any:
		if secs, ok := v["seconds"].(float64); ok {
			return time.Unix(int64(secs), 0).UTC().Format("2006-01-02 15:04:05")
		}
	}
	return "N/A"
}
