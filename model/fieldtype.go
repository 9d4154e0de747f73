package model

import "fmt"

type FieldType string

const (
	ShortText       FieldType = "short_text"
	LongText        FieldType = "long_text"
	Email           FieldType = "email"
	Phone           FieldType = "phone"
	URL             FieldType = "url"
	Number          FieldType = "number"
	Date            FieldType = "date"
	Time            FieldType = "time"
	Rating          FieldType = "rating"
	Scale           FieldType = "scale"
	MultipleChoice  FieldType = "multiple_choice"
	Checkboxes      FieldType = "checkboxes"
	Dropdown        FieldType = "dropdown"
	FileUpload      FieldType = "file_upload"
	SectionHeading  FieldType = "section_heading"
	Divider         FieldType = "divider"
	DescriptionText FieldType = "description_text"
)

// Category groups field types in the builder palette.
type Category string

const (
	CategoryText   Category = "text"
	CategoryChoice Category = "choice"
	CategoryInput  Category = "input"
	CategoryLayout Category = "layout"
)

// TypeInfo is the registry entry for one field type: display metadata plus
// the default configuration applied when a field of that type is created.
type TypeInfo struct {
	Type     FieldType
	Label    string
	Category Category
	Defaults func() Field
}

// UnknownTypeError signals a corrupted or forward-incompatible schema.
// It is a configuration fault, not a user error.
type UnknownTypeError struct {
	Type FieldType
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown field type %q", e.Type)
}

var registry = map[FieldType]TypeInfo{
	ShortText: {ShortText, "Short Text", CategoryText, func() Field {
		return Field{Type: ShortText, Label: "Short Text", Placeholder: "Type your answer"}
	}},
	LongText: {LongText, "Long Text", CategoryText, func() Field {
		return Field{Type: LongText, Label: "Long Text", Placeholder: "Type your answer", Rows: 4}
	}},
	Email: {Email, "Email", CategoryText, func() Field {
		return Field{Type: Email, Label: "Email", Placeholder: "name@example.com"}
	}},
	Phone: {Phone, "Phone", CategoryText, func() Field {
		return Field{Type: Phone, Label: "Phone", Placeholder: "+1 555 000 0000"}
	}},
	URL: {URL, "Website", CategoryText, func() Field {
		return Field{Type: URL, Label: "Website", Placeholder: "https://example.com"}
	}},
	Number: {Number, "Number", CategoryInput, func() Field {
		return Field{Type: Number, Label: "Number", Placeholder: "0"}
	}},
	Date: {Date, "Date", CategoryInput, func() Field {
		return Field{Type: Date, Label: "Date"}
	}},
	Time: {Time, "Time", CategoryInput, func() Field {
		return Field{Type: Time, Label: "Time"}
	}},
	Rating: {Rating, "Rating", CategoryInput, func() Field {
		return Field{Type: Rating, Label: "Rating", MaxRating: 5}
	}},
	Scale: {Scale, "Opinion Scale", CategoryInput, func() Field {
		return Field{Type: Scale, Label: "Opinion Scale"}
	}},
	MultipleChoice: {MultipleChoice, "Multiple Choice", CategoryChoice, func() Field {
		return Field{Type: MultipleChoice, Label: "Multiple Choice", Options: []string{"Option 1", "Option 2"}}
	}},
	Checkboxes: {Checkboxes, "Checkboxes", CategoryChoice, func() Field {
		return Field{Type: Checkboxes, Label: "Checkboxes", Options: []string{"Option 1", "Option 2"}}
	}},
	Dropdown: {Dropdown, "Dropdown", CategoryChoice, func() Field {
		return Field{Type: Dropdown, Label: "Dropdown", Options: []string{"Option 1", "Option 2"}}
	}},
	FileUpload: {FileUpload, "File Upload", CategoryInput, func() Field {
		return Field{Type: FileUpload, Label: "File Upload", MaxSize: 10 << 20}
	}},
	SectionHeading: {SectionHeading, "Section Heading", CategoryLayout, func() Field {
		return Field{Type: SectionHeading, Label: "Section Heading", Text: "Section"}
	}},
	Divider: {Divider, "Divider", CategoryLayout, func() Field {
		return Field{Type: Divider, Label: "Divider"}
	}},
	DescriptionText: {DescriptionText, "Description", CategoryLayout, func() Field {
		return Field{Type: DescriptionText, Label: "Description", Description: "Add a description"}
	}},
}

// AllTypes lists the palette in a stable builder order.
var AllTypes = []FieldType{
	ShortText, LongText, Email, Phone, URL,
	Number, Date, Time, Rating, Scale,
	MultipleChoice, Checkboxes, Dropdown, FileUpload,
	SectionHeading, Divider, DescriptionText,
}

func TypeOf(t FieldType) (TypeInfo, error) {
	info, ok := registry[t]
	if !ok {
		return TypeInfo{}, UnknownTypeError{t}
	}
	return info, nil
}

func (t FieldType) Valid() bool {
	_, ok := registry[t]
	return ok
}

// LayoutOnly reports whether the type renders structure in the form but
// never collects an answer. The canonical set is section_heading, divider
// and description_text; answers keyed by such fields are always dropped.
func (t FieldType) LayoutOnly() bool {
	switch t {
	case SectionHeading, Divider, DescriptionText:
		return true
	}
	return false
}

// HasOptions reports whether the type requires an ordered option list.
func (t FieldType) HasOptions() bool {
	switch t {
	case MultipleChoice, Checkboxes, Dropdown:
		return true
	}
	return false
}
