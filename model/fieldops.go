package model

import (
	"fmt"

	"github.com/gofrs/uuid"
)

// NewForm returns an empty draft owned by nobody in particular; the storage
// layer assigns timestamps.
func NewForm(title, description string) Form {
	return Form{
		ID:          newID(),
		Title:       title,
		Description: description,
		Status:      StatusDraft,
		Fields:      []Field{},
		Settings: Settings{
			SubmitButtonText:    "Submit",
			ConfirmationMessage: "Thank you for your response!",
		},
	}
}

func newID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// AddField appends a new field of the given type, configured from the
// registry defaults, and returns it.
func (f *Form) AddField(t FieldType) (Field, error) {
	info, err := TypeOf(t)
	if err != nil {
		return Field{}, err
	}
	fld := info.Defaults()
	fld.ID = newID()
	f.Fields = append(f.Fields, fld)
	return fld, nil
}

// UpdateField replaces the field with the same id. The field's type is
// immutable: changing it requires delete and recreate.
func (f *Form) UpdateField(fld Field) error {
	for i, cur := range f.Fields {
		if cur.ID != fld.ID {
			continue
		}
		if cur.Type != fld.Type {
			return fmt.Errorf("field %s: type cannot be changed", fld.ID)
		}
		f.Fields[i] = fld
		return nil
	}
	return fmt.Errorf("field %s: not found", fld.ID)
}

func (f *Form) DeleteField(id string) error {
	for i, cur := range f.Fields {
		if cur.ID == id {
			f.Fields = append(f.Fields[:i], f.Fields[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("field %s: not found", id)
}

// DuplicateField inserts a copy right after the source, with a fresh id.
func (f *Form) DuplicateField(id string) (Field, error) {
	for i, cur := range f.Fields {
		if cur.ID != id {
			continue
		}
		dup := cur
		dup.ID = newID()
		dup.Label = cur.Label + " (copy)"
		dup.Options = append([]string(nil), cur.Options...)
		dup.AllowedTypes = append([]string(nil), cur.AllowedTypes...)
		if cur.Validation != nil {
			v := *cur.Validation
			dup.Validation = &v
		}
		f.Fields = append(f.Fields[:i+1], append([]Field{dup}, f.Fields[i+1:]...)...)
		return dup, nil
	}
	return Field{}, fmt.Errorf("field %s: not found", id)
}

// ReorderFields rearranges fields to match the given id order. The order
// must be a permutation of the current field ids.
func (f *Form) ReorderFields(order []string) error {
	if len(order) != len(f.Fields) {
		return fmt.Errorf("reorder: got %d ids, form has %d fields", len(order), len(f.Fields))
	}
	byID := make(map[string]Field, len(f.Fields))
	for _, fld := range f.Fields {
		byID[fld.ID] = fld
	}
	next := make([]Field, 0, len(order))
	for _, id := range order {
		fld, ok := byID[id]
		if !ok {
			return fmt.Errorf("reorder: unknown or duplicate field %s", id)
		}
		delete(byID, id)
		next = append(next, fld)
	}
	f.Fields = next
	return nil
}
