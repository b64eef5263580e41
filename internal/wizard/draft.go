// Package wizard implements the vault creation flow: a draft record, a
// bounded step sequencer over that draft and the handler that turns a
// finished draft into a persisted vault.
package wizard

import (
	"errors"
	"fmt"
	"slices"
)

// Draft field names accepted by SetField.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldUnlockDate  = "unlock_date"
	FieldMessage     = "message"
)

var ErrUnknownField = errors.New("unknown draft field")

// File is a blob waiting to be stored with the vault.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Draft is the transient state the wizard accumulates. It is the only place
// field values live; the sequencer and the submitter read it directly.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	UnlockDate  string   `json:"unlock_date"`
	Message     string   `json:"message"`
	Guardians   []string `json:"guardians"`
	Files       []File   `json:"files"`
}

// SetField assigns one of the scalar text fields by name.
func (d *Draft) SetField(name, value string) error {
	switch name {
	case FieldTitle:
		d.Title = value
	case FieldDescription:
		d.Description = value
	case FieldUnlockDate:
		d.UnlockDate = value
	case FieldMessage:
		d.Message = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// AddGuardian appends email unless it is empty or already listed. Matching is
// exact, so "A@x.com" and "a@x.com" are different guardians. It reports
// whether the list changed.
func (d *Draft) AddGuardian(email string) bool {
	if email == "" || slices.Contains(d.Guardians, email) {
		return false
	}
	d.Guardians = append(d.Guardians, email)
	return true
}

// RemoveGuardian drops email from the list and reports whether it was there.
func (d *Draft) RemoveGuardian(email string) bool {
	i := slices.Index(d.Guardians, email)
	if i < 0 {
		return false
	}
	d.Guardians = slices.Delete(d.Guardians, i, i+1)
	return true
}

// AddFiles appends every file in order. Files without a name are kept; the
// storage layer names them on upload.
func (d *Draft) AddFiles(files ...File) {
	d.Files = append(d.Files, files...)
}

// RemoveFile drops the file at index i.
func (d *Draft) RemoveFile(i int) bool {
	if i < 0 || i >= len(d.Files) {
		return false
	}
	d.Files = slices.Delete(d.Files, i, i+1)
	return true
}
