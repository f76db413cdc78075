// Package model defines the host metadata and record data types.
package model

// FieldKind is the host element type of a field.
type FieldKind string

const (
	KindText  FieldKind = "text"
	KindFile  FieldKind = "file"
	KindNotes FieldKind = "notes"
)

// Field is a single field definition from the project's data dictionary.
type Field struct {
	Name       string    `json:"name" yaml:"name"`
	Form       string    `json:"form" yaml:"-"`
	Kind       FieldKind `json:"type" yaml:"type"`
	Validation string    `json:"validation,omitempty" yaml:"validation,omitempty"`
	Annotation string    `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	Label      string    `json:"label,omitempty" yaml:"label,omitempty"`
}

// Form is an instrument: an ordered list of fields.
type Form struct {
	Name   string   `json:"name" yaml:"name"`
	Fields []string `json:"fields" yaml:"-"`
}

// Event is a data collection event. A repeating event repeats as a whole;
// otherwise RepeatingForms lists the instruments that repeat within it.
type Event struct {
	ID             int64    `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Repeating      bool     `json:"repeating,omitempty" yaml:"repeating,omitempty"`
	RepeatingForms []string `json:"repeating_forms,omitempty" yaml:"repeating_forms,omitempty"`
}

// Project is the metadata of a loaded project.
type Project struct {
	ID     int64            `json:"id"`
	Name   string           `json:"name"`
	Forms  []Form           `json:"forms"`
	Fields map[string]Field `json:"fields"`
	Events []Event          `json:"events"`
}

// HasForm reports whether the project defines the form.
func (p *Project) HasForm(form string) bool {
	for _, f := range p.Forms {
		if f.Name == form {
			return true
		}
	}
	return false
}

// FormFields returns the fields of a form in display order.
func (p *Project) FormFields(form string) []Field {
	for _, f := range p.Forms {
		if f.Name != form {
			continue
		}
		out := make([]Field, 0, len(f.Fields))
		for _, name := range f.Fields {
			if fd, ok := p.Fields[name]; ok {
				out = append(out, fd)
			}
		}
		return out
	}
	return nil
}

// Event returns the event with the given id.
func (p *Project) Event(id int64) (Event, bool) {
	for _, e := range p.Events {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}

// IsRepeatingEvent reports whether the whole event repeats.
func (p *Project) IsRepeatingEvent(eventID int64) bool {
	e, ok := p.Event(eventID)
	return ok && e.Repeating
}

// IsRepeatingForm reports whether form repeats inside a non-repeating event.
func (p *Project) IsRepeatingForm(eventID int64, form string) bool {
	e, ok := p.Event(eventID)
	if !ok || e.Repeating {
		return false
	}
	for _, f := range e.RepeatingForms {
		if f == form {
			return true
		}
	}
	return false
}
