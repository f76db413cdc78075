package model

import "sort"

// Shape is the storage shape of a value within a record.
type Shape int

const (
	ShapeFlat Shape = iota
	ShapeRepeatingEvent
	ShapeRepeatingForm
)

func (s Shape) String() string {
	switch s {
	case ShapeRepeatingEvent:
		return "repeating_event"
	case ShapeRepeatingForm:
		return "repeating_form"
	}
	return "flat"
}

// Locator addresses the values of one record/event/instance. RepeatForm is
// set only for repeating forms; Instance is 1 for flat values.
type Locator struct {
	Record     string `json:"record"`
	EventID    int64  `json:"event_id"`
	RepeatForm string `json:"repeat_form,omitempty"`
	Instance   int    `json:"instance"`
	Repeating  bool   `json:"repeating,omitempty"`
}

// NewLocator resolves the shape for form within eventID and returns the
// locator of instance. A repeating event takes precedence over a repeating
// form.
func NewLocator(p *Project, record string, eventID int64, form string, instance int) Locator {
	if instance < 1 {
		instance = 1
	}
	loc := Locator{Record: record, EventID: eventID, Instance: 1}
	switch {
	case p.IsRepeatingEvent(eventID):
		loc.Repeating = true
		loc.Instance = instance
	case p.IsRepeatingForm(eventID, form):
		loc.Repeating = true
		loc.RepeatForm = form
		loc.Instance = instance
	}
	return loc
}

// Shape reports which of the three storage shapes the locator addresses.
func (l Locator) Shape() Shape {
	switch {
	case !l.Repeating:
		return ShapeFlat
	case l.RepeatForm != "":
		return ShapeRepeatingForm
	}
	return ShapeRepeatingEvent
}

// Key drops the shape flag so locators compare equal to the rows a store
// returns, which carry no shape information.
func (l Locator) Key() Locator {
	l.Repeating = false
	return l
}

// RecordData holds field values keyed by locator.
type RecordData map[Locator]map[string]string

// Value returns the value of field at loc, or "" when unset.
func (d RecordData) Value(loc Locator, field string) string {
	return d[loc.Key()][field]
}

// Set stores a value at loc.
func (d RecordData) Set(loc Locator, field, value string) {
	k := loc.Key()
	if d[k] == nil {
		d[k] = map[string]string{}
	}
	d[k][field] = value
}

// FieldUpdate is a single-field write.
type FieldUpdate struct {
	Locator Locator `json:"locator"`
	Field   string  `json:"field"`
	Value   string  `json:"value"`
}

// Row is one locator's values, used where RecordData needs a list form.
type Row struct {
	Locator Locator           `json:"locator"`
	Values  map[string]string `json:"values"`
}

// Rows flattens the data ordered by event, repeat form and instance.
func (d RecordData) Rows() []Row {
	rows := make([]Row, 0, len(d))
	for loc, vals := range d {
		rows = append(rows, Row{Locator: loc, Values: vals})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].Locator, rows[j].Locator
		if a.Record != b.Record {
			return a.Record < b.Record
		}
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		if a.RepeatForm != b.RepeatForm {
			return a.RepeatForm < b.RepeatForm
		}
		return a.Instance < b.Instance
	})
	return rows
}
