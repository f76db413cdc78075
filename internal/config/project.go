package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/qrfield/internal/model"
)

type projectFile struct {
	Version int           `yaml:"version"`
	Project projectHeader `yaml:"project"`
	Events  []model.Event `yaml:"events"`
	Forms   []projectForm `yaml:"forms"`
}

type projectHeader struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

type projectForm struct {
	Name   string        `yaml:"name"`
	Fields []model.Field `yaml:"fields"`
}

// LoadProject reads a YAML data dictionary into a model.Project.
func LoadProject(path string) (model.Project, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return model.Project{}, err
	}
	return ParseProject(b)
}

// ParseProject parses a YAML data dictionary. A project without events
// gets a single non-repeating event with id 1.
func ParseProject(b []byte) (model.Project, error) {
	var pf projectFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return model.Project{}, err
	}
	if pf.Version != 1 {
		return model.Project{}, errors.New("project: unsupported version")
	}
	if pf.Project.ID <= 0 {
		return model.Project{}, errors.New("project: id is required")
	}

	p := model.Project{
		ID:     pf.Project.ID,
		Name:   pf.Project.Name,
		Events: pf.Events,
		Fields: map[string]model.Field{},
	}
	if len(p.Events) == 0 {
		p.Events = []model.Event{{ID: 1, Name: "event_1"}}
	}

	for _, pfm := range pf.Forms {
		if pfm.Name == "" {
			return model.Project{}, errors.New("project: form without name")
		}
		form := model.Form{Name: pfm.Name}
		for _, f := range pfm.Fields {
			if f.Name == "" {
				return model.Project{}, fmt.Errorf("project: form %s: field without name", pfm.Name)
			}
			if _, dup := p.Fields[f.Name]; dup {
				return model.Project{}, fmt.Errorf("project: duplicate field %s", f.Name)
			}
			if f.Kind == "" {
				f.Kind = model.KindText
			}
			f.Form = pfm.Name
			p.Fields[f.Name] = f
			form.Fields = append(form.Fields, f.Name)
		}
		p.Forms = append(p.Forms, form)
	}
	return p, nil
}
