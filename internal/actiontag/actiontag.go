// Package actiontag discovers @QRCODE action tags in field annotations.
package actiontag

import (
	"regexp"
	"strings"

	"github.com/rcliao/qrfield/internal/model"
)

// Tag is the action tag name. Matching is case-sensitive.
const Tag = "@QRCODE"

// RE2 has no backreferences, so each quote style gets its own group.
var tagRegex = regexp.MustCompile(`(?m)` + Tag + `\s*=\s*(?:"([a-z0-9_]+)"|'([a-z0-9_]+)')`)

var illegalName = regexp.MustCompile(`[^a-z0-9_]`)

// Scan returns the directives declared on the fields of form. Only text
// fields without validation and file upload fields are eligible, and the
// source must be a field of the same form.
func Scan(p *model.Project, form string) []model.Directive {
	if p == nil || !p.HasForm(form) {
		return nil
	}
	fields := p.FormFields(form)
	onForm := make(map[string]bool, len(fields))
	for _, f := range fields {
		onForm[f.Name] = true
	}

	var out []model.Directive
	for _, f := range fields {
		if !eligible(f) {
			continue
		}
		for _, m := range tagRegex.FindAllStringSubmatch(f.Annotation, -1) {
			src := m[1]
			if src == "" {
				src = m[2]
			}
			if !onForm[src] {
				continue
			}
			out = append(out, model.Directive{
				Field:  illegalName.ReplaceAllString(f.Name, ""),
				Kind:   f.Kind,
				Source: src,
			})
		}
	}
	return out
}

func eligible(f model.Field) bool {
	if f.Validation != "" {
		return false
	}
	return f.Kind == model.KindText || f.Kind == model.KindFile
}

// Script returns the page snippet that removes the upload controls of
// file-kind destinations, or "" when there are none.
func Script(directives []model.Directive) string {
	var js []string
	for _, d := range directives {
		if d.Kind != model.KindFile {
			continue
		}
		js = append(js,
			"$('#"+d.Field+"-linknew a.fileuploadlink').remove()",
			"$('#"+d.Field+"-linknew span').not('.edoc-link').remove()",
		)
	}
	if len(js) == 0 {
		return ""
	}
	return "<script>$(function() { " + strings.Join(js, "; ") + " });</script>"
}
