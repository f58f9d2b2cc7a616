// Package widgets renders the input widget for one attribute. Dispatch is an
// exhaustive switch over the closed attribute type set; the schema decides
// what is valid, this package only decides what the user sees.
package widgets

import (
	"bytes"
	"html/template"
	"time"

	"github.com/Solvro/web-eventownik-v2-sub001/models"
	"github.com/Solvro/web-eventownik-v2-sub001/pkg/attrschema"
)

// Field is the bound state of one widget: its current value and the error it
// should display, if any.
type Field struct {
	Value any
	Error string
}

// Context supplies the data some widgets need beyond their own field:
// existing participant values (edit mode) and resolved block trees. A block
// attribute whose tree is missing from Blocks renders an explicit failure
// placeholder -- a missing entry means an upstream fetch failed and the user
// must see that.
type Context struct {
	Participant *models.PublicParticipant
	Blocks      map[models.AttributeID][]models.PublicBlock
}

// Render produces the HTML widget for one attribute. Unknown attribute types
// render nothing; models.AttributeType.Valid is checked at decode time, so an
// unknown type here means a backend newer than this client, which must not
// break the rest of the form.
func Render(attr models.FormAttribute, field Field, ctx *Context) (template.HTML, error) {
	if ctx == nil {
		ctx = &Context{}
	}

	switch attr.Type {
	case models.AttributeText:
		return execInput(attr, field, "text", false)
	case models.AttributeEmail:
		return execInput(attr, field, "email", false)
	case models.AttributeTel:
		return exec("input", inputData{
			Name:      attr.ID.String(),
			Label:     attr.Name,
			InputType: "tel",
			Value:     stringValue(field.Value),
			Required:  attr.IsRequired,
			Pattern:   attrschema.TelPattern.String(),
			MaxLen:    16,
			Error:     field.Error,
		})
	case models.AttributeNumber:
		// Focused number inputs change value on scroll-wheel events; the
		// widget blurs itself so scrolling the page cannot edit the field.
		return execInput(attr, field, "number", true)
	case models.AttributeDate:
		return exec("input", temporalData(attr, field, "date", attrschema.DateLayout))
	case models.AttributeDatetime:
		return exec("input", temporalData(attr, field, "datetime-local", attrschema.DatetimeLayout))
	case models.AttributeTime:
		return exec("input", temporalData(attr, field, "time", attrschema.TimeLayout))
	case models.AttributeTextarea:
		return exec("textarea", inputData{
			Name:     attr.ID.String(),
			Label:    attr.Name,
			Value:    stringValue(field.Value),
			Required: attr.IsRequired,
			Error:    field.Error,
		})
	case models.AttributeSelect:
		return exec("select", inputData{
			Name:     attr.ID.String(),
			Label:    attr.Name,
			Value:    stringValue(field.Value),
			Options:  attr.Options,
			Required: attr.IsRequired,
			// Native selects cannot be emptied once set; optional ones get
			// a synthetic "none" option carrying the blank sentinel.
			Clearable: !attr.IsRequired,
			Error:     field.Error,
		})
	case models.AttributeMultiselect:
		return exec("multiselect", inputData{
			Name:     attr.ID.String(),
			Label:    attr.Name,
			Values:   sliceValue(field.Value),
			Options:  attr.Options,
			Required: attr.IsRequired,
			Error:    field.Error,
		})
	case models.AttributeCheckbox:
		return exec("checkbox", inputData{
			Name:     attr.ID.String(),
			Label:    attr.Name,
			Checked:  truthy(field.Value),
			Required: attr.IsRequired,
			Error:    field.Error,
		})
	case models.AttributeColor:
		return exec("color", inputData{
			Name:     attr.ID.String(),
			Label:    attr.Name,
			Value:    stringValue(field.Value),
			Required: attr.IsRequired,
			Error:    field.Error,
		})
	case models.AttributeFile:
		// The scalar form never carries the binary; the attachment manager
		// owns it. The widget only offers upload/clear and the last-saved
		// timestamp when editing.
		lastSaved, _ := ctx.Participant.UpdatedAt(attr.ID)
		return exec("file", inputData{
			Name:      attr.ID.String(),
			Label:     attr.Name,
			Required:  attr.IsRequired,
			LastSaved: lastSaved,
			Error:     field.Error,
		})
	case models.AttributeBlock:
		blocks, ok := ctx.Blocks[attr.ID]
		if !ok || blocks == nil || ctx.Participant == nil {
			return exec("block_failure", inputData{
				Name:  attr.ID.String(),
				Label: attr.Name,
			})
		}
		return exec("block", blockData{
			Name:     attr.ID.String(),
			Label:    attr.Name,
			Roots:    blocks,
			Selected: stringValue(field.Value),
			Error:    field.Error,
		})
	}
	return "", nil
}

func execInput(attr models.FormAttribute, field Field, inputType string, noWheel bool) (template.HTML, error) {
	return exec("input", inputData{
		Name:      attr.ID.String(),
		Label:     attr.Name,
		InputType: inputType,
		Value:     stringValue(field.Value),
		Required:  attr.IsRequired,
		NoWheel:   noWheel,
		Error:     field.Error,
	})
}

func exec(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// temporalData reformats any time-shaped incoming value to the exact string
// the input type expects. A raw time.Time (or an RFC3339/with-seconds string
// from the backend) must never reach the input verbatim.
func temporalData(attr models.FormAttribute, field Field, inputType, layout string) inputData {
	value := stringValue(field.Value)
	if t, ok := asTime(field.Value); ok {
		value = t.Format(layout)
	}
	if inputType == "datetime-local" && value != "" {
		// The input itself wants the "T" separator even though the wire
		// format uses a space.
		if t, err := time.Parse(attrschema.DatetimeLayout, value); err == nil {
			value = t.Format("2006-01-02T15:04")
		}
	}
	return inputData{
		Name:      attr.ID.String(),
		Label:     attr.Name,
		InputType: inputType,
		Value:     value,
		Required:  attr.IsRequired,
		Error:     field.Error,
	}
}

func asTime(v any) (time.Time, bool) {
	switch vv := v.(type) {
	case time.Time:
		return vv, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, vv); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func stringValue(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case nil:
		return ""
	default:
		return ""
	}
}

func sliceValue(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case string:
		if vv == "" {
			return nil
		}
		return []string{vv}
	}
	return nil
}

// truthy coerces checkbox values: both bool true and the string "true" count
// as checked, because stored pivot values come back from the wire as strings.
func truthy(v any) bool {
	switch vv := v.(type) {
	case bool:
		return vv
	case string:
		return vv == "true"
	}
	return false
}
