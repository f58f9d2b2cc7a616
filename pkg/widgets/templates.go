package widgets

import (
	"html/template"

	"github.com/Solvro/web-eventownik-v2-sub001/models"
)

// inputData feeds every scalar widget template.
type inputData struct {
	Name      string
	Label     string
	InputType string
	Value     string
	Values    []string
	Options   []string
	Checked   bool
	Required  bool
	Clearable bool
	Pattern   string
	MaxLen    int
	NoWheel   bool
	Error     string
	LastSaved string
}

// blockNodeData feeds the recursive block tree template. Name and Selected
// ride along so nested radio inputs stay bound to the same field.
type blockNodeData struct {
	Block    models.PublicBlock
	Name     string
	Selected string
}

// blockData is the root payload of the block widget.
type blockData struct {
	Name     string
	Label    string
	Roots    []models.PublicBlock
	Selected string
	Error    string
}

func childNode(parent blockNodeData, b models.PublicBlock) blockNodeData {
	return blockNodeData{Block: b, Name: parent.Name, Selected: parent.Selected}
}

func rootNode(d blockData, b models.PublicBlock) blockNodeData {
	return blockNodeData{Block: b, Name: d.Name, Selected: d.Selected}
}

var tmpl = template.Must(template.New("widgets").Funcs(template.FuncMap{
	"childNode": childNode,
	"rootNode":  rootNode,
}).Parse(`
{{define "field_error"}}{{if .}}<p class="field-error">{{.}}</p>{{end}}{{end}}

{{define "input"}}
<div class="form-field" data-field="{{.Name}}">
  <label for="attr-{{.Name}}">{{.Label}}{{if .Required}} <span class="required">*</span>{{end}}</label>
  <input id="attr-{{.Name}}" name="{{.Name}}" type="{{.InputType}}" value="{{.Value}}"
    {{- if .Required}} required{{end}}
    {{- if .Pattern}} pattern="{{.Pattern}}"{{end}}
    {{- if .MaxLen}} maxlength="{{.MaxLen}}"{{end}}
    {{- if .NoWheel}} onwheel="this.blur()"{{end}} />
  {{template "field_error" .Error}}
</div>
{{end}}

{{define "textarea"}}
<div class="form-field" data-field="{{.Name}}">
  <label for="attr-{{.Name}}">{{.Label}}{{if .Required}} <span class="required">*</span>{{end}}</label>
  <textarea id="attr-{{.Name}}" name="{{.Name}}" rows="4"{{if .Required}} required{{end}}>{{.Value}}</textarea>
  {{template "field_error" .Error}}
</div>
{{end}}

{{define "select"}}
<div class="form-field" data-field="{{.Name}}">
  <label for="attr-{{.Name}}">{{.Label}}{{if .Required}} <span class="required">*</span>{{end}}</label>
  <select id="attr-{{.Name}}" name="{{.Name}}"{{if .Required}} required{{end}}>
    {{$value := .Value}}
    {{range .Options}}<option value="{{.}}"{{if eq . $value}} selected{{end}}>{{.}}</option>
    {{end}}
    {{- if .Clearable}}<option value=" "{{if eq .Value " "}} selected{{end}}>&mdash;</option>{{end}}
  </select>
  {{template "field_error" .Error}}
</div>
{{end}}

{{define "multiselect"}}
<fieldset class="form-field form-field-multiselect" data-field="{{.Name}}">
  <legend>{{.Label}}{{if .Required}} <span class="required">*</span>{{end}}</legend>
  {{$d := .}}
  {{range .Options}}
  <label class="checkbox-option">
    <input type="checkbox" name="{{$d.Name}}" value="{{.}}"{{range $d.Values}}{{if eq . $}} checked{{end}}{{end}} />
    {{.}}
  </label>
  {{end}}
  {{template "field_error" .Error}}
</fieldset>
{{end}}

{{define "checkbox"}}
<div class="form-field form-field-checkbox" data-field="{{.Name}}">
  <label class="checkbox-option">
    <input type="hidden" name="{{.Name}}" value="false" />
    <input type="checkbox" name="{{.Name}}" value="true"{{if .Checked}} checked{{end}} />
    {{.Label}}{{if .Required}} <span class="required">*</span>{{end}}
  </label>
  {{template "field_error" .Error}}
</div>
{{end}}

{{define "color"}}
<div class="form-field" data-field="{{.Name}}">
  <label for="attr-{{.Name}}">{{.Label}}{{if .Required}} <span class="required">*</span>{{end}}</label>
  <input id="attr-{{.Name}}" name="{{.Name}}" type="color" class="color-input" style="height: 3rem" value="{{.Value}}" />
  {{template "field_error" .Error}}
</div>
{{end}}

{{define "file"}}
<div class="form-field form-field-file" data-field="{{.Name}}">
  <label for="attr-{{.Name}}">{{.Label}}{{if .Required}} <span class="required">*</span>{{end}}</label>
  <input id="attr-{{.Name}}" type="file" data-upload-field="{{.Name}}" />
  {{if .LastSaved}}<p class="file-saved-at">Ostatnio zapisano: {{.LastSaved}}</p>{{end}}
  <button type="button" class="file-clear" data-clear-field="{{.Name}}">Usuń plik</button>
  <details class="drawing-widget">
    <summary>albo narysuj odpowiedź</summary>
    <canvas data-drawing-field="{{.Name}}" width="600" height="400"></canvas>
    <div class="drawing-controls">
      <button type="button" data-drawing-undo="{{.Name}}">Cofnij</button>
      <button type="button" data-drawing-clear="{{.Name}}">Wyczyść</button>
    </div>
  </details>
  {{template "field_error" .Error}}
</div>
{{end}}

{{define "block_failure"}}
<div class="form-field form-field-block" data-field="{{.Name}}">
  <label>{{.Label}}</label>
  <p class="field-error">Nie udało się pobrać danych tego bloku. Odśwież stronę i spróbuj ponownie.</p>
</div>
{{end}}

{{define "block_node"}}
<li class="block-node">
  <label class="block-option">
    <input type="radio" name="{{.Name}}" value="{{.Block.ID}}"
      {{- if eq .Selected (printf "%d" .Block.ID)}} checked{{end}}
      {{- if .Block.IsFull}} disabled{{end}} />
    <span class="block-name">{{.Block.Name}}</span>
    <span class="block-occupancy">{{.Block.OccupancyLabel}}</span>
  </label>
  {{if .Block.Participants}}
  <ul class="block-participants">
    {{range .Block.Participants}}<li>{{.Label}}</li>{{end}}
  </ul>
  {{end}}
  {{if .Block.Children}}
  <ul class="block-children">
    {{$parent := .}}
    {{range .Block.Children}}{{template "block_node" (childNode $parent .)}}{{end}}
  </ul>
  {{end}}
</li>
{{end}}

{{define "block"}}
<div class="form-field form-field-block" data-field="{{.Name}}" data-block-attribute="{{.Name}}">
  <label>{{.Label}}</label>
  <ul class="block-tree">
    {{$d := .}}
    {{range .Roots}}{{template "block_node" (rootNode $d .)}}{{end}}
  </ul>
  {{template "field_error" .Error}}
</div>
{{end}}
`))
