package widgets

import (
	"strings"
	"testing"
	"time"

	"github.com/Solvro/web-eventownik-v2-sub001/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formAttr(id int64, typ models.AttributeType, required bool, options ...string) models.FormAttribute {
	return models.FormAttribute{
		Attribute: models.Attribute{
			ID:         models.AttributeID(id),
			Name:       "Pole",
			Type:       typ,
			Options:    options,
			IsRequired: required,
		},
	}
}

func render(t *testing.T, attr models.FormAttribute, field Field, ctx *Context) string {
	t.Helper()
	html, err := Render(attr, field, ctx)
	require.NoError(t, err)
	return string(html)
}

func TestOptionalSelectGetsBlankSentinelOption(t *testing.T) {
	out := render(t, formAttr(5, models.AttributeSelect, false, "S", "M"), Field{}, nil)
	assert.Contains(t, out, `<option value=" "`)
	assert.Contains(t, out, "&mdash;")
}

func TestRequiredSelectHasNoBlankOption(t *testing.T) {
	out := render(t, formAttr(5, models.AttributeSelect, true, "S", "M"), Field{}, nil)
	assert.NotContains(t, out, `<option value=" "`)
	assert.Contains(t, out, "required")
}

func TestSelectMarksCurrentValueSelected(t *testing.T) {
	out := render(t, formAttr(5, models.AttributeSelect, true, "S", "M"), Field{Value: "M"}, nil)
	assert.Contains(t, out, `<option value="M" selected>`)
}

func TestNumberInputBlursOnWheel(t *testing.T) {
	out := render(t, formAttr(3, models.AttributeNumber, false), Field{}, nil)
	assert.Contains(t, out, `onwheel="this.blur()"`)
	assert.Contains(t, out, `type="number"`)
}

func TestTelInputCarriesPatternAndMaxLength(t *testing.T) {
	out := render(t, formAttr(4, models.AttributeTel, true), Field{}, nil)
	assert.Contains(t, out, `type="tel"`)
	assert.Contains(t, out, `pattern=`)
	assert.Contains(t, out, `maxlength="16"`)
}

func TestTemporalValuesReformattedForInput(t *testing.T) {
	at := time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)

	out := render(t, formAttr(1, models.AttributeDate, false), Field{Value: at}, nil)
	assert.Contains(t, out, `value="2026-08-27"`)

	out = render(t, formAttr(2, models.AttributeDatetime, false), Field{Value: "2026-08-27 14:30"}, nil)
	assert.Contains(t, out, `value="2026-08-27T14:30"`)

	out = render(t, formAttr(3, models.AttributeTime, false), Field{Value: at.Format(time.RFC3339)}, nil)
	assert.Contains(t, out, `value="14:30"`)
}

func TestCheckboxPostsExplicitFalse(t *testing.T) {
	out := render(t, formAttr(6, models.AttributeCheckbox, false), Field{Value: "true"}, nil)
	assert.Contains(t, out, `type="hidden" name="6" value="false"`)
	assert.Contains(t, out, `value="true" checked`)
}

func TestMultiselectChecksStoredValues(t *testing.T) {
	out := render(t, formAttr(8, models.AttributeMultiselect, false, "wege", "standard"),
		Field{Value: []string{"wege"}}, nil)
	assert.Equal(t, 1, strings.Count(out, "checked"))
	assert.Contains(t, out, `value="wege" checked`)
}

func TestFileWidgetShowsLastSavedWhenEditing(t *testing.T) {
	participant := &models.PublicParticipant{
		Slug: "abc",
		Attributes: []models.ParticipantAttribute{
			{ID: 9, Type: models.AttributeFile, Meta: models.ParticipantAttributeMeta{PivotUpdatedAt: "2026-08-01 10:00"}},
		},
	}
	out := render(t, formAttr(9, models.AttributeFile, false), Field{}, &Context{Participant: participant})
	assert.Contains(t, out, "Ostatnio zapisano: 2026-08-01 10:00")
	assert.Contains(t, out, `data-upload-field="9"`)
	assert.Contains(t, out, `data-drawing-field="9"`)
}

func TestBlockWithoutDataRendersFailurePlaceholder(t *testing.T) {
	attr := formAttr(7, models.AttributeBlock, true)

	// No resolved tree for the attribute.
	out := render(t, attr, Field{}, &Context{Participant: &models.PublicParticipant{}})
	assert.Contains(t, out, "Nie udało się pobrać danych tego bloku")
	assert.NotContains(t, out, `type="radio"`)

	// Tree present but participant data missing.
	blocks := map[models.AttributeID][]models.PublicBlock{7: {{ID: 1, Name: "Sala A"}}}
	out = render(t, attr, Field{}, &Context{Blocks: blocks})
	assert.Contains(t, out, "Nie udało się pobrać danych tego bloku")
}

func TestBlockTreeRendersOccupancyAndDisablesFull(t *testing.T) {
	two, three := 2, 3
	blocks := map[models.AttributeID][]models.PublicBlock{7: {
		{
			ID: 1, Name: "Pokój pełny", Capacity: &two,
			Meta:         models.BlockMeta{ParticipantsInBlockCount: 2},
			Participants: []models.BlockParticipant{{ID: 10, Label: "anna@x.pl"}},
		},
		{
			ID: 2, Name: "Pokój wolny", Capacity: &three,
			Meta:     models.BlockMeta{ParticipantsInBlockCount: 1},
			Children: []models.PublicBlock{{ID: 3, Name: "Łóżko 1"}},
		},
	}}
	ctx := &Context{Participant: &models.PublicParticipant{}, Blocks: blocks}

	out := render(t, formAttr(7, models.AttributeBlock, true), Field{Value: "2"}, ctx)

	assert.Contains(t, out, "2/2")
	assert.Contains(t, out, "1/3")
	assert.Contains(t, out, `value="1" disabled`)
	assert.Contains(t, out, `value="2" checked`)
	assert.Contains(t, out, "anna@x.pl")
	// Unlimited child renders a bare count.
	assert.Contains(t, out, "Łóżko 1")
	assert.Contains(t, out, `<span class="block-occupancy">0</span>`)
}

func TestUnknownTypeRendersNothing(t *testing.T) {
	html, err := Render(formAttr(1, models.AttributeType("hologram"), false), Field{}, nil)
	require.NoError(t, err)
	assert.Empty(t, string(html))
}
