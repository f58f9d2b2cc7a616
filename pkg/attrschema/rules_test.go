package attrschema

import (
	"testing"

	"github.com/Solvro/web-eventownik-v2-sub001/models"

	"github.com/stretchr/testify/assert"
)

func ruleOf(typ models.AttributeType, options ...string) Rule {
	return RuleFor(attr(1, typ, true, options...))
}

func TestTextRuleAcceptsAnything(t *testing.T) {
	r := ruleOf(models.AttributeText)
	assert.True(t, r.Required())
	assert.NoError(t, r.Validate("dowolny tekst"))
}

func TestNumberRule(t *testing.T) {
	r := ruleOf(models.AttributeNumber)
	assert.NoError(t, r.Validate("42"))
	assert.NoError(t, r.Validate("-3.5"))
	assert.ErrorIs(t, r.Validate("abc"), ErrInvalidNumber)
	assert.ErrorIs(t, r.Validate("12,5"), ErrInvalidNumber)
}

func TestEmailRule(t *testing.T) {
	r := ruleOf(models.AttributeEmail)
	assert.NoError(t, r.Validate("jan.kowalski@solvro.pl"))
	assert.ErrorIs(t, r.Validate("not-an-email"), ErrInvalidEmail)
	// Display names are not bare addresses.
	assert.ErrorIs(t, r.Validate("Jan <jan@solvro.pl>"), ErrInvalidEmail)
}

func TestTelRule(t *testing.T) {
	r := ruleOf(models.AttributeTel)
	assert.NoError(t, r.Validate("123456789"))
	assert.NoError(t, r.Validate("123 456 789"))
	assert.NoError(t, r.Validate("+48 123 456 789"))
	assert.ErrorIs(t, r.Validate("12 34"), ErrInvalidPhone)
	assert.ErrorIs(t, r.Validate("abc def ghi"), ErrInvalidPhone)
	assert.ErrorIs(t, r.Validate("+48 123 456 789 000 11"), ErrPhoneTooLong)
}

func TestTemporalRules(t *testing.T) {
	date := ruleOf(models.AttributeDate)
	assert.NoError(t, date.Validate("2026-08-27"))
	assert.ErrorIs(t, date.Validate("27.08.2026"), ErrInvalidDate)
	assert.ErrorIs(t, date.Validate("2026-13-01"), ErrInvalidDate)

	datetime := ruleOf(models.AttributeDatetime)
	assert.NoError(t, datetime.Validate("2026-08-27 14:30"))
	// datetime-local inputs post the "T" shape.
	assert.NoError(t, datetime.Validate("2026-08-27T14:30"))
	assert.ErrorIs(t, datetime.Validate("2026-08-27"), ErrInvalidDatetime)

	clock := ruleOf(models.AttributeTime)
	assert.NoError(t, clock.Validate("14:30"))
	assert.NoError(t, clock.Validate("14:30:15"))
	assert.ErrorIs(t, clock.Validate("25:00"), ErrInvalidTime)
}

func TestColorRule(t *testing.T) {
	r := ruleOf(models.AttributeColor)
	assert.NoError(t, r.Validate("#aaBB00"))
	assert.ErrorIs(t, r.Validate("#fff"), ErrInvalidColor)
	assert.ErrorIs(t, r.Validate("red"), ErrInvalidColor)
}

func TestCheckboxRule(t *testing.T) {
	r := ruleOf(models.AttributeCheckbox)
	assert.NoError(t, r.Validate("true"))
	assert.NoError(t, r.Validate("false"))
	assert.ErrorIs(t, r.Validate("yes"), ErrInvalidCheckbox)
}

func TestSelectRule(t *testing.T) {
	r := ruleOf(models.AttributeSelect, "S", "M", "L")
	assert.NoError(t, r.Validate("M"))
	assert.ErrorIs(t, r.Validate("XL"), ErrInvalidOption)
}

func TestMultiselectRule(t *testing.T) {
	r := ruleOf(models.AttributeMultiselect, "wege", "bezglutenowa", "standard")
	assert.NoError(t, r.Validate([]string{"wege", "standard"}))
	assert.NoError(t, r.Validate("wege"))
	assert.ErrorIs(t, r.Validate([]string{"wege", "keto"}), ErrInvalidOption)
}

func TestUnknownTypeGetsPassthrough(t *testing.T) {
	r := RuleFor(attr(1, models.AttributeType("hologram"), true))
	assert.False(t, r.Required())
	assert.NoError(t, r.Validate("anything"))
}
