// Package attrschema turns server-defined attribute descriptors into a
// validation schema at runtime. Attributes are not known at build time, so
// the schema is a map from attribute id to a per-type rule, synthesized
// fresh for every attribute list.
package attrschema

import (
	"errors"
	"net/mail"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/Solvro/web-eventownik-v2-sub001/models"
)

// Layouts the date-like widgets and their rules agree on. The HTML inputs
// submit exactly these shapes (datetime-local uses "T", which the rule also
// accepts).
const (
	DateLayout     = "2006-01-02"
	DatetimeLayout = "2006-01-02 15:04"
	TimeLayout     = "15:04"
)

// TelPattern is the fixed phone pattern every tel attribute validates
// against, together with a 16-rune cap.
var TelPattern = regexp.MustCompile(`^(\+\d{1,3})?\s?\d{3}\s?\d{3}\s?\d{3,4}$`)

const telMaxLen = 16

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// User-facing rule messages (product language).
var (
	ErrRequired        = errors.New("To pole jest wymagane")
	ErrInvalidEmail    = errors.New("Nieprawidłowy adres e-mail")
	ErrInvalidPhone    = errors.New("Nieprawidłowy numer telefonu")
	ErrPhoneTooLong    = errors.New("Numer telefonu jest za długi")
	ErrInvalidNumber   = errors.New("Podana wartość nie jest liczbą")
	ErrInvalidDate     = errors.New("Nieprawidłowa data")
	ErrInvalidDatetime = errors.New("Nieprawidłowa data i godzina")
	ErrInvalidTime     = errors.New("Nieprawidłowa godzina")
	ErrInvalidOption   = errors.New("Wybrana opcja jest niedostępna")
	ErrInvalidColor    = errors.New("Nieprawidłowy kolor")
	ErrInvalidCheckbox = errors.New("Nieprawidłowa wartość pola wyboru")
)

// Rule validates one attribute's scalar value. Values reach Validate already
// normalized (see Normalize): either a string or a []string, never the blank
// sentinel.
type Rule interface {
	// Validate checks a present value. Presence/absence is the schema's
	// concern, not the rule's.
	Validate(value any) error
	// Required reports whether an absent value is a validation failure.
	Required() bool
}

// RuleBuilder produces the rule for one attribute. The builders table below
// is the attribute type registry: one entry per member of the closed type
// set.
type RuleBuilder func(attr models.FormAttribute) Rule

type rule struct {
	required bool
	check    func(value any) error
}

func (r rule) Required() bool { return r.required }

func (r rule) Validate(value any) error {
	if r.check == nil {
		return nil
	}
	return r.check(value)
}

var builders = map[models.AttributeType]RuleBuilder{
	models.AttributeText:        buildFreeText,
	models.AttributeTextarea:    buildFreeText,
	models.AttributeNumber:      buildNumber,
	models.AttributeEmail:       buildEmail,
	models.AttributeTel:         buildTel,
	models.AttributeDate:        buildDate,
	models.AttributeDatetime:    buildDatetime,
	models.AttributeTime:        buildTime,
	models.AttributeColor:       buildColor,
	models.AttributeCheckbox:    buildCheckbox,
	models.AttributeSelect:      buildSelect,
	models.AttributeMultiselect: buildMultiselect,
	// file is validated out-of-band by the attachment manager and block has
	// no scalar constraint beyond "a block id string"; neither may ever
	// block a submission.
	models.AttributeFile:  buildPassthrough,
	models.AttributeBlock: buildPassthrough,
}

// RuleFor returns the validation rule for one attribute. Unknown types get a
// passthrough rule so that a newer backend cannot wedge older clients.
func RuleFor(attr models.FormAttribute) Rule {
	if build, ok := builders[attr.Type]; ok {
		return build(attr)
	}
	return rule{required: false}
}

func buildPassthrough(models.FormAttribute) Rule {
	return rule{required: false}
}

func buildFreeText(attr models.FormAttribute) Rule {
	return rule{required: attr.IsRequired}
}

func buildNumber(attr models.FormAttribute) Rule {
	return rule{required: attr.IsRequired, check: func(v any) error {
		s, ok := v.(string)
		if !ok {
			return ErrInvalidNumber
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return ErrInvalidNumber
		}
		return nil
	}}
}

func buildEmail(attr models.FormAttribute) Rule {
	return rule{required: attr.IsRequired, check: func(v any) error {
		s, ok := v.(string)
		if !ok {
			return ErrInvalidEmail
		}
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return ErrInvalidEmail
		}
		return nil
	}}
}

func buildTel(attr models.FormAttribute) Rule {
	return rule{required: attr.IsRequired, check: func(v any) error {
		s, ok := v.(string)
		if !ok {
			return ErrInvalidPhone
		}
		if utf8.RuneCountInString(s) > telMaxLen {
			return ErrPhoneTooLong
		}
		if !TelPattern.MatchString(s) {
			return ErrInvalidPhone
		}
		return nil
	}}
}

func buildDate(attr models.FormAttribute) Rule {
	return temporalRule(attr, ErrInvalidDate, DateLayout)
}

func buildDatetime(attr models.FormAttribute) Rule {
	// datetime-local inputs post "2006-01-02T15:04"; the canonical wire
	// format uses a space. Both parse.
	return temporalRule(attr, ErrInvalidDatetime, DatetimeLayout, "2006-01-02T15:04")
}

func buildTime(attr models.FormAttribute) Rule {
	return temporalRule(attr, ErrInvalidTime, TimeLayout, "15:04:05")
}

func temporalRule(attr models.FormAttribute, invalid error, layouts ...string) Rule {
	return rule{required: attr.IsRequired, check: func(v any) error {
		s, ok := v.(string)
		if !ok {
			return invalid
		}
		for _, layout := range layouts {
			if _, err := time.Parse(layout, s); err == nil {
				return nil
			}
		}
		return invalid
	}}
}

func buildColor(attr models.FormAttribute) Rule {
	return rule{required: attr.IsRequired, check: func(v any) error {
		s, ok := v.(string)
		if !ok || !colorPattern.MatchString(s) {
			return ErrInvalidColor
		}
		return nil
	}}
}

func buildCheckbox(attr models.FormAttribute) Rule {
	// Values arrive from the wire as strings; bools are already folded to
	// "true"/"false" by Normalize.
	return rule{required: attr.IsRequired, check: func(v any) error {
		s, ok := v.(string)
		if !ok || (s != "true" && s != "false") {
			return ErrInvalidCheckbox
		}
		return nil
	}}
}

func buildSelect(attr models.FormAttribute) Rule {
	options := attr.Options
	return rule{required: attr.IsRequired, check: func(v any) error {
		s, ok := v.(string)
		if !ok {
			return ErrInvalidOption
		}
		for _, opt := range options {
			if s == opt {
				return nil
			}
		}
		return ErrInvalidOption
	}}
}

func buildMultiselect(attr models.FormAttribute) Rule {
	options := attr.Options
	allowed := func(s string) bool {
		for _, opt := range options {
			if s == opt {
				return true
			}
		}
		return false
	}
	return rule{required: attr.IsRequired, check: func(v any) error {
		switch vv := v.(type) {
		case string:
			if !allowed(vv) {
				return ErrInvalidOption
			}
		case []string:
			for _, s := range vv {
				if !allowed(s) {
					return ErrInvalidOption
				}
			}
		default:
			return ErrInvalidOption
		}
		return nil
	}}
}
