package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// DefaultLocale is used when an entity was loaded without a request locale
var DefaultLocale = "en"

// ErrUnknownField is returned when a snapshot names a column the model does not have
var ErrUnknownField = errors.New("unknown field")

// baseExcludedFields are never versioned for any subject
var baseExcludedFields = []string{"id", "created_at", "updated_at"}

// Translations holds one value per locale code
type Translations map[string]string

// Get returns the value for locale, falling back to DefaultLocale
func (t Translations) Get(locale string) string {
	if v, ok := t[locale]; ok {
		return v
	}
	return t[DefaultLocale]
}

// UnmarshalJSON accepts legacy per-locale values that are not strings. A
// one-element string list is unwrapped; any other value is kept as its
// compact JSON text so nothing is lost.
func (t *Translations) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*t = nil
		return nil
	}
	out := make(Translations, len(raw))
	for locale, v := range raw {
		out[locale] = translationText(v)
	}
	*t = out
	return nil
}

func translationText(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(v, &list); err == nil && len(list) == 1 {
		return list[0]
	}
	trimmed := bytes.TrimSpace(v)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

func (t Translations) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	return marshalColumn(t)
}

func (t *Translations) Scan(src any) error {
	return scanColumn(src, t)
}

// Tracker remembers the last persisted field values of a model so dirty
// fields can be derived. Embed it with `gorm:"-" json:"-"`.
type Tracker struct {
	original Snapshot
	locale   string
}

// Remember records current as the clean state
func (t *Tracker) Remember(current Snapshot) {
	t.original = current.Clone()
}

// Dirty returns the fields of current that differ from the remembered state.
// A model that was never remembered is entirely dirty.
func (t *Tracker) Dirty(current Snapshot) Snapshot {
	out := Snapshot{}
	for k, v := range current {
		if t.original == nil {
			out[k] = v
			continue
		}
		old, ok := t.original[k]
		if !ok || !reflect.DeepEqual(old, v) {
			out[k] = v
		}
	}
	return out
}

// Locale returns the locale the model is being edited in
func (t *Tracker) Locale() string {
	if t.locale == "" {
		return DefaultLocale
	}
	return t.locale
}

// SetLocale sets the editing locale
func (t *Tracker) SetLocale(locale string) {
	t.locale = locale
}

// FieldsOf reads every gorm column of model into a Snapshot. Values are
// normalized through encoding/json so they compare equal to snapshots read
// back from the database.
func FieldsOf(model any) Snapshot {
	out := Snapshot{}
	v := reflect.Indirect(reflect.ValueOf(model))
	if v.Kind() != reflect.Struct {
		return out
	}
	collectFields(v, out)
	return out
}

func collectFields(v reflect.Value, out Snapshot) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("gorm")
		if tag == "-" {
			continue
		}
		col := columnName(tag)
		if col == "" {
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				collectFields(v.Field(i), out)
			}
			continue
		}
		out[col] = normalizeValue(v.Field(i).Interface())
	}
}

// AssignField replaces the column named column on the struct pointed to by
// model with value. The value is decoded into the field's own type.
func AssignField(model any, column string, value any) error {
	v := reflect.ValueOf(model)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("assign %s: model must be a non-nil pointer", column)
	}
	field, ok := findField(v.Elem(), column)
	if !ok {
		return fmt.Errorf("assign %s: %w", column, ErrUnknownField)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("assign %s: %w", column, err)
	}
	target := reflect.New(field.Type())
	if err := json.Unmarshal(raw, target.Interface()); err != nil {
		return fmt.Errorf("assign %s: %w", column, err)
	}
	field.Set(target.Elem())
	return nil
}

func findField(v reflect.Value, column string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("gorm")
		if tag == "-" {
			continue
		}
		col := columnName(tag)
		if col == "" && f.Anonymous && f.Type.Kind() == reflect.Struct {
			if inner, ok := findField(v.Field(i), column); ok {
				return inner, true
			}
			continue
		}
		if col == column {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func columnName(tag string) string {
	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "column:") {
			return strings.TrimPrefix(part, "column:")
		}
	}
	return ""
}

func normalizeValue(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func excluded(extra ...string) []string {
	return append(append([]string{}, baseExcludedFields...), extra...)
}
