package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsOfUsesColumnNames(t *testing.T) {
	parent := uint64(3)
	p := &Page{
		ID:       10,
		ParentID: &parent,
		Slug:     "about",
		Title:    Translations{"en": "About", "ko": "소개"},
		Status:   PageStatusDraft,
	}

	fields := p.CurrentFields()

	assert.Equal(t, "about", fields["slug"])
	assert.Equal(t, float64(3), fields["parent_id"])
	assert.Equal(t, map[string]any{"en": "About", "ko": "소개"}, fields["title"])
	assert.Nil(t, fields["body"])
	assert.Contains(t, fields, "id")
	assert.NotContains(t, fields, "Tracker")
}

func TestFieldsOfForm(t *testing.T) {
	f := &Form{Key: "contact", Fields: []FormField{{Name: "email", Type: "email", Required: true}}}

	fields := f.CurrentFields()

	assert.Equal(t, "contact", fields["form_key"])
	require.IsType(t, []any{}, fields["fields"])
	first := fields["fields"].([]any)[0].(map[string]any)
	assert.Equal(t, "email", first["name"])
	assert.Equal(t, true, first["required"])
}

func TestAssignField(t *testing.T) {
	p := &Page{Title: Translations{"en": "Old", "ja": "古い"}}

	require.NoError(t, AssignField(p, "title", map[string]any{"en": "New"}))
	assert.Equal(t, Translations{"en": "New"}, p.Title, "assignment replaces, never merges")

	require.NoError(t, AssignField(p, "parent_id", float64(9)))
	require.NotNil(t, p.ParentID)
	assert.EqualValues(t, 9, *p.ParentID)

	require.NoError(t, AssignField(p, "parent_id", nil))
	assert.Nil(t, p.ParentID)

	err := AssignField(p, "nope", "x")
	assert.True(t, errors.Is(err, ErrUnknownField))

	err = AssignField(p, "slug", map[string]any{"a": 1})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownField))

	assert.Error(t, AssignField(*p, "slug", "x"), "non pointer model")
}

func TestTrackerDirty(t *testing.T) {
	b := &ContentBlock{ID: 1, Key: "hero", Heading: Translations{"en": "Hi"}}

	assert.NotEmpty(t, b.DirtyFields(), "never persisted model is entirely dirty")

	b.MarkClean()
	assert.Empty(t, b.DirtyFields())

	b.Heading["en"] = "Hello"
	b.Position = 2
	dirty := b.DirtyFields()
	assert.Len(t, dirty, 2)
	assert.Equal(t, map[string]any{"en": "Hello"}, dirty["heading"])
	assert.Equal(t, float64(2), dirty["position"])
}

func TestTrackerLocale(t *testing.T) {
	var tr Tracker
	assert.Equal(t, DefaultLocale, tr.Locale())
	tr.SetLocale("ja")
	assert.Equal(t, "ja", tr.Locale())
}

func TestTranslationsGet(t *testing.T) {
	tr := Translations{"en": "Hello", "ko": "안녕"}
	assert.Equal(t, "안녕", tr.Get("ko"))
	assert.Equal(t, "Hello", tr.Get("fr"))
}

func TestTranslationsAcceptLegacyValues(t *testing.T) {
	target := &Page{}
	require.NoError(t, AssignField(target, "title", map[string]any{
		"en": []any{"Legacy"},
		"ko": []any{"하나", "둘"},
		"ja": float64(3),
		"de": nil,
	}))
	assert.Equal(t, Translations{"en": "Legacy", "ko": `["하나","둘"]`, "ja": "3", "de": ""}, target.Title)

	tr := Translations{"en": "x"}
	require.NoError(t, tr.UnmarshalJSON([]byte("null")))
	assert.Nil(t, tr)
	assert.Error(t, tr.UnmarshalJSON([]byte(`["not","a","map"]`)))
}

func TestMemberExcludesCredentials(t *testing.T) {
	m := &Member{}
	for _, f := range []string{"password", "remember_token", "id", "updated_at"} {
		assert.Contains(t, m.ExcludedFields(), f)
	}
	require.NoError(t, m.SetPassword("s3cret"))
	assert.NotEqual(t, "s3cret", m.Password)
	assert.True(t, m.CheckPassword("s3cret"))

	m.Name = "Kim"
	assert.Equal(t, "Kim", m.DisplayName())
	m.Nickname = "kimmy"
	assert.Equal(t, "kimmy", m.DisplayName())
}

func TestSnapshotColumnRoundTrip(t *testing.T) {
	s := Snapshot{"title": map[string]any{"en": "x"}, "n": float64(1)}
	v, err := s.Value()
	require.NoError(t, err)

	var back Snapshot
	require.NoError(t, back.Scan([]byte(v.(string))))
	assert.Equal(t, s, back)

	var empty Snapshot
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)

	assert.Error(t, back.Scan(42))
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	s := Snapshot{"title": map[string]any{"en": "x"}, "tags": []any{"a"}}
	c := s.Clone()
	c["title"].(map[string]any)["en"] = "y"
	c["tags"].([]any)[0] = "b"
	assert.Equal(t, "x", s["title"].(map[string]any)["en"])
	assert.Equal(t, "a", s["tags"].([]any)[0])
}
