package revision

import (
	"fmt"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/pkg/i18n"
)

var pastTense = map[domain.Action]string{
	domain.ActionCreate:  "created",
	domain.ActionUpdate:  "updated",
	domain.ActionDelete:  "deleted",
	domain.ActionPublish: "published",
	domain.ActionRevert:  "reverted",
}

// Descriptions renders default revision descriptions from an i18n bundle.
// A nil bundle renders English.
type Descriptions struct {
	bundle *i18n.Bundle
	locale i18n.Locale
}

// NewDescriptions uses bundle in locale
func NewDescriptions(bundle *i18n.Bundle, locale i18n.Locale) *Descriptions {
	return &Descriptions{bundle: bundle, locale: locale}
}

// Default describes action on a subject type, e.g. "Page updated"
func (d *Descriptions) Default(action domain.Action, subjectType domain.SubjectType) string {
	key := "revision." + string(action)
	if d != nil && d.bundle != nil && d.bundle.Has(d.locale, key) {
		return d.bundle.T(d.locale, key, subjectType.Label())
	}
	verb, ok := pastTense[action]
	if !ok {
		verb = string(action)
	}
	return fmt.Sprintf("%s %s", subjectType.Label(), verb)
}

// Reverted describes a revert to version
func (d *Descriptions) Reverted(version string) string {
	if d != nil && d.bundle != nil && d.bundle.Has(d.locale, "revision.reverted") {
		return d.bundle.T(d.locale, "revision.reverted", version)
	}
	return "Reverted to revision " + version
}
