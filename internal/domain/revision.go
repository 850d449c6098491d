package domain

import "time"

// Action is what happened to a subject when a revision was recorded
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionPublish Action = "publish"
	ActionRevert  Action = "revert"
)

// Revision is one immutable entry in a subject's history (cms_revisions table).
// Rows are only ever inserted.
type Revision struct {
	ID          uint64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SubjectType SubjectType `gorm:"column:subject_type;size:50;not null;uniqueIndex:uk_revision_subject_version,priority:1;index:idx_revision_subject_created,priority:1" json:"subject_type"`
	SubjectID   uint64      `gorm:"column:subject_id;not null;uniqueIndex:uk_revision_subject_version,priority:2;index:idx_revision_subject_created,priority:2" json:"subject_id"`
	ActorID     *uint64     `gorm:"column:actor_id;index:idx_revision_actor_created,priority:1" json:"actor_id"`
	Action      Action      `gorm:"column:action;size:30;not null;index:idx_revision_action_created,priority:1" json:"action"`
	Version     string      `gorm:"column:version;size:32;not null;uniqueIndex:uk_revision_subject_version,priority:3" json:"version"`
	Data        Snapshot    `gorm:"column:data;type:json" json:"data"`
	Changes     Snapshot    `gorm:"column:changes;type:json" json:"changes"`
	Metadata    Metadata    `gorm:"column:metadata;type:json" json:"metadata"`
	Description string      `gorm:"column:description;size:500" json:"description"`
	IsPublished bool        `gorm:"column:is_published;not null;default:false;index:idx_revision_published,priority:1" json:"is_published"`
	PublishedAt *time.Time  `gorm:"column:published_at;index:idx_revision_published,priority:2" json:"published_at"`
	CreatedAt   time.Time   `gorm:"column:created_at;index:idx_revision_subject_created,priority:3;index:idx_revision_actor_created,priority:2;index:idx_revision_action_created,priority:2" json:"created_at"`
}

func (Revision) TableName() string {
	return "cms_revisions"
}

// Subject returns the (type, id) pair this revision belongs to
func (r *Revision) Subject() Subject {
	return Subject{Type: r.SubjectType, ID: r.SubjectID}
}

// Actor is the display identity of whoever recorded a revision
type Actor struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
}

// HistoryEntry is a revision with its actor resolved for display
type HistoryEntry struct {
	*Revision
	Actor *Actor `json:"actor,omitempty"`
}
