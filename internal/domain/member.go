package domain

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Member is a back-office user (cms_members table)
type Member struct {
	Tracker `gorm:"-" json:"-"`

	ID            uint64       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username      string       `gorm:"column:username;size:50;uniqueIndex" json:"username"`
	Email         string       `gorm:"column:email;size:255;uniqueIndex" json:"email"`
	Name          string       `gorm:"column:name;size:100" json:"name"`
	Nickname      string       `gorm:"column:nickname;size:100" json:"nickname"`
	Bio           Translations `gorm:"column:bio;type:json" json:"bio"`
	Level         int          `gorm:"column:level;default:1" json:"level"`
	Password      string       `gorm:"column:password;size:255" json:"-"`
	RememberToken string       `gorm:"column:remember_token;size:100" json:"-"`
	LastLoginAt   *time.Time   `gorm:"column:last_login_at" json:"last_login_at"`
	CreatedAt     time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string {
	return "cms_members"
}

// SetPassword stores a bcrypt hash of plain
func (m *Member) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	m.Password = string(hash)
	return nil
}

// CheckPassword reports whether plain matches the stored hash
func (m *Member) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(m.Password), []byte(plain)) == nil
}

// DisplayName prefers the nickname
func (m *Member) DisplayName() string {
	if m.Nickname != "" {
		return m.Nickname
	}
	return m.Name
}

func (m *Member) Subject() Subject { return Subject{Type: SubjectMember, ID: m.ID} }

func (m *Member) CurrentFields() Snapshot { return FieldsOf(m) }

// ExcludedFields keeps credentials and login bookkeeping out of history
func (m *Member) ExcludedFields() []string {
	return excluded("password", "remember_token", "last_login_at")
}

func (m *Member) TrackedFields() []string { return nil }

func (m *Member) DirtyFields() Snapshot { return m.Dirty(m.CurrentFields()) }

func (m *Member) TranslatableFields() []string { return []string{"bio"} }

func (m *Member) CurrentLocale() string { return m.Locale() }

func (m *Member) ApplyField(name string, value any) error { return AssignField(m, name, value) }

func (m *Member) Persist(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Save(m).Error
}

func (m *Member) MarkClean() { m.Remember(m.CurrentFields()) }
