package repository

import (
	"context"
	"errors"

	"github.com/damoang/angple-cms/internal/common"
	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/pkg/database"
	"gorm.io/gorm"
)

// MemberRepository member data access interface
type MemberRepository interface {
	FindByID(ctx context.Context, id uint64) (*domain.Member, error)
	FindByUsername(ctx context.Context, username string) (*domain.Member, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]*domain.Member, error)

	// ResolveActors maps member ids to display identities for revision history
	ResolveActors(ctx context.Context, ids []uint64) (map[uint64]*domain.Actor, error)
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// FindByID finds member by ID
func (r *memberRepository) FindByID(ctx context.Context, id uint64) (*domain.Member, error) {
	var member domain.Member
	if err := database.Conn(ctx, r.db).First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, err
	}
	member.MarkClean()
	return &member, nil
}

// FindByUsername finds member by login name
func (r *memberRepository) FindByUsername(ctx context.Context, username string) (*domain.Member, error) {
	var member domain.Member
	if err := database.Conn(ctx, r.db).Where("username = ?", username).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, err
	}
	member.MarkClean()
	return &member, nil
}

// FindByIDs loads several members at once; missing ids are skipped
func (r *memberRepository) FindByIDs(ctx context.Context, ids []uint64) ([]*domain.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var members []*domain.Member
	err := database.Conn(ctx, r.db).
		Select("id", "name", "nickname").
		Where("id IN ?", ids).
		Find(&members).Error
	return members, err
}

func (r *memberRepository) ResolveActors(ctx context.Context, ids []uint64) (map[uint64]*domain.Actor, error) {
	members, err := r.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	actors := make(map[uint64]*domain.Actor, len(members))
	for _, m := range members {
		actors[m.ID] = &domain.Actor{ID: m.ID, Name: m.Name, Nickname: m.Nickname}
	}
	return actors, nil
}
