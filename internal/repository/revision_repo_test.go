package repository

import (
	"context"
	"testing"
	"time"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/internal/revision"
	"github.com/damoang/angple-cms/internal/testutil"
	"github.com/damoang/angple-cms/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var page7 = domain.Subject{Type: domain.SubjectPage, ID: 7}

func newRev(subject domain.Subject, version string, at time.Time) *domain.Revision {
	return &domain.Revision{
		SubjectType: subject.Type,
		SubjectID:   subject.ID,
		Action:      domain.ActionUpdate,
		Version:     version,
		Data:        domain.Snapshot{"slug": "about"},
		Changes:     domain.Snapshot{},
		Metadata:    domain.Metadata{"session_id": nil},
		CreatedAt:   at,
	}
}

func TestRevisionRepository_InsertAndRead(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRevisionRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	latest, err := repo.Latest(ctx, page7)
	require.NoError(t, err)
	assert.Nil(t, latest)

	for i, v := range []string{"1.0.0", "1.0.1", "1.0.2"} {
		require.NoError(t, repo.Insert(ctx, newRev(page7, v, base.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, repo.Insert(ctx, newRev(domain.Subject{Type: domain.SubjectForm, ID: 7}, "1.0.0", base)))

	latest, err = repo.Latest(ctx, page7)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "1.0.2", latest.Version)
	assert.Equal(t, domain.Snapshot{"slug": "about"}, latest.Data)
	assert.Contains(t, latest.Metadata, "session_id")

	n, err := repo.Count(ctx, page7)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	history, err := repo.History(ctx, page7, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "1.0.2", history[0].Version)
	assert.Equal(t, "1.0.0", history[2].Version)

	limited, err := repo.History(ctx, page7, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	found, err := repo.FindByID(ctx, history[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "1.0.1", found.Version)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, revision.ErrNotFound)
}

func TestRevisionRepository_HistoryTieBreaksOnID(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRevisionRepository(db)
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, newRev(page7, "1.0.0", at)))
	require.NoError(t, repo.Insert(ctx, newRev(page7, "1.0.1", at)))

	history, err := repo.History(ctx, page7, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "1.0.1", history[0].Version)
}

func TestRevisionRepository_InsertValidation(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRevisionRepository(db)
	ctx := context.Background()
	now := time.Now()

	cases := map[string]func(r *domain.Revision){
		"subject_type": func(r *domain.Revision) { r.SubjectType = "" },
		"subject_id":   func(r *domain.Revision) { r.SubjectID = 0 },
		"action":       func(r *domain.Revision) { r.Action = "" },
		"version":      func(r *domain.Revision) { r.Version = "" },
		"data":         func(r *domain.Revision) { r.Data = nil },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			rev := newRev(page7, "1.0.0", now)
			mutate(rev)
			err := repo.Insert(ctx, rev)
			assert.ErrorIs(t, err, revision.ErrValidation)

			var ve *revision.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, field, ve.Field)
		})
	}

	n, err := repo.Count(ctx, page7)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRevisionRepository_DuplicateVersionIsConflict(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRevisionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newRev(page7, "1.0.0", time.Now())))
	err := repo.Insert(ctx, newRev(page7, "1.0.0", time.Now()))

	assert.ErrorIs(t, err, revision.ErrConflict)
	assert.True(t, revision.IsConflict(err))
}

func TestRevisionRepository_UsesContextTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRevisionRepository(db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		txCtx := database.WithTx(ctx, tx)
		require.NoError(t, repo.Insert(txCtx, newRev(page7, "1.0.0", time.Now())))

		n, err := repo.Count(txCtx, page7)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	n, err := repo.Count(ctx, page7)
	require.NoError(t, err)
	assert.Zero(t, n, "rolled back insert must not be visible")
}

func TestRevisionRepository_ListByActor(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRevisionRepository(db)
	ctx := context.Background()
	actor := uint64(42)

	r1 := newRev(page7, "1.0.0", time.Now())
	r1.ActorID = &actor
	require.NoError(t, repo.Insert(ctx, r1))
	require.NoError(t, repo.Insert(ctx, newRev(page7, "1.0.1", time.Now())))

	revs, err := repo.ListByActor(ctx, actor, 10)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "1.0.0", revs[0].Version)
}
