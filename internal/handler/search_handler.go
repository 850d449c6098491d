package handler

import (
	"context"
	"fmt"

	"github.com/damoang/angple-cms/internal/common"
	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/internal/notify"
	"github.com/damoang/angple-cms/pkg/i18n"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const maxSearchLimit = 100

var searchValidator = validator.New()

type searchParams struct {
	Text   string `form:"q" validate:"max=200"`
	Type   string `form:"type"`
	Action string `form:"action" validate:"omitempty,oneof=create update delete publish revert"`
	Actor  uint64 `form:"actor"`
	Limit  int    `form:"limit"`
}

// RevisionSearcher queries the revision search index
type RevisionSearcher interface {
	Search(ctx context.Context, q notify.RevisionQuery) ([]notify.RevisionHit, int64, error)
}

// SearchHandler serves full-text search over revision descriptions
type SearchHandler struct {
	searcher RevisionSearcher
	bundle   *i18n.Bundle
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(searcher RevisionSearcher, bundle *i18n.Bundle) *SearchHandler {
	return &SearchHandler{searcher: searcher, bundle: bundle}
}

// Revisions godoc
// @Summary      리비전 검색
// @Description  설명과 변경 필드로 전체 리비전을 검색합니다 (최신순)
// @Tags         revisions
// @Produce      json
// @Param        q       query  string  false  "검색어"
// @Param        type    query  string  false  "대상 타입"
// @Param        action  query  string  false  "create, update, delete, publish, revert"
// @Param        actor   query  int     false  "작성자 ID"
// @Param        limit   query  int     false  "최대 개수 (기본 20, 최대 100)"
// @Success      200  {object}  common.APIResponse{data=[]notify.RevisionHit}
// @Router       /search/revisions [get]
func (h *SearchHandler) Revisions(c *gin.Context) {
	params := searchParams{Limit: 20}
	if err := c.ShouldBindQuery(&params); err != nil {
		respondError(c, h.bundle, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
		return
	}
	if err := searchValidator.Struct(params); err != nil {
		respondError(c, h.bundle, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
		return
	}

	q := notify.RevisionQuery{
		Text:    params.Text,
		Action:  domain.Action(params.Action),
		ActorID: params.Actor,
		Limit:   params.Limit,
	}
	if q.Limit <= 0 || q.Limit > maxSearchLimit {
		q.Limit = maxSearchLimit
	}
	if params.Type != "" {
		t, err := domain.ParseSubjectType(params.Type)
		if err != nil {
			respondError(c, h.bundle, fmt.Errorf("%w: %s", common.ErrUnknownSubject, params.Type))
			return
		}
		q.SubjectType = t
	}

	hits, total, err := h.searcher.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}
	common.SuccessResponse(c, hits, &common.Meta{Limit: q.Limit, Total: total})
}
