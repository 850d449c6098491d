package handler

import (
	"fmt"

	"github.com/damoang/angple-cms/internal/common"
	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/internal/revision"
	"github.com/damoang/angple-cms/internal/service"
	"github.com/damoang/angple-cms/pkg/ginutil"
	"github.com/damoang/angple-cms/pkg/i18n"
	"github.com/gin-gonic/gin"
)

const maxHistoryLimit = 500

// RevisionHandler serves revision history, comparison, revert and publish
type RevisionHandler struct {
	revisions    *revision.Service
	content      *service.ContentService
	bundle       *i18n.Bundle
	historyLimit int
}

// NewRevisionHandler creates a new RevisionHandler. historyLimit is used
// when the request carries no limit.
func NewRevisionHandler(revisions *revision.Service, content *service.ContentService, bundle *i18n.Bundle, historyLimit int) *RevisionHandler {
	return &RevisionHandler{revisions: revisions, content: content, bundle: bundle, historyLimit: historyLimit}
}

// PublishRequest is the optional body of Publish
type PublishRequest struct {
	Description string `json:"description" binding:"max=500"`
}

// CompareResponse is the diff between two revisions of one subject
type CompareResponse struct {
	From    *domain.Revision `json:"from"`
	To      *domain.Revision `json:"to"`
	Changes domain.Diff      `json:"changes"`
}

// History godoc
// @Summary      리비전 이력 조회
// @Description  대상의 리비전을 최신순으로 조회합니다 (limit=0 전체)
// @Tags         revisions
// @Produce      json
// @Param        type    path   string  true   "대상 타입 (page, form, content_block, member, testimonial)"
// @Param        id      path   int     true   "대상 ID"
// @Param        limit   query  int     false  "최대 개수"
// @Param        actors  query  bool    false  "작성자 정보 포함"
// @Success      200  {object}  common.APIResponse{data=[]domain.HistoryEntry}
// @Failure      400  {object}  common.APIResponse
// @Router       /revisions/{type}/{id} [get]
func (h *RevisionHandler) History(c *gin.Context) {
	subject, err := subjectParam(c, h.content.Registry())
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}

	limit := ginutil.QueryInt(c, "limit", h.historyLimit)
	if limit < 0 || limit > maxHistoryLimit {
		limit = h.historyLimit
	}

	entries, err := h.revisions.GetHistory(c.Request.Context(), subject, limit, ginutil.QueryBool(c, "actors"))
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}
	total, err := h.revisions.Count(c.Request.Context(), subject)
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}

	common.SuccessResponse(c, entries, &common.Meta{Subject: subject.String(), Limit: limit, Total: total})
}

// ActorActivity godoc
// @Summary      작성자별 리비전 조회
// @Description  한 작성자가 기록한 리비전을 대상 구분 없이 최신순으로 조회합니다
// @Tags         revisions
// @Produce      json
// @Param        actorId  path   int  true   "작성자(회원) ID"
// @Param        limit    query  int  false  "최대 개수"
// @Success      200  {object}  common.APIResponse{data=[]domain.Revision}
// @Failure      400  {object}  common.APIResponse
// @Router       /actors/{actorId}/revisions [get]
func (h *RevisionHandler) ActorActivity(c *gin.Context) {
	actorID, err := ginutil.ParamUint64(c, "actorId")
	if err != nil {
		respondError(c, h.bundle, revision.NewValidationError("actorId", "must be a member id"))
		return
	}
	limit := ginutil.QueryInt(c, "limit", h.historyLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		limit = h.historyLimit
	}

	revs, err := h.revisions.ActorActivity(c.Request.Context(), actorID, limit)
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}
	common.SuccessResponse(c, revs, &common.Meta{Limit: limit})
}

// Compare godoc
// @Summary      리비전 비교
// @Description  두 리비전 사이의 필드 변경 사항을 반환합니다
// @Tags         revisions
// @Produce      json
// @Param        type  path   string  true  "대상 타입"
// @Param        id    path   int     true  "대상 ID"
// @Param        from  query  int     true  "기준 리비전 ID"
// @Param        to    query  int     true  "비교 리비전 ID"
// @Success      200  {object}  common.APIResponse{data=CompareResponse}
// @Failure      400  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /revisions/{type}/{id}/compare [get]
func (h *RevisionHandler) Compare(c *gin.Context) {
	subject, err := subjectParam(c, h.content.Registry())
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}

	from, err := h.revisionQuery(c, subject, "from")
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}
	to, err := h.revisionQuery(c, subject, "to")
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}

	common.SuccessResponse(c, CompareResponse{From: from, To: to, Changes: h.revisions.CompareRevisions(from, to)}, nil)
}

func (h *RevisionHandler) revisionQuery(c *gin.Context, subject domain.Subject, key string) (*domain.Revision, error) {
	id, err := ginutil.QueryUint64(c, key)
	if err != nil {
		return nil, revision.NewValidationError(key, "must be a revision id")
	}
	rev, err := h.revisions.FindByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if rev.Subject() != subject {
		return nil, revision.NewValidationError(key, fmt.Sprintf("belongs to %s", rev.Subject()))
	}
	return rev, nil
}

// Revert godoc
// @Summary      리비전 복원
// @Description  대상을 지정한 리비전 상태로 되돌리고 복원 리비전을 기록합니다
// @Tags         revisions
// @Produce      json
// @Security     BearerAuth
// @Param        type        path  string  true  "대상 타입"
// @Param        id          path  int     true  "대상 ID"
// @Param        revisionId  path  int     true  "복원할 리비전 ID"
// @Success      200  {object}  common.APIResponse
// @Failure      400  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Failure      409  {object}  common.APIResponse
// @Router       /revisions/{type}/{id}/revert/{revisionId} [post]
func (h *RevisionHandler) Revert(c *gin.Context) {
	subject, err := subjectParam(c, h.content.Registry())
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}
	revisionID, err := ginutil.ParamUint64(c, "revisionId")
	if err != nil {
		respondError(c, h.bundle, revision.NewValidationError("revisionId", "must be a revision id"))
		return
	}

	entity, err := h.content.Revert(c.Request.Context(), subject, revisionID)
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}

	common.SuccessResponse(c, entity, nil)
}

// Publish godoc
// @Summary      발행
// @Description  현재 상태를 발행 리비전으로 기록합니다 (메이저 버전 증가)
// @Tags         revisions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type     path  string          true   "대상 타입"
// @Param        id       path  int             true   "대상 ID"
// @Param        request  body  PublishRequest  false  "설명"
// @Success      200  {object}  common.APIResponse{data=domain.Revision}
// @Failure      404  {object}  common.APIResponse
// @Failure      409  {object}  common.APIResponse
// @Router       /revisions/{type}/{id}/publish [post]
func (h *RevisionHandler) Publish(c *gin.Context) {
	subject, err := subjectParam(c, h.content.Registry())
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}

	var req PublishRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, h.bundle, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
			return
		}
	}

	_, rev, err := h.content.Publish(c.Request.Context(), subject, req.Description)
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}

	common.SuccessResponse(c, rev, nil)
}
