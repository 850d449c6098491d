package handler

import (
	"fmt"
	"net/http"

	"github.com/damoang/angple-cms/internal/common"
	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/internal/service"
	"github.com/damoang/angple-cms/pkg/i18n"
	"github.com/gin-gonic/gin"
)

// ContentHandler writes content entities through the revisioned content service
type ContentHandler struct {
	content *service.ContentService
	bundle  *i18n.Bundle
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(content *service.ContentService, bundle *i18n.Bundle) *ContentHandler {
	return &ContentHandler{content: content, bundle: bundle}
}

// ContentRequest carries field edits. Flat values of translatable fields are
// stored under the request locale.
type ContentRequest struct {
	Fields      domain.Snapshot `json:"fields" binding:"required"`
	Description string          `json:"description" binding:"max=500"`
	Metadata    domain.Metadata `json:"metadata"`
}

func (r ContentRequest) change() service.ContentChange {
	return service.ContentChange{Fields: r.Fields, Description: r.Description, Metadata: r.Metadata}
}

// ContentResponse is an entity plus the revision its write produced
type ContentResponse struct {
	Entity   any              `json:"entity"`
	Revision *domain.Revision `json:"revision,omitempty"`
}

// Get godoc
// @Summary      콘텐츠 조회
// @Tags         content
// @Produce      json
// @Param        type  path  string  true  "대상 타입"
// @Param        id    path  int     true  "대상 ID"
// @Success      200  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /content/{type}/{id} [get]
func (h *ContentHandler) Get(c *gin.Context) {
	subject, err := subjectParam(c, h.content.Registry())
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}
	entity, err := h.content.Get(c.Request.Context(), subject)
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}
	common.SuccessResponse(c, entity, nil)
}

// Create godoc
// @Summary      콘텐츠 생성
// @Tags         content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type     path  string          true  "대상 타입"
// @Param        request  body  ContentRequest  true  "필드"
// @Success      201  {object}  common.APIResponse{data=ContentResponse}
// @Failure      400  {object}  common.APIResponse
// @Router       /content/{type} [post]
func (h *ContentHandler) Create(c *gin.Context) {
	t, err := subjectType(c, h.content.Registry())
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}
	var req ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.bundle, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
		return
	}

	entity, rev, err := h.content.Create(c.Request.Context(), t, req.change())
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}
	common.CreatedResponse(c, ContentResponse{Entity: entity, Revision: rev})
}

// Update godoc
// @Summary      콘텐츠 수정
// @Tags         content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type     path  string          true  "대상 타입"
// @Param        id       path  int             true  "대상 ID"
// @Param        request  body  ContentRequest  true  "변경 필드"
// @Success      200  {object}  common.APIResponse{data=ContentResponse}
// @Failure      400  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Failure      409  {object}  common.APIResponse
// @Router       /content/{type}/{id} [put]
func (h *ContentHandler) Update(c *gin.Context) {
	subject, err := subjectParam(c, h.content.Registry())
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}
	var req ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.bundle, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
		return
	}

	entity, rev, err := h.content.Update(c.Request.Context(), subject, req.change())
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}
	common.SuccessResponse(c, ContentResponse{Entity: entity, Revision: rev}, nil)
}

// Delete godoc
// @Summary      콘텐츠 삭제
// @Tags         content
// @Produce      json
// @Security     BearerAuth
// @Param        type  path  string  true  "대상 타입"
// @Param        id    path  int     true  "대상 ID"
// @Success      200  {object}  common.APIResponse{data=domain.Revision}
// @Failure      404  {object}  common.APIResponse
// @Router       /content/{type}/{id} [delete]
func (h *ContentHandler) Delete(c *gin.Context) {
	subject, err := subjectParam(c, h.content.Registry())
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}
	rev, err := h.content.Delete(c.Request.Context(), subject)
	if err != nil {
		respondError(c, h.bundle, err)
		return
	}
	c.JSON(http.StatusOK, common.APIResponse{Data: rev})
}
