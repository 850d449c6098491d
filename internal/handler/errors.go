package handler

import (
	"errors"
	"net/http"

	"github.com/damoang/angple-cms/internal/common"
	"github.com/damoang/angple-cms/internal/middleware"
	"github.com/damoang/angple-cms/internal/revision"
	"github.com/damoang/angple-cms/pkg/i18n"
	"github.com/damoang/angple-cms/pkg/logger"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP statuses with a localized message
func respondError(c *gin.Context, bundle *i18n.Bundle, err error) {
	status, key := classify(err)
	message := bundle.T(middleware.GetLocale(c), key)

	var verr *revision.ValidationError
	if errors.As(err, &verr) {
		message += ": " + verr.Field + " " + verr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.WithRequestID(middleware.GetRequestID(c)).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	common.ErrorResponse(c, status, message, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, revision.ErrValidation), errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrUnknownSubject):
		return http.StatusBadRequest, "error.validation"
	case errors.Is(err, revision.ErrNotFound):
		return http.StatusNotFound, "revision.not_found"
	case errors.Is(err, revision.ErrSubjectNotFound), errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "error.not_found"
	case errors.Is(err, revision.ErrConflict):
		return http.StatusConflict, "error.conflict"
	default:
		return http.StatusInternalServerError, "error.internal"
	}
}
