package handler

import (
	"fmt"

	"github.com/damoang/angple-cms/internal/common"
	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/internal/revision"
	"github.com/damoang/angple-cms/pkg/ginutil"
	"github.com/gin-gonic/gin"
)

// subjectType reads :type and checks it against the registry
func subjectType(c *gin.Context, registry *revision.Registry) (domain.SubjectType, error) {
	t, err := domain.ParseSubjectType(c.Param("type"))
	if err != nil {
		return "", fmt.Errorf("%w: %s", common.ErrUnknownSubject, c.Param("type"))
	}
	if _, err := registry.New(t); err != nil {
		return "", fmt.Errorf("%w: %s", common.ErrUnknownSubject, t)
	}
	return t, nil
}

// subjectParam reads :type and :id
func subjectParam(c *gin.Context, registry *revision.Registry) (domain.Subject, error) {
	t, err := subjectType(c, registry)
	if err != nil {
		return domain.Subject{}, err
	}
	id, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		return domain.Subject{}, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return domain.Subject{Type: t, ID: id}, nil
}
