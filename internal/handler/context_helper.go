package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/middleware"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

func actorFromContext(c *gin.Context) string {
	return middleware.ActorFromContext(c)
}

func parseProposalID(c *gin.Context) (int64, error) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "proposal id must be a positive integer").WithDetail("id", raw)
	}
	return id, nil
}

func bindError(message string, err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
