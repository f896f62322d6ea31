package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/service"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type proposalExporter interface {
	Export(ctx context.Context, query dto.ExportQuery) (*service.ExportFile, error)
}

// ExportHandler streams proposal exports.
type ExportHandler struct {
	service proposalExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(service proposalExporter) *ExportHandler {
	return &ExportHandler{service: service}
}

// Export godoc
// @Summary Download the proposal list
// @Tags Proposals
// @Produce text/csv
// @Produce application/pdf
// @Produce text/calendar
// @Param format query string false "csv (default), pdf or ics"
// @Param status query string false "Pending, Approved, Declined or all"
// @Param q query string false "Search text"
// @Success 200 {file} file
// @Router /proposals/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError("invalid export parameters", err))
		return
	}
	file, err := h.service.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Export-Rows", strconv.Itoa(file.Rows))
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
