package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

const attachmentFormField = "files"

type attachmentInspector interface {
	Inspect(ctx context.Context, files []*multipart.FileHeader) ([]models.Attachment, error)
	MaxRequestBytes() int64
}

// AttachmentHandler converts uploaded files into attachment metadata that
// clients then send with a submission or edit.
type AttachmentHandler struct {
	service attachmentInspector
}

// NewAttachmentHandler constructs the handler.
func NewAttachmentHandler(service attachmentInspector) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

// Inspect godoc
// @Summary Capture attachment metadata
// @Description Returns {name, mimeType} per uploaded file. File contents are discarded.
// @Tags Proposals
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "One or more files"
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /proposals/attachments/inspect [post]
func (h *AttachmentHandler) Inspect(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.service.MaxRequestBytes())
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.ErrPayloadTooLarge)
			return
		}
		response.Error(c, bindError("multipart form with files is required", err))
		return
	}
	defer form.RemoveAll() //nolint:errcheck

	attachments, err := h.service.Inspect(c.Request.Context(), form.File[attachmentFormField])
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attachments, nil)
}
