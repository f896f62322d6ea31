package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

const genericMimeType = "application/octet-stream"

// AttachmentConfig bounds attachment inspection.
type AttachmentConfig struct {
	MaxFileSizeBytes int64
	MaxFiles         int
}

// AttachmentService turns uploaded files into attachment metadata. File
// bytes are read for content sniffing only and never stored.
type AttachmentService struct {
	cfg    AttachmentConfig
	logger *zap.Logger
}

// NewAttachmentService constructs the service.
func NewAttachmentService(cfg AttachmentConfig, logger *zap.Logger) *AttachmentService {
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 10 << 20
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{cfg: cfg, logger: logger}
}

// MaxRequestBytes is the largest multipart body worth parsing.
func (s *AttachmentService) MaxRequestBytes() int64 {
	return s.cfg.MaxFileSizeBytes*int64(s.cfg.MaxFiles) + 1<<20
}

// Inspect returns {name, mimeType} for each file in upload order.
func (s *AttachmentService) Inspect(ctx context.Context, files []*multipart.FileHeader) ([]models.Attachment, error) {
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one file is required").WithDetail("field", "files")
	}
	if len(files) > s.cfg.MaxFiles {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d files may be attached", s.cfg.MaxFiles)).WithDetail("field", "files")
	}

	out := make([]models.Attachment, 0, len(files))
	for _, header := range files {
		if header.Size > s.cfg.MaxFileSizeBytes {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("%s exceeds %d bytes", header.Filename, s.cfg.MaxFileSizeBytes)).
				WithDetail("file", header.Filename)
		}
		mimeType, err := s.sniff(header)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable attachment").
				WithDetail("file", header.Filename)
		}
		out = append(out, models.Attachment{Name: filepath.Base(header.Filename), MimeType: mimeType})
	}
	s.logger.Debug("attachments inspected", zap.Int("count", len(out)))
	return out, nil
}

func (s *AttachmentService) sniff(header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return "", err
	}
	mimeType := detected.String()
	if detected.Is(genericMimeType) || strings.HasPrefix(mimeType, "text/plain") {
		if declared := strings.TrimSpace(header.Header.Get("Content-Type")); declared != "" {
			return declared, nil
		}
	}
	return mimeType, nil
}
