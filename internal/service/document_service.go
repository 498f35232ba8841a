package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/filestore"
	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
	"github.com/studyforge/studyforge/internal/pkg/timeutil"
	"github.com/studyforge/studyforge/internal/repo"
)

const maxTitleChars = 512

type DocumentService struct {
	docs  *repo.DocumentRepo
	files filestore.Store
}

func NewDocumentService(docs *repo.DocumentRepo, files filestore.Store) *DocumentService {
	return &DocumentService{docs: docs, files: files}
}

func (s *DocumentService) Create(ctx context.Context, userID, title, content string) (*model.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", appErr.ErrInvalid)
	}
	if len([]rune(title)) > maxTitleChars {
		return nil, fmt.Errorf("%w: title too long", appErr.ErrInvalid)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", appErr.ErrInvalid)
	}
	now := timeutil.NowUnix()
	doc := &model.Document{
		ID:      newID(),
		UserID:  userID,
		Title:   title,
		Content: content,
		State:   model.DocumentStateNormal,
		Ctime:   now,
		Mtime:   now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, userID, docID string) (*model.Document, error) {
	return s.docs.Get(ctx, userID, docID)
}

func (s *DocumentService) List(ctx context.Context, userID string, limit int) ([]model.Document, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.docs.List(ctx, userID, limit)
}

func (s *DocumentService) Delete(ctx context.Context, userID, docID string) error {
	return s.docs.Delete(ctx, userID, docID, timeutil.NowUnix())
}

// AttachSource stores the original uploaded file a document was extracted
// from. Keyed by document id, so a re-upload replaces the previous file.
func (s *DocumentService) AttachSource(ctx context.Context, userID, docID string, r filestore.ReadSeekCloser, size int64) error {
	if _, err := s.docs.Get(ctx, userID, docID); err != nil {
		return err
	}
	if err := s.files.Save(ctx, sourceKey(docID), r, size); err != nil {
		logutil.GetLogger(ctx).Error("save source file failed",
			zap.String("document_id", docID), zap.Error(err))
		return fmt.Errorf("%w: save source file: %v", appErr.ErrInfra, err)
	}
	return nil
}

func (s *DocumentService) OpenSource(ctx context.Context, userID, docID string) (filestore.ReadSeekCloser, error) {
	if _, err := s.docs.Get(ctx, userID, docID); err != nil {
		return nil, err
	}
	r, err := s.files.Open(ctx, sourceKey(docID))
	if err != nil {
		return nil, appErr.ErrNotFound
	}
	return r, nil
}

func sourceKey(docID string) string {
	return "source_" + docID
}
