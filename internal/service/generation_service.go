package service

import (
	"context"
	"errors"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/engine"
	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
	"github.com/studyforge/studyforge/internal/repo"
)

type GenerationService struct {
	docs      *repo.DocumentRepo
	artifacts *repo.ArtifactRepo
	engine    *engine.Engine
	renderer  *markdownRenderer
}

func NewGenerationService(docs *repo.DocumentRepo, artifacts *repo.ArtifactRepo, eng *engine.Engine) *GenerationService {
	return &GenerationService{
		docs:      docs,
		artifacts: artifacts,
		engine:    eng,
		renderer:  newMarkdownRenderer(),
	}
}

type StartOptions struct {
	TargetChunkSize int
	MaxChunks       int
}

// Start kicks off a generation run in the background and returns once the
// run is accepted. The run itself outlives the HTTP request, so it gets a
// context detached from the request's cancellation.
func (s *GenerationService) Start(ctx context.Context, userID, docID string, mode engine.Mode, opts StartOptions) error {
	doc, err := s.docs.Get(ctx, userID, docID)
	if err != nil {
		return err
	}
	req := engine.Request{
		DocumentID:      doc.ID,
		UserID:          userID,
		Mode:            mode,
		Text:            doc.Content,
		TargetChunkSize: opts.TargetChunkSize,
		MaxChunks:       opts.MaxChunks,
	}
	runCtx := context.WithoutCancel(ctx)
	go func() {
		logger := logutil.GetLogger(runCtx).With(
			zap.String("document_id", doc.ID),
			zap.String("mode", string(mode)),
			zap.String("user_id", userID),
		)
		if _, err := s.engine.Run(runCtx, req); err != nil {
			if errors.Is(err, appErr.ErrSuperseded) {
				logger.Info("generation run superseded")
				return
			}
			logger.Error("generation run failed", zap.Error(err))
			return
		}
		logger.Info("generation run finished")
	}()
	return nil
}

// Progress returns the latest snapshot for a (document, mode) pair. When no
// run published anything recently but a final artifact exists, the artifact
// stands in as a completed snapshot so clients resuming after a restart
// still see a terminal state.
func (s *GenerationService) Progress(ctx context.Context, userID, docID string, mode engine.Mode) (engine.Snapshot, error) {
	if _, err := s.docs.Get(ctx, userID, docID); err != nil {
		return engine.Snapshot{}, err
	}
	if snap, ok := s.engine.Progress().Get(docID, mode); ok {
		return snap, nil
	}
	artifact, err := s.artifacts.Get(ctx, docID, string(mode))
	if err != nil {
		return engine.Snapshot{}, err
	}
	snap := engine.Snapshot{Phase: engine.PhaseDone, Percent: 100, Mtime: artifact.Mtime}
	if artifact.Degraded != 0 {
		snap = engine.Snapshot{Phase: engine.PhaseFailed, Percent: 0, Reason: "interrupted", Mtime: artifact.Mtime}
	}
	return snap, nil
}

func (s *GenerationService) Artifact(ctx context.Context, userID, docID string, mode engine.Mode) (*model.FileArtifact, error) {
	if _, err := s.docs.Get(ctx, userID, docID); err != nil {
		return nil, err
	}
	return s.artifacts.Get(ctx, docID, string(mode))
}

func (s *GenerationService) ArtifactHTML(ctx context.Context, userID, docID string, mode engine.Mode) (string, error) {
	artifact, err := s.Artifact(ctx, userID, docID, mode)
	if err != nil {
		return "", err
	}
	html, err := s.renderer.Render(artifact.Content)
	if err != nil {
		logutil.GetLogger(ctx).Error("render artifact html failed",
			zap.String("document_id", docID), zap.Error(err))
		return "", appErr.ErrInternal
	}
	return html, nil
}
