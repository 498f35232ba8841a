package repo

import (
	"context"
	"database/sql"

	"github.com/studyforge/studyforge/internal/engine"
	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
	"github.com/studyforge/studyforge/internal/pkg/timeutil"
)

// ArtifactRepo is the engine's persistence sink. Checkpoints and finals are
// the same row; degraded records whether the stored text is a mapping
// checkpoint or a committed final artifact.
type ArtifactRepo struct {
	db *sql.DB
}

func NewArtifactRepo(db *sql.DB) *ArtifactRepo {
	return &ArtifactRepo{db: db}
}

var _ engine.Sink = (*ArtifactRepo)(nil)

func (r *ArtifactRepo) Checkpoint(ctx context.Context, docID string, mode engine.Mode, text string) error {
	return r.upsert(ctx, docID, string(mode), text, 1)
}

func (r *ArtifactRepo) CommitFinal(ctx context.Context, docID string, mode engine.Mode, text string) error {
	return r.upsert(ctx, docID, string(mode), text, 0)
}

func (r *ArtifactRepo) upsert(ctx context.Context, docID, mode, text string, degraded int) error {
	const query = `
		INSERT INTO file_artifacts (document_id, mode, content, degraded, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (document_id, mode) DO UPDATE SET
			content = EXCLUDED.content,
			degraded = EXCLUDED.degraded,
			mtime = EXCLUDED.mtime
	`
	now := timeutil.NowUnix()
	_, err := r.db.ExecContext(ctx, query, docID, mode, text, degraded, now)
	return err
}

func (r *ArtifactRepo) Get(ctx context.Context, docID, mode string) (*model.FileArtifact, error) {
	const query = `
		SELECT document_id, mode, content, degraded, ctime, mtime
		FROM file_artifacts
		WHERE document_id = $1 AND mode = $2
	`
	row := r.db.QueryRowContext(ctx, query, docID, mode)
	var artifact model.FileArtifact
	if err := row.Scan(&artifact.DocumentID, &artifact.Mode, &artifact.Content, &artifact.Degraded, &artifact.Ctime, &artifact.Mtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &artifact, nil
}
