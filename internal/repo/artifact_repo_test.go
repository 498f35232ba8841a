package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge/internal/engine"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
)

func TestArtifactRepo_CheckpointThenCommitOverwrites(t *testing.T) {
	conn := openTestDB(t)
	repo := NewArtifactRepo(conn)
	ctx := context.Background()

	require.NoError(t, repo.Checkpoint(ctx, "doc1", engine.ModeSummary, "partial text"))

	artifact, err := repo.Get(ctx, "doc1", "summary")
	require.NoError(t, err)
	require.Equal(t, "partial text", artifact.Content)
	require.Equal(t, 1, artifact.Degraded)

	require.NoError(t, repo.CommitFinal(ctx, "doc1", engine.ModeSummary, "final text"))

	artifact, err = repo.Get(ctx, "doc1", "summary")
	require.NoError(t, err)
	require.Equal(t, "final text", artifact.Content)
	require.Equal(t, 0, artifact.Degraded)
}

func TestArtifactRepo_KeysScopedByMode(t *testing.T) {
	conn := openTestDB(t)
	repo := NewArtifactRepo(conn)
	ctx := context.Background()

	require.NoError(t, repo.CommitFinal(ctx, "doc1", engine.ModeSummary, "summary text"))
	require.NoError(t, repo.CommitFinal(ctx, "doc1", engine.ModeQuiz, "quiz text"))

	summary, err := repo.Get(ctx, "doc1", "summary")
	require.NoError(t, err)
	require.Equal(t, "summary text", summary.Content)

	quiz, err := repo.Get(ctx, "doc1", "quiz")
	require.NoError(t, err)
	require.Equal(t, "quiz text", quiz.Content)
}

func TestArtifactRepo_GetMissing(t *testing.T) {
	conn := openTestDB(t)
	repo := NewArtifactRepo(conn)

	_, err := repo.Get(context.Background(), "nope", "summary")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
