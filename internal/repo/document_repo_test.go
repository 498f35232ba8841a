package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
)

func insertTestDocument(t *testing.T, repo *DocumentRepo, id, userID string) *model.Document {
	t.Helper()
	doc := &model.Document{
		ID:      id,
		UserID:  userID,
		Title:   "title " + id,
		Content: "content " + id,
		State:   model.DocumentStateNormal,
		Ctime:   1000,
		Mtime:   1000,
	}
	require.NoError(t, repo.Create(context.Background(), doc))
	return doc
}

func TestDocumentRepo_CreateAndGet(t *testing.T) {
	conn := openTestDB(t)
	repo := NewDocumentRepo(conn)

	created := insertTestDocument(t, repo, "doc1", "u1")

	got, err := repo.Get(context.Background(), "u1", "doc1")
	require.NoError(t, err)
	require.Equal(t, created.Title, got.Title)
	require.Equal(t, created.Content, got.Content)
}

func TestDocumentRepo_GetScopedByOwner(t *testing.T) {
	conn := openTestDB(t)
	repo := NewDocumentRepo(conn)

	insertTestDocument(t, repo, "doc1", "u1")

	_, err := repo.Get(context.Background(), "u2", "doc1")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestDocumentRepo_DeleteHidesDocument(t *testing.T) {
	conn := openTestDB(t)
	repo := NewDocumentRepo(conn)
	ctx := context.Background()

	insertTestDocument(t, repo, "doc1", "u1")
	require.NoError(t, repo.Delete(ctx, "u1", "doc1", 2000))

	_, err := repo.Get(ctx, "u1", "doc1")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	// Double delete reports not found.
	require.ErrorIs(t, repo.Delete(ctx, "u1", "doc1", 2000), appErr.ErrNotFound)
}

func TestDocumentRepo_ListExcludesDeleted(t *testing.T) {
	conn := openTestDB(t)
	repo := NewDocumentRepo(conn)
	ctx := context.Background()

	insertTestDocument(t, repo, "doc1", "u1")
	insertTestDocument(t, repo, "doc2", "u1")
	insertTestDocument(t, repo, "doc3", "u2")
	require.NoError(t, repo.Delete(ctx, "u1", "doc2", 2000))

	docs, err := repo.List(ctx, "u1", 50)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "doc1", docs[0].ID)
}
