package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUsageRepo_MissingRowIsZero(t *testing.T) {
	conn := openTestDB(t)
	repo := NewUsageRepo(conn)

	balance, err := repo.Balance(context.Background(), "u1", "summary")
	require.NoError(t, err)
	require.EqualValues(t, 0, balance)
}

func TestUsageRepo_GrantAndDecrement(t *testing.T) {
	conn := openTestDB(t)
	repo := NewUsageRepo(conn)
	ctx := context.Background()

	require.NoError(t, repo.Grant(ctx, "u1", "quiz", 2))

	ok, err := repo.DecrementIfPositive(ctx, "u1", "quiz")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.DecrementIfPositive(ctx, "u1", "quiz")
	require.NoError(t, err)
	require.True(t, ok)

	// Exhausted: refused, balance stays at zero.
	ok, err = repo.DecrementIfPositive(ctx, "u1", "quiz")
	require.NoError(t, err)
	require.False(t, ok)

	balance, err := repo.Balance(ctx, "u1", "quiz")
	require.NoError(t, err)
	require.EqualValues(t, 0, balance)
}

func TestUsageRepo_TopUpBelow(t *testing.T) {
	conn := openTestDB(t)
	repo := NewUsageRepo(conn)
	ctx := context.Background()

	require.NoError(t, repo.Grant(ctx, "u1", "notes", 1))
	require.NoError(t, repo.Grant(ctx, "u2", "notes", 50))

	affected, err := repo.TopUpBelow(ctx, "notes", 30)
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	balance, err := repo.Balance(ctx, "u1", "notes")
	require.NoError(t, err)
	require.EqualValues(t, 30, balance)

	// Above quota is left alone.
	balance, err = repo.Balance(ctx, "u2", "notes")
	require.NoError(t, err)
	require.EqualValues(t, 50, balance)
}
