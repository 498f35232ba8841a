package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublisher_LastWriteWins(t *testing.T) {
	p := NewPublisher()

	p.Publish("d1", ModeSummary, Snapshot{Phase: PhaseMapping, Percent: 30, Partial: "a"})
	p.Publish("d1", ModeSummary, Snapshot{Phase: PhaseMapping, Percent: 60, Partial: "ab"})

	snap, ok := p.Get("d1", ModeSummary)
	require.True(t, ok)
	require.Equal(t, 60, snap.Percent)
	require.Equal(t, "ab", snap.Partial)
	require.NotZero(t, snap.Mtime)
}

func TestPublisher_KeysAreScopedByMode(t *testing.T) {
	p := NewPublisher()

	p.Publish("d1", ModeSummary, Snapshot{Phase: PhaseDone, Percent: 100})
	p.Publish("d1", ModeQuiz, Snapshot{Phase: PhaseMapping, Percent: 40})

	summary, ok := p.Get("d1", ModeSummary)
	require.True(t, ok)
	require.Equal(t, PhaseDone, summary.Phase)

	quiz, ok := p.Get("d1", ModeQuiz)
	require.True(t, ok)
	require.Equal(t, PhaseMapping, quiz.Phase)

	_, ok = p.Get("d2", ModeSummary)
	require.False(t, ok)
}
