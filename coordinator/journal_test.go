package coordinator_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/absmach/fedfraud/coordinator"
	"github.com/absmach/fedfraud/pkg/errors"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal(t *testing.T) {
	t.Parallel()

	journals := map[string]func(t *testing.T) coordinator.Journal{
		"memory": func(*testing.T) coordinator.Journal { return coordinator.NewMemoryJournal() },
		"file": func(t *testing.T) coordinator.Journal {
			j, err := coordinator.NewFileJournal(t.TempDir())
			require.NoError(t, err)

			return j
		},
	}

	for name, newJournal := range journals {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			j := newJournal(t)

			_, err := j.LoadRound(1)
			assert.ErrorIs(t, err, errors.ErrNotFound)

			rounds, err := j.ListRounds()
			require.NoError(t, err)
			assert.Empty(t, rounds)

			completed := fl.RoundResult{
				Round:      2,
				Status:     fl.StatusCompleted,
				Parameters: fl.Parameters{fl.NewTensor(2)},
				Report:     &fl.EvaluationReport{Round: 2, PRAUC: 0.7, Threshold: 0.4},
				NumUpdates: 2,
				NewBest:    true,
			}
			failed := fl.RoundResult{
				Round:    1,
				Status:   fl.StatusQuorumFailure,
				Failures: []string{"a"},
				Error:    "1 successful updates, quorum is 2",
			}
			require.NoError(t, j.SaveRound(completed))
			require.NoError(t, j.SaveRound(failed))

			got, err := j.LoadRound(2)
			require.NoError(t, err)
			assert.Nil(t, got.Parameters)
			assert.Equal(t, completed.Summary(), got)

			rounds, err = j.ListRounds()
			require.NoError(t, err)
			require.Len(t, rounds, 2)
			assert.Equal(t, 1, rounds[0].Round)
			assert.Equal(t, 2, rounds[1].Round)
			assert.Equal(t, []string{"a"}, rounds[0].Failures)
		})
	}
}

func TestFileJournalIgnoresForeignFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := coordinator.NewFileJournal(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "round_9.json.d"), 0o755))
	require.NoError(t, j.SaveRound(fl.RoundResult{Round: 3, Status: fl.StatusAbandoned}))

	rounds, err := j.ListRounds()
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, fl.StatusAbandoned, rounds[0].Status)
}
