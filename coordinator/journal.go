package coordinator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/absmach/fedfraud/pkg/artifact"
	"github.com/absmach/fedfraud/pkg/errors"
	"github.com/absmach/fedfraud/pkg/fl"
)

// Journal records the summary of every finished round.
type Journal interface {
	SaveRound(res fl.RoundResult) error
	LoadRound(round int) (fl.RoundResult, error)
	ListRounds() ([]fl.RoundResult, error)
}

type fileJournal struct {
	dir string
	mu  sync.RWMutex
}

// NewFileJournal writes one round_<n>.json file per round under dir.
func NewFileJournal(dir string) (Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	return &fileJournal{dir: dir}, nil
}

func (j *fileJournal) SaveRound(res fl.RoundResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.MarshalIndent(res.Summary(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal round %d: %w", res.Round, err)
	}

	if err := artifact.WriteAtomic(j.path(res.Round), data); err != nil {
		return fmt.Errorf("failed to write round %d: %w", res.Round, err)
	}

	return nil
}

func (j *fileJournal) LoadRound(round int) (fl.RoundResult, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.load(round)
}

func (j *fileJournal) load(round int) (fl.RoundResult, error) {
	data, err := os.ReadFile(j.path(round))
	if err != nil {
		if os.IsNotExist(err) {
			return fl.RoundResult{}, fmt.Errorf("round %d: %w", round, errors.ErrNotFound)
		}

		return fl.RoundResult{}, fmt.Errorf("failed to read round %d: %w", round, err)
	}

	var res fl.RoundResult
	if err := json.Unmarshal(data, &res); err != nil {
		return fl.RoundResult{}, fmt.Errorf("failed to unmarshal round %d: %w", round, err)
	}

	return res, nil
}

func (j *fileJournal) ListRounds() ([]fl.RoundResult, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return nil, err
	}

	var rounds []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var round int
		if _, err := fmt.Sscanf(entry.Name(), "round_%d.json", &round); err == nil && filepath.Base(j.path(round)) == entry.Name() {
			rounds = append(rounds, round)
		}
	}
	slices.Sort(rounds)

	results := make([]fl.RoundResult, 0, len(rounds))
	for _, r := range rounds {
		res, err := j.load(r)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, nil
}

func (j *fileJournal) path(round int) string {
	return filepath.Join(j.dir, fmt.Sprintf("round_%d.json", round))
}

type memoryJournal struct {
	mu     sync.RWMutex
	rounds map[int]fl.RoundResult
}

// NewMemoryJournal keeps round summaries for the lifetime of the process.
func NewMemoryJournal() Journal {
	return &memoryJournal{rounds: make(map[int]fl.RoundResult)}
}

func (j *memoryJournal) SaveRound(res fl.RoundResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.rounds[res.Round] = res.Summary()

	return nil
}

func (j *memoryJournal) LoadRound(round int) (fl.RoundResult, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	res, ok := j.rounds[round]
	if !ok {
		return fl.RoundResult{}, fmt.Errorf("round %d: %w", round, errors.ErrNotFound)
	}

	return res, nil
}

func (j *memoryJournal) ListRounds() ([]fl.RoundResult, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	results := make([]fl.RoundResult, 0, len(j.rounds))
	for _, res := range j.rounds {
		results = append(results, res)
	}
	slices.SortFunc(results, func(a, b fl.RoundResult) int { return a.Round - b.Round })

	return results, nil
}
