package crawler

import (
	"errors"
	"sort"
	"sync"

	"github.com/kapu/ufc-athlete-scraper-go/internal/domain"
	"go.uber.org/zap"
)

// ErrOrphanedContinuation is returned when a fight-history page arrives for an athlete that is not pending.
var ErrOrphanedContinuation = errors.New("no pending athlete for fight-history continuation")

// Progress describes an athlete's fight-history pagination after one sub-page was merged.
type Progress struct {
	Page   int
	Fights int
	Done   bool
}

type pendingEntry struct {
	record *domain.AthleteRecord
	page   int
}

// Tracker owns the pending-traversal table and the list of completed athletes.
// colly runs callbacks on several goroutines, so every access goes through mu.
type Tracker struct {
	mu        sync.Mutex
	pending   map[string]*pendingEntry
	completed []*domain.AthleteRecord
	logger    *zap.Logger
}

func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		pending: make(map[string]*pendingEntry),
		logger:  logger,
	}
}

// Profile records a freshly extracted athlete. With hasMore the athlete becomes pending at page 1
// and Profile returns true; otherwise it is complete immediately.
func (t *Tracker) Profile(record *domain.AthleteRecord, hasMore bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !hasMore {
		t.complete(record)
		return false
	}

	t.pending[record.ID()] = &pendingEntry{record: record, page: 1}
	t.logger.Debug("Athlete pending fight history",
		zap.String("athlete_id", record.ID()),
		zap.Int("page", 1),
	)
	return true
}

// Continue merges one fight-history sub-page into the pending athlete.
// Later pages overwrite same-key fights from earlier ones.
func (t *Tracker) Continue(athleteID string, fights domain.FightHistory, hasMore bool) (Progress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.pending[athleteID]
	if !ok {
		return Progress{}, ErrOrphanedContinuation
	}

	entry.record.FightHistory.Merge(fights)

	if hasMore {
		entry.page++
		return Progress{Page: entry.page, Fights: entry.record.FightHistory.Len()}, nil
	}

	delete(t.pending, athleteID)
	t.complete(entry.record)
	return Progress{Page: entry.page, Fights: entry.record.FightHistory.Len(), Done: true}, nil
}

// Flush moves every still-pending athlete into the completed list as partial data
// and returns all completed records. partial is the number of athletes flushed this way.
func (t *Tracker) Flush() (records []*domain.AthleteRecord, partial int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.pending))
	for id := range t.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		entry := t.pending[id]
		t.logger.Warn("Adding incomplete athlete data",
			zap.String("athlete_id", id),
			zap.Int("page", entry.page),
			zap.Int("fights", entry.record.FightHistory.Len()),
		)
		t.completed = append(t.completed, entry.record)
		delete(t.pending, id)
	}

	return append([]*domain.AthleteRecord(nil), t.completed...), len(ids)
}

func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *Tracker) Completed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.completed)
}

// must be called with lock held
func (t *Tracker) complete(record *domain.AthleteRecord) {
	t.completed = append(t.completed, record)
	t.logger.Info("Athlete complete",
		zap.String("athlete_id", record.ID()),
		zap.Int("total_fights", record.FightHistory.Len()),
	)
}
