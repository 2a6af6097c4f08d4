package retention

import (
	"testing"
	"time"

	"loglite/internal/database/models"
	"loglite/internal/search"

	"github.com/pterm/pterm"
)

type fakeEventRepo struct {
	rows map[uint64]*models.Event
}

func newFakeEventRepo(rows ...*models.Event) *fakeEventRepo {
	r := &fakeEventRepo{rows: map[uint64]*models.Event{}}
	for _, row := range rows {
		r.rows[row.ID] = row
	}
	return r
}

func (r *fakeEventRepo) Create(event *models.Event) error { return nil }

func (r *fakeEventRepo) FindByID(appID string, id uint64) (*models.Event, error) {
	return r.rows[id], nil
}

func (r *fakeEventRepo) FindByIDs(ids []uint64) ([]*models.Event, error) {
	var out []*models.Event
	for _, id := range ids {
		if row, ok := r.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) SelectExpiredIDs(cutoff time.Time, limit int) ([]uint64, error) {
	var ids []uint64
	for id, row := range r.rows {
		if row.Ts.Before(cutoff) {
			ids = append(ids, id)
		}
		if len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

func (r *fakeEventRepo) DeleteByIDs(ids []uint64) error {
	for _, id := range ids {
		delete(r.rows, id)
	}
	return nil
}

type fakeAttemptRepo struct {
	pending map[uint64]bool
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{pending: map[uint64]bool{}}
}

func (r *fakeAttemptRepo) Record(ids []uint64) error {
	for _, id := range ids {
		r.pending[id] = true
	}
	return nil
}

func (r *fakeAttemptRepo) Pending() ([]uint64, error) {
	var ids []uint64
	for id := range r.pending {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeAttemptRepo) Clear(ids []uint64) error {
	for _, id := range ids {
		delete(r.pending, id)
	}
	return nil
}

func newTestIndex(t *testing.T) *search.Facade {
	t.Helper()
	idx, err := search.Open(t.TempDir())
	if err != nil {
		t.Fatalf("search.Open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestCollector_DeletesExpiredEventsFromBothStores(t *testing.T) {
	now := time.Now().UTC()
	expired := &models.Event{ID: 1, AppID: "tenant-a", Ts: now.Add(-48 * time.Hour), Message: "stale"}
	fresh := &models.Event{ID: 2, AppID: "tenant-a", Ts: now, Message: "current"}

	events := newFakeEventRepo(expired, fresh)
	attempts := newFakeAttemptRepo()
	idx := newTestIndex(t)

	if err := idx.Add(search.Document{AppID: "tenant-a", EventID: 1, Message: "stale", TsEpochMs: expired.Ts.UnixMilli()}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := idx.Add(search.Document{AppID: "tenant-a", EventID: 2, Message: "current", TsEpochMs: fresh.Ts.UnixMilli()}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := idx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	c := NewCollector(events, attempts, idx, time.Hour, 24*time.Hour, pterm.DefaultLogger.WithLevel(pterm.LogLevelFatal))
	c.runCycle()

	if _, ok := events.rows[1]; ok {
		t.Error("expected expired event to be deleted from the relational store")
	}
	if _, ok := events.rows[2]; !ok {
		t.Error("expected fresh event to survive the cycle")
	}

	total, hits, err := idx.Search(search.Query{AppID: "tenant-a", Q: "stale"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 0 {
		t.Errorf("expected the expired event's index document to be gone, found %d hits: %v", total, hits)
	}

	if pending, _ := attempts.Pending(); len(pending) != 0 {
		t.Errorf("expected the attempt set to be cleared after a successful cycle, got %v", pending)
	}
}

func TestCollector_RetriesPendingAttemptsBeforeNewCycle(t *testing.T) {
	now := time.Now().UTC()
	events := newFakeEventRepo(&models.Event{ID: 99, AppID: "tenant-a", Ts: now, Message: "current"})
	attempts := newFakeAttemptRepo()
	idx := newTestIndex(t)

	// Simulate a crash that deleted the relational row and recorded the
	// attempt, but never reached the index delete.
	if err := idx.Add(search.Document{AppID: "tenant-a", EventID: 42, Message: "orphaned", TsEpochMs: now.UnixMilli()}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := idx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := attempts.Record([]uint64{42}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	c := NewCollector(events, attempts, idx, time.Hour, 24*time.Hour, pterm.DefaultLogger.WithLevel(pterm.LogLevelFatal))
	c.runCycle()

	total, _, err := idx.Search(search.Query{AppID: "tenant-a", Q: "orphaned"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 0 {
		t.Errorf("expected the orphaned index document to be cleaned up by retryPending, found %d", total)
	}
	if pending, _ := attempts.Pending(); len(pending) != 0 {
		t.Errorf("expected pending attempts to be cleared, got %v", pending)
	}
}
