package ingestion

import (
	"os"
	"testing"
	"time"

	"loglite/internal/database/models"
	"loglite/internal/ids"
	"loglite/internal/parser"
	"loglite/internal/search"

	"github.com/pterm/pterm"
)

// fakeEventRepository is an in-memory stand-in for repositories.EventRepository.
type fakeEventRepository struct {
	rows       []*models.Event
	failAfter  int // fail the (failAfter+1)th Create call; 0 disables
	createCalls int
}

func (f *fakeEventRepository) Create(event *models.Event) error {
	f.createCalls++
	if f.failAfter > 0 && f.createCalls > f.failAfter {
		return errCreateFailed
	}
	f.rows = append(f.rows, event)
	return nil
}

func (f *fakeEventRepository) FindByID(appID string, id uint64) (*models.Event, error) {
	for _, r := range f.rows {
		if r.AppID == appID && r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeEventRepository) FindByIDs(ids []uint64) ([]*models.Event, error) {
	var out []*models.Event
	for _, id := range ids {
		for _, r := range f.rows {
			if r.ID == id {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (f *fakeEventRepository) SelectExpiredIDs(cutoff time.Time, limit int) ([]uint64, error) {
	return nil, nil
}

func (f *fakeEventRepository) DeleteByIDs(ids []uint64) error {
	return nil
}

type stubError string

func (e stubError) Error() string { return string(e) }

const errCreateFailed = stubError("create failed")

func newTestWriter(t *testing.T, repo *fakeEventRepository) *Writer {
	t.Helper()
	idx, err := search.Open(t.TempDir())
	if err != nil {
		t.Fatalf("search.Open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	alloc, err := ids.New(1)
	if err != nil {
		t.Fatalf("ids.New: %v", err)
	}

	return NewWriter(repo, alloc, idx, pterm.DefaultLogger.WithLevel(pterm.LogLevelFatal))
}

func TestWriter_AdmitAllSucceed(t *testing.T) {
	repo := &fakeEventRepository{}
	w := newTestWriter(t, repo)

	events := []parser.Event{
		{Ts: time.Now(), Message: "first"},
		{Ts: time.Now(), Message: "second"},
		{Ts: time.Now(), Message: "third"},
	}

	accepted, err := w.Admit("tenant-a", events)
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if accepted != 3 {
		t.Fatalf("expected 3 accepted, got %d", accepted)
	}
	if len(repo.rows) != 3 {
		t.Fatalf("expected 3 relational rows, got %d", len(repo.rows))
	}
	for _, r := range repo.rows {
		if r.AppID != "tenant-a" {
			t.Errorf("expected app_id tenant-a, got %s", r.AppID)
		}
	}
}

func TestWriter_AdmitDefaultsMissingHostToHostname(t *testing.T) {
	repo := &fakeEventRepository{}
	w := newTestWriter(t, repo)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	events := []parser.Event{
		{Ts: time.Now(), Message: "no host given"},
		{Ts: time.Now(), Message: "host given", Host: "explicit-host"},
	}

	if _, err := w.Admit("tenant-a", events); err != nil {
		t.Fatalf("Admit: %v", err)
	}

	if repo.rows[0].Host != hostname {
		t.Errorf("expected missing host to default to %q, got %q", hostname, repo.rows[0].Host)
	}
	if repo.rows[1].Host != "explicit-host" {
		t.Errorf("expected explicit host to survive, got %q", repo.rows[1].Host)
	}
}

func TestWriter_AdmitPartialFailureReportsCount(t *testing.T) {
	repo := &fakeEventRepository{failAfter: 2}
	w := newTestWriter(t, repo)

	events := []parser.Event{
		{Ts: time.Now(), Message: "first"},
		{Ts: time.Now(), Message: "second"},
		{Ts: time.Now(), Message: "third"},
	}

	accepted, err := w.Admit("tenant-a", events)
	if err == nil {
		t.Fatal("expected an error from the third event's failed write")
	}
	if accepted != 2 {
		t.Fatalf("expected 2 accepted before failure, got %d", accepted)
	}
}

func TestWriter_AdmitEmptyIsNoop(t *testing.T) {
	repo := &fakeEventRepository{}
	w := newTestWriter(t, repo)

	accepted, err := w.Admit("tenant-a", nil)
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if accepted != 0 {
		t.Fatalf("expected 0 accepted for empty input, got %d", accepted)
	}
}
