package search

import (
	"testing"
)

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	f, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func mustAdd(t *testing.T, f *Facade, doc Document) {
	t.Helper()
	if err := f.Add(doc); err != nil {
		t.Fatalf("Add: %v", err)
	}
}

func TestFacade_SearchIsScopedToTenant(t *testing.T) {
	f := newTestFacade(t)

	mustAdd(t, f, Document{AppID: "tenant-a", EventID: 1, Message: "connection refused", TsEpochMs: 1000})
	mustAdd(t, f, Document{AppID: "tenant-b", EventID: 2, Message: "connection refused", TsEpochMs: 2000})
	if err := f.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	total, hits, err := f.Search(Query{AppID: "tenant-a", Q: "connection"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 hit scoped to tenant-a, got %d", total)
	}
	if len(hits) != 1 || hits[0].EventID != 1 {
		t.Fatalf("expected event id 1, got %v", hits)
	}
}

func TestFacade_SearchSortsNewestFirst(t *testing.T) {
	f := newTestFacade(t)

	mustAdd(t, f, Document{AppID: "tenant-a", EventID: 1, Message: "boot sequence complete", TsEpochMs: 1000})
	mustAdd(t, f, Document{AppID: "tenant-a", EventID: 2, Message: "boot sequence complete", TsEpochMs: 3000})
	mustAdd(t, f, Document{AppID: "tenant-a", EventID: 3, Message: "boot sequence complete", TsEpochMs: 2000})
	if err := f.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	_, hits, err := f.Search(Query{AppID: "tenant-a", Q: "boot"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	wantOrder := []uint64{2, 3, 1}
	for i, id := range wantOrder {
		if hits[i].EventID != id {
			t.Errorf("position %d: expected event id %d, got %d", i, id, hits[i].EventID)
		}
	}
}

func TestFacade_DeleteByIDsRemovesDocuments(t *testing.T) {
	f := newTestFacade(t)

	mustAdd(t, f, Document{AppID: "tenant-a", EventID: 1, Message: "disk full", TsEpochMs: 1000})
	mustAdd(t, f, Document{AppID: "tenant-a", EventID: 2, Message: "disk full", TsEpochMs: 2000})
	if err := f.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := f.DeleteByIDs([]uint64{1}); err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	if err := f.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	total, hits, err := f.Search(Query{AppID: "tenant-a", Q: "disk"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 remaining hit, got %d", total)
	}
	if hits[0].EventID != 2 {
		t.Fatalf("expected surviving event id 2, got %d", hits[0].EventID)
	}
}

func TestFacade_SearchRequiresAppID(t *testing.T) {
	f := newTestFacade(t)

	if _, _, err := f.Search(Query{Q: "anything"}); err == nil {
		t.Fatal("expected an error when app_id is omitted")
	}
}

func TestParseMessageQuery_QuotedPhraseAndTerms(t *testing.T) {
	clauses := parseMessageQuery(`error "out of memory" retrying`)
	if len(clauses) != 3 {
		t.Fatalf("expected 3 clauses (2 terms + 1 phrase), got %d", len(clauses))
	}
}

func TestParseMessageQuery_Empty(t *testing.T) {
	if clauses := parseMessageQuery("   "); clauses != nil {
		t.Fatalf("expected nil clauses for blank query, got %v", clauses)
	}
}
