// Package search wraps a single on-disk full-text index shared by every
// tenant, enforcing the tenant-scoped add/commit/delete/search contract
// of spec.md §4.6 (C6).
package search

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Hit is the (event_id, ts_epoch_ms) pair spec.md §4.6 says Search returns;
// the relational store is then joined by the caller to hydrate the event.
type Hit struct {
	EventID   uint64
	TsEpochMs int64
}

// Query is the filter/keyword set spec.md §6's /api/search accepts.
type Query struct {
	AppID      string
	Q          string
	Source     string
	Host       string
	Severity   *int
	StartTsMs  *int64
	EndTsMs    *int64
	Limit      int
}

// Facade is the tenant-scoped search engine wrapper. The underlying bleve
// index has a single writer; Add/DeleteByIDs serialize behind mu,
// matching spec.md §5's "single writer, additions serialized" guarantee.
type Facade struct {
	index bleve.Index
	mu    sync.Mutex
	batch *bleve.Batch
}

// Open creates or reopens the on-disk index at dir.
func Open(dir string) (*Facade, error) {
	idx, err := bleve.Open(dir)
	if err == nil {
		return &Facade{index: idx, batch: idx.NewBatch()}, nil
	}

	idx, err = bleve.New(dir, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	return &Facade{index: idx, batch: idx.NewBatch()}, nil
}

func (f *Facade) Close() error {
	return f.index.Close()
}

// Add stages a single document for the next Commit. Callers batch and
// commit (spec.md §4.6 — "single-document add; caller batches and
// commits").
func (f *Facade) Add(doc Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batch.Index(docID(doc.EventID), doc)
}

// Commit flushes pending adds; documents are not visible to Search until
// this returns successfully.
func (f *Facade) Commit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batch.Size() == 0 {
		return nil
	}
	if err := f.index.Batch(f.batch); err != nil {
		return fmt.Errorf("commit search batch: %w", err)
	}
	f.batch = f.index.NewBatch()
	return nil
}

// DeleteByIDs removes documents by primary key. Callers must Commit
// afterward — deletes submitted through a Batch share the same
// visibility rule as Add.
func (f *Facade) DeleteByIDs(ids []uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.batch.Delete(docID(id))
	}
	return nil
}

func docID(eventID uint64) string {
	return strconv.FormatUint(eventID, 10)
}

// Search runs a tenant-scoped filter+keyword query and returns hits sorted
// newest-first, ties broken by event id descending (spec.md §4.6).
func (f *Facade) Search(q Query) (total uint64, hits []Hit, err error) {
	if q.AppID == "" {
		return 0, nil, fmt.Errorf("search: app_id is required")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	bq := buildQuery(q)

	req := bleve.NewSearchRequestOptions(bq, limit, 0, false)
	req.SortBy([]string{"-ts_epoch_ms", "-event_id"})
	req.Fields = []string{"event_id", "ts_epoch_ms"}

	res, err := f.index.Search(req)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}

	hits = make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		// The document id is the decimal event id (docID); parse it rather
		// than the stored event_id field, which bleve keeps as float64 and
		// so cannot hold a full 64-bit id exactly.
		eid, perr := strconv.ParseUint(h.ID, 10, 64)
		if perr != nil {
			eid, _ = toUint64(h.Fields["event_id"])
		}
		ts, _ := toInt64(h.Fields["ts_epoch_ms"])
		hits = append(hits, Hit{EventID: eid, TsEpochMs: ts})
	}
	// bleve's per-field stored numeric round-trips through float64; the
	// sort above is authoritative, but re-sort defensively in case of ties
	// bleve's implicit _id tiebreak doesn't resolve the way spec.md wants.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].TsEpochMs != hits[j].TsEpochMs {
			return hits[i].TsEpochMs > hits[j].TsEpochMs
		}
		return hits[i].EventID > hits[j].EventID
	})

	return res.Total, hits, nil
}

// buildQuery translates a Query into bleve's query DSL: unquoted terms are
// AND-joined matches against message, quoted spans become phrase
// queries, and filters are mandatory term/range clauses. An empty q
// degenerates to a filter-only scan, per spec.md §4.6.
func buildQuery(q Query) query.Query {
	must := []query.Query{}

	appQ := bleve.NewTermQuery(q.AppID)
	appQ.SetField("app_id")
	must = append(must, appQ)

	if q.Source != "" {
		sq := bleve.NewTermQuery(q.Source)
		sq.SetField("source")
		must = append(must, sq)
	}
	if q.Host != "" {
		hq := bleve.NewTermQuery(q.Host)
		hq.SetField("host")
		must = append(must, hq)
	}
	if q.Severity != nil {
		sev := float64(*q.Severity)
		rq := bleve.NewNumericRangeQuery(&sev, nil)
		rq.SetField("severity")
		rq.InclusiveMin = boolPtr(true)
		upper := sev + 1
		rq.Max = &upper
		rq.InclusiveMax = boolPtr(false)
		must = append(must, rq)
	}
	if q.StartTsMs != nil || q.EndTsMs != nil {
		var min, max *float64
		if q.StartTsMs != nil {
			v := float64(*q.StartTsMs)
			min = &v
		}
		if q.EndTsMs != nil {
			v := float64(*q.EndTsMs)
			max = &v
		}
		rq := bleve.NewNumericRangeQuery(min, max)
		rq.SetField("ts_epoch_ms")
		must = append(must, rq)
	}

	if terms := parseMessageQuery(q.Q); len(terms) > 0 {
		must = append(must, terms...)
	}

	return bleve.NewConjunctionQuery(must...)
}

// parseMessageQuery splits q into unquoted terms (AND-joined match
// queries) and quoted phrases (phrase queries), per spec.md §4.6.
func parseMessageQuery(q string) []query.Query {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}

	var clauses []query.Query
	var cur strings.Builder
	inPhrase := false

	flush := func() {
		term := strings.TrimSpace(cur.String())
		cur.Reset()
		if term == "" {
			return
		}
		if inPhrase {
			pq := bleve.NewMatchPhraseQuery(term)
			pq.SetField("message")
			clauses = append(clauses, pq)
		} else {
			for _, w := range strings.Fields(term) {
				mq := bleve.NewMatchQuery(w)
				mq.SetField("message")
				clauses = append(clauses, mq)
			}
		}
	}

	for _, r := range q {
		if r == '"' {
			flush()
			inPhrase = !inPhrase
			continue
		}
		cur.WriteRune(r)
	}
	flush()

	return clauses
}

func boolPtr(b bool) *bool { return &b }

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case float64:
		return uint64(n), true
	case string:
		u, err := strconv.ParseUint(n, 10, 64)
		return u, err == nil
	default:
		return 0, false
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
