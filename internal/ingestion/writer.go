package ingestion

import (
	"fmt"
	"os"

	"loglite/internal/database/models"
	"loglite/internal/database/repositories"
	"loglite/internal/ids"
	"loglite/internal/parser"
	"loglite/internal/search"

	"github.com/pterm/pterm"
)

// Writer admits parsed events into the relational store and the search
// index, in that order, stamping ids as it goes. This is C3 in the
// ingestion pipeline: the only component allowed to allocate ids or
// touch both stores for a single event.
type Writer struct {
	events    repositories.EventRepository
	allocator *ids.Allocator
	index     *search.Facade
	logger    *pterm.Logger
	hostname  string
}

func NewWriter(events repositories.EventRepository, allocator *ids.Allocator, index *search.Facade, logger *pterm.Logger) *Writer {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &Writer{
		events:    events,
		allocator: allocator,
		index:     index,
		logger:    logger,
		hostname:  hostname,
	}
}

// Admit assigns each event an id in input order and writes it to the
// relational store then the index. It stops at the first failure and
// reports accepted = the count that made it into both stores, per
// spec.md §4.3. Host defaults to the machine hostname here, once, for
// every ingestion path (JSON, text, tailed) rather than per-handler, so
// the default is applied uniformly regardless of how the event arrived
// (spec.md §3).
//
// accepted counts relational writes plus index Add calls, not confirmed
// index visibility: if the single batch Commit at the end fails, every
// event counted in accepted is durable in the relational store but may
// not yet be visible to Search. The batch itself is not discarded on a
// failed Commit (search.Facade keeps it queued), so the next call that
// reaches Commit — whether a later Admit on the same source or a retry
// of this one — flushes it too. A caller treating accepted as "this
// many events are now searchable" would be wrong until that later
// commit succeeds.
func (w *Writer) Admit(appID string, events []parser.Event) (accepted int, err error) {
	if len(events) == 0 {
		return 0, nil
	}

	for _, e := range events {
		id := w.allocator.Next()

		host := e.Host
		if host == "" {
			host = w.hostname
		}

		row := &models.Event{
			ID:         id,
			AppID:      appID,
			Ts:         e.Ts,
			Host:       host,
			Source:     e.Source,
			Sourcetype: e.Sourcetype,
			Severity:   e.Severity,
			Message:    e.Message,
			Fields:     models.Fields(e.Fields),
		}

		if err := w.events.Create(row); err != nil {
			w.logger.WithCaller().Error("Failed to write event to relational store",
				w.logger.Args("error", err, "app_id", appID, "id", id))
			return accepted, fmt.Errorf("admit: relational write failed after %d accepted: %w", accepted, err)
		}

		doc := search.Document{
			AppID:      appID,
			EventID:    id,
			Message:    e.Message,
			Host:       host,
			Source:     e.Source,
			Sourcetype: e.Sourcetype,
			TsEpochMs:  e.Ts.UnixMilli(),
		}
		if e.Severity != nil {
			doc.Severity = *e.Severity
		}

		if err := w.index.Add(doc); err != nil {
			w.logger.WithCaller().Error("Failed to stage event in search index",
				w.logger.Args("error", err, "app_id", appID, "id", id))
			return accepted, fmt.Errorf("admit: index write failed after %d accepted: %w", accepted, err)
		}

		accepted++
	}

	if err := w.index.Commit(); err != nil {
		w.logger.WithCaller().Error("Failed to commit search index batch",
			w.logger.Args("error", err, "app_id", appID))
		return accepted, fmt.Errorf("admit: index commit failed after %d accepted: %w", accepted, err)
	}

	w.logger.Trace("Admitted events", w.logger.Args("app_id", appID, "accepted", accepted))
	return accepted, nil
}
