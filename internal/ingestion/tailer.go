package ingestion

import (
	"context"
	"sync"
	"time"

	"loglite/internal/database/models"
	"loglite/internal/database/repositories"
	"loglite/internal/enrichment"
	"loglite/internal/parser"

	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"
)

// Tailer is the single cooperative task that walks every enabled source
// once per tick, per spec.md §9: file count is unbounded and the
// wake-up rate is uniform, so there is exactly one ticker loop per
// process, not one long-lived goroutine per source or file. Inside a
// tick, every enabled source is scanned concurrently, and each source
// fans a worker pool of at most workerPool goroutines over its
// candidate files.
type Tailer struct {
	sources    repositories.SourceRepository
	offsets    repositories.OffsetRepository
	registry   *parser.Registry
	writer     *Writer
	interval   time.Duration
	workerPool int
	geoIP      *enrichment.GeoIPEnricher
	logger     *pterm.Logger

	watcher *fsnotify.Watcher
	wake    chan struct{}
}

func NewTailer(
	sources repositories.SourceRepository,
	offsets repositories.OffsetRepository,
	registry *parser.Registry,
	writer *Writer,
	interval time.Duration,
	workerPool int,
	geoIP *enrichment.GeoIPEnricher,
	logger *pterm.Logger,
) *Tailer {
	return &Tailer{
		sources:    sources,
		offsets:    offsets,
		registry:   registry,
		writer:     writer,
		interval:   interval,
		workerPool: workerPool,
		geoIP:      geoIP,
		logger:     logger,
		wake:       make(chan struct{}, 1),
	}
}

// Run blocks until ctx is cancelled, running one tick immediately and
// then every interval. An in-flight tick always runs to completion
// before a shutdown signal is observed, per spec.md §5.
func (t *Tailer) Run(ctx context.Context) {
	t.startWatcher(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			if t.watcher != nil {
				t.watcher.Close()
			}
			return
		case <-ticker.C:
			t.tick(ctx)
		case <-t.wake:
			t.tick(ctx)
		}
	}
}

// startWatcher opportunistically wires fsnotify so a file change can
// trigger an early tick without weakening the fixed-interval guarantee:
// if the watcher fails to start, the ticker alone still drives every
// tick correctly.
func (t *Tailer) startWatcher(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		t.logger.Debug("File watcher unavailable, falling back to fixed interval only",
			t.logger.Args("error", err))
		return
	}
	t.watcher = w

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-w.Events:
				if !ok {
					return
				}
				select {
				case t.wake <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				t.logger.Trace("File watcher error", t.logger.Args("error", err))
			}
		}
	}()
}

func (t *Tailer) tick(ctx context.Context) {
	sources, err := t.sources.FindAllEnabled()
	if err != nil {
		t.logger.WithCaller().Error("Failed to load enabled sources", t.logger.Args("error", err))
		return
	}

	var wg sync.WaitGroup
	for _, source := range sources {
		wg.Add(1)
		go func(source *models.Source) {
			defer wg.Done()
			t.scanSource(ctx, source)
		}(source)
	}
	wg.Wait()
}

// scanSource resolves the current candidate file set for one source and
// fans out a bounded worker pool over them. A single file is scanned by
// at most one reader at a time because each file is only ever a job
// assigned to one worker within this call.
func (t *Tailer) scanSource(ctx context.Context, source *models.Source) {
	files, err := candidateFiles(source)
	if err != nil {
		t.logger.Warn("Failed to resolve candidate files for source",
			t.logger.Args("source_id", source.ID, "path", source.Path, "error", err))
		return
	}

	if t.watcher != nil {
		for _, f := range files {
			_ = t.watcher.Add(f)
		}
	}

	numWorkers := t.workerPool
	if numWorkers > len(files) {
		numWorkers = len(files)
	}
	if numWorkers <= 0 {
		return
	}

	jobs := make(chan string, len(files))
	for _, f := range files {
		jobs <- f
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				t.scanFile(source, path)
			}
		}()
	}
	wg.Wait()
}

// scanFile reads the new byte range of one file, parses completed
// lines, admits resulting events, and advances the offset only after a
// successful admission (spec.md §4.4 steps 3-6).
func (t *Tailer) scanFile(source *models.Source, path string) {
	offset, err := t.offsets.Get(source.ID, path)
	if err != nil {
		t.logger.WithCaller().Error("Failed to read tracked offset",
			t.logger.Args("source_id", source.ID, "path", path, "error", err))
		return
	}

	result, err := NewRangeReader(path, source.Encoding).Read(offset)
	if err != nil {
		// Previously seen file now missing or unreadable: log and skip,
		// leave its offset untouched (spec.md §4.4 error policy).
		t.logger.Warn("Failed to read source file", t.logger.Args("path", path, "error", err))
		return
	}

	if result.Reset {
		t.logger.Info("File shrank below stored offset, resetting to 0",
			t.logger.Args("path", path, "previous_offset", offset))
	}

	if len(result.Lines) == 0 {
		if result.Reset {
			if err := t.offsets.Upsert(source.ID, path, 0); err != nil {
				t.logger.WithCaller().Error("Failed to persist reset offset",
					t.logger.Args("source_id", source.ID, "path", path, "error", err))
			}
		}
		return
	}

	rec, ok := t.registry.AutoDetect(result.Lines)
	var events []parser.Event
	if ok {
		events = rec.Extract(result.Lines)
	} else {
		events = parser.RawExtract(result.Lines)
	}

	for i := range events {
		events[i].Source = path
		if t.geoIP != nil && events[i].Sourcetype == "nginx" && events[i].Fields != nil {
			t.geoIP.Enrich(events[i].Fields)
		}
	}

	accepted, err := t.writer.Admit(source.AppID, events)
	if err != nil {
		t.logger.WithCaller().Error("Admission failed while tailing",
			t.logger.Args("path", path, "accepted", accepted, "attempted", len(events), "error", err))
		// Offset advances only after a fully successful admission; a
		// partial write leaves the offset untouched so the next tick
		// retries the whole range.
		return
	}

	if err := t.offsets.Upsert(source.ID, path, result.NewOffset); err != nil {
		t.logger.WithCaller().Error("Failed to persist advanced offset",
			t.logger.Args("source_id", source.ID, "path", path, "error", err))
	}
}
