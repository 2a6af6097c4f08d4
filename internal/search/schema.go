package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Document is the per-event payload the facade adds to the index. Field
// names match spec.md §4.6's schema table exactly.
type Document struct {
	AppID      string `json:"app_id"`
	EventID    uint64 `json:"event_id"`
	Message    string `json:"message"`
	Host       string `json:"host"`
	Source     string `json:"source"`
	Sourcetype string `json:"sourcetype"`
	TsEpochMs  int64  `json:"ts_epoch_ms"`
	// Severity is 0 both when an event carries no severity and when it
	// explicitly carries severity 0; the two are indistinguishable once
	// indexed. None of the built-in format recognizers ever emit 0, so
	// this only bites a JSON-ingested event that sets severity:0 on
	// purpose. Not worth a *int field and a numeric-mapping special case
	// for that one caller to notice the difference.
	Severity int `json:"severity"`
}

// buildIndexMapping constructs the field mapping spec.md §4.6 requires:
// app_id/host/source/sourcetype as indexed, non-analyzed keywords,
// message as standard-tokenized full text, ts_epoch_ms/severity/event_id
// as indexed, range-searchable numerics.
func buildIndexMapping() mapping.IndexMapping {
	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard" // unicode lowercase tokenizer, per spec.md §4.6
	text.Store = false

	numeric := bleve.NewNumericFieldMapping()
	numeric.Store = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("app_id", keyword)
	doc.AddFieldMappingsAt("event_id", numeric)
	doc.AddFieldMappingsAt("message", text)
	doc.AddFieldMappingsAt("host", keyword)
	doc.AddFieldMappingsAt("source", keyword)
	doc.AddFieldMappingsAt("sourcetype", keyword)
	doc.AddFieldMappingsAt("ts_epoch_ms", numeric)
	doc.AddFieldMappingsAt("severity", numeric)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = "standard"
	return im
}
