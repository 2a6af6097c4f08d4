package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"loglite/internal/ingestion"
	"loglite/internal/parser"

	"github.com/gin-gonic/gin"
)

// IngestHandler implements both ingest routes of spec.md §6: the
// structured JSON intake and the raw-text format-tagged intake. Neither
// path defaults a missing Host here; Writer.Admit applies the machine
// hostname default uniformly across every ingestion path.
type IngestHandler struct {
	writer   *ingestion.Writer
	registry *parser.Registry
}

func NewIngestHandler(writer *ingestion.Writer, registry *parser.Registry) *IngestHandler {
	return &IngestHandler{writer: writer, registry: registry}
}

type ingestEventRequest struct {
	Message  string         `json:"message"`
	Host     string         `json:"host"`
	Source   string         `json:"source"`
	Severity *int           `json:"severity"`
	Ts       *time.Time     `json:"ts"`
	Fields   map[string]any `json:"fields"`
}

type ingestJSONRequest struct {
	AppID  string               `json:"app_id" binding:"required"`
	Events []ingestEventRequest `json:"events" binding:"required"`
}

// IngestJSON handles POST /api/ingest: pre-structured events, no parsing.
func (h *IngestHandler) IngestJSON(c *gin.Context) {
	var req ingestJSONRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events := make([]parser.Event, 0, len(req.Events))
	for _, e := range req.Events {
		ts := time.Now().UTC()
		if e.Ts != nil {
			ts = e.Ts.UTC()
		}
		events = append(events, parser.Event{
			Ts:       ts,
			Host:     e.Host,
			Source:   e.Source,
			Severity: e.Severity,
			Message:  e.Message,
			Fields:   e.Fields,
		})
	}

	accepted, err := h.writer.Admit(req.AppID, events)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"accepted": accepted, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": accepted})
}

// IngestText handles POST /api/ingest/{java,rust,go,nginx,auto}: a raw
// text/plain body is split into lines, recognized by the named format
// (or auto-detected), and admitted.
func (h *IngestHandler) IngestText(c *gin.Context) {
	format := c.Param("format")
	appID := c.Query("app_id")
	if appID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "app_id is required"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	lines := splitNonEmptyLines(string(body))

	var events []parser.Event
	if format == "auto" {
		rec, ok := h.registry.AutoDetect(lines)
		if ok {
			events = rec.Extract(lines)
		} else {
			events = parser.RawExtract(lines)
		}
	} else {
		rec, ok := h.registry.Get(format)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown format: " + format})
			return
		}
		events = rec.Extract(lines)
	}

	accepted, err := h.writer.Admit(appID, events)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"accepted": accepted, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": accepted})
}

func splitNonEmptyLines(body string) []string {
	raw := strings.Split(body, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSuffix(l, "\r"))
	}
	// Drop a single trailing empty element produced by a final LF, but keep
	// interior blank lines so multi-line reassembly sees accurate spacing.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
