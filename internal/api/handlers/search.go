package handlers

import (
	"net/http"

	"loglite/internal/database/models"
	"loglite/internal/database/repositories"
	"loglite/internal/search"

	"github.com/gin-gonic/gin"
)

// SearchHandler implements POST /api/search (spec.md §6): it queries the
// index for matching ids, then hydrates full rows from the relational
// store, which remains the ground truth for event content (spec.md §9).
type SearchHandler struct {
	index  *search.Facade
	events repositories.EventRepository
}

func NewSearchHandler(index *search.Facade, events repositories.EventRepository) *SearchHandler {
	return &SearchHandler{index: index, events: events}
}

type searchRequest struct {
	AppID    string `json:"app_id" binding:"required"`
	Q        string `json:"q"`
	Source   string `json:"source"`
	Host     string `json:"host"`
	Severity *int   `json:"severity"`
	StartTs  *int64 `json:"start_ts"`
	EndTs    *int64 `json:"end_ts"`
	Limit    int    `json:"limit"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	total, hits, err := h.index.Search(search.Query{
		AppID:     req.AppID,
		Q:         req.Q,
		Source:    req.Source,
		Host:      req.Host,
		Severity:  req.Severity,
		StartTsMs: req.StartTs,
		EndTsMs:   req.EndTs,
		Limit:     req.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if len(hits) == 0 {
		c.JSON(http.StatusOK, gin.H{"total": total, "items": []models.Event{}})
		return
	}

	ids := make([]uint64, len(hits))
	for i, hit := range hits {
		ids[i] = hit.EventID
	}

	rows, err := h.events.FindByIDs(ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hydrate events"})
		return
	}

	byID := make(map[uint64]*models.Event, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	items := make([]*models.Event, 0, len(hits))
	for _, hit := range hits {
		if row, ok := byID[hit.EventID]; ok {
			items = append(items, row)
		}
	}

	c.JSON(http.StatusOK, gin.H{"total": total, "items": items})
}
