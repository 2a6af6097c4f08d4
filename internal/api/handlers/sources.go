package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"loglite/internal/database/models"
	"loglite/internal/database/repositories"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SourcesHandler implements the Source CRUD surface of spec.md §6.
type SourcesHandler struct {
	sources repositories.SourceRepository
}

func NewSourcesHandler(sources repositories.SourceRepository) *SourcesHandler {
	return &SourcesHandler{sources: sources}
}

type sourceRequest struct {
	AppID       string  `json:"app_id"`
	Path        string  `json:"path"`
	Recursive   *bool   `json:"recursive"`
	Encoding    string  `json:"encoding"`
	IncludeGlob *string `json:"include_glob"`
	ExcludeGlob *string `json:"exclude_glob"`
	Enabled     *bool   `json:"enabled"`
}

func (h *SourcesHandler) Create(c *gin.Context) {
	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.AppID == "" || req.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "app_id and path are required"})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	var recursive bool
	if req.Recursive != nil {
		recursive = *req.Recursive
	}
	var includeGlob, excludeGlob string
	if req.IncludeGlob != nil {
		includeGlob = *req.IncludeGlob
	}
	if req.ExcludeGlob != nil {
		excludeGlob = *req.ExcludeGlob
	}

	source := &models.Source{
		AppID:       req.AppID,
		Kind:        "tail",
		Path:        req.Path,
		Recursive:   recursive,
		Encoding:    req.Encoding,
		IncludeGlob: includeGlob,
		ExcludeGlob: excludeGlob,
		Enabled:     enabled,
	}

	if err := h.sources.Create(source); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create source"})
		return
	}

	c.JSON(http.StatusOK, source)
}

func (h *SourcesHandler) List(c *gin.Context) {
	appID := c.Query("app_id")
	if appID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "app_id is required"})
		return
	}

	sources, err := h.sources.FindByAppID(appID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sources"})
		return
	}
	c.JSON(http.StatusOK, sources)
}

func (h *SourcesHandler) Get(c *gin.Context) {
	id, err := parseSourceID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source id"})
		return
	}

	source, err := h.sources.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch source"})
		return
	}
	c.JSON(http.StatusOK, source)
}

func (h *SourcesHandler) Update(c *gin.Context) {
	id, err := parseSourceID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source id"})
		return
	}

	source, err := h.sources.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch source"})
		return
	}

	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Path != "" {
		source.Path = req.Path
	}
	if req.Recursive != nil {
		source.Recursive = *req.Recursive
	}
	if req.Encoding != "" {
		source.Encoding = req.Encoding
	}
	if req.IncludeGlob != nil {
		source.IncludeGlob = *req.IncludeGlob
	}
	if req.ExcludeGlob != nil {
		source.ExcludeGlob = *req.ExcludeGlob
	}
	if req.Enabled != nil {
		source.Enabled = *req.Enabled
	}

	if err := h.sources.Update(source); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update source"})
		return
	}
	c.JSON(http.StatusOK, source)
}

func (h *SourcesHandler) Delete(c *gin.Context) {
	id, err := parseSourceID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source id"})
		return
	}

	if err := h.sources.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete source"})
		return
	}
	c.Status(http.StatusNoContent)
}

func parseSourceID(c *gin.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
