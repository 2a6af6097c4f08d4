package handlers

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"loglite/internal/database/models"
	"loglite/internal/database/repositories"

	"github.com/gin-gonic/gin"
)

// AppsHandler implements the App CRUD surface of spec.md §6.
type AppsHandler struct {
	apps repositories.AppRepository
}

func NewAppsHandler(apps repositories.AppRepository) *AppsHandler {
	return &AppsHandler{apps: apps}
}

type createAppRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create derives app_id from name (lower-kebab slug + short hex hash of
// the original name, spec.md §3) and stores a new App, or 409s if the
// derived app_id (slug and hash together) already exists.
func (h *AppsHandler) Create(c *gin.Context) {
	var req createAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app := &models.App{
		AppID: deriveAppID(req.Name),
		Name:  req.Name,
	}

	if err := h.apps.Create(app); err != nil {
		if errors.Is(err, repositories.ErrDuplicateApp) {
			c.JSON(http.StatusConflict, gin.H{"error": "app already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create app"})
		return
	}

	c.JSON(http.StatusOK, app)
}

func (h *AppsHandler) List(c *gin.Context) {
	apps, err := h.apps.FindAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list apps"})
		return
	}
	c.JSON(http.StatusOK, apps)
}

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// deriveAppID builds a stable app_id from a human name: a lower-kebab
// slug followed by an 8-hex-char hash of the original name, so two apps
// named identically still collide on Create (and two differently-cased
// variants of the same name don't silently alias).
func deriveAppID(name string) string {
	slug := strings.Trim(slugInvalidChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "app"
	}
	sum := sha256.Sum256([]byte(name))
	return fmt.Sprintf("%s-%x", slug, sum[:4])
}
