package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/pagevault/pagevault-backend/internal/platform/apierr"
	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/repos"
	"github.com/pagevault/pagevault-backend/internal/services"
)

type DocsHandler struct {
	log             *logger.Logger
	projectService  services.ProjectService
	contentService  services.ContentService
	resolverService services.ResolverService
}

func NewDocsHandler(log *logger.Logger, projectService services.ProjectService, contentService services.ContentService, resolverService services.ResolverService) *DocsHandler {
	handlerLog := log.With("handler", "DocsHandler")
	return &DocsHandler{
		log:             handlerLog,
		projectService:  projectService,
		contentService:  contentService,
		resolverService: resolverService,
	}
}

// GetDoc resolves a slug path to a document or a section view.
func (h *DocsHandler) GetDoc(c *gin.Context) {
	project, err := h.projectService.ResolveBySlug(c.Request.Context(), c.Param("project"))
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	segments := slugSegments(c)
	resolution, err := h.resolverService.Resolve(c.Request.Context(), project.ID, segments)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	if resolution.Kind == services.ResolutionNotFound {
		RespondError(c, http.StatusNotFound, apierr.CodeNotFound, fmt.Errorf("no document or section at %q", strings.Join(segments, "/")))
		return
	}
	RespondOK(c, resolution)
}

func (h *DocsHandler) SaveDoc(c *gin.Context) {
	project, err := h.projectService.ResolveBySlug(c.Request.Context(), c.Param("project"))
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	if err := h.projectService.RequireEditor(c.Request.Context(), project.ID, actorID(c)); err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	var req struct {
		Title       *string         `json:"title"`
		Description *string         `json:"description"`
		Blocks      json.RawMessage `json:"blocks"`
		Published   *bool           `json:"published"`
		OrderIndex  *int            `json:"order_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	fields := repos.DocumentFields{
		Title:       req.Title,
		Description: req.Description,
		Published:   req.Published,
		OrderIndex:  req.OrderIndex,
	}
	if req.Blocks != nil {
		fields.Blocks = datatypes.JSON(req.Blocks)
	}
	slug := strings.Join(slugSegments(c), "/")
	doc, err := h.contentService.SaveDocument(c.Request.Context(), project.ID, slug, fields, actorID(c))
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, doc)
}

func (h *DocsHandler) DeleteDoc(c *gin.Context) {
	project, err := h.projectService.ResolveBySlug(c.Request.Context(), c.Param("project"))
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	if err := h.projectService.RequireEditor(c.Request.Context(), project.ID, actorID(c)); err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	slug := strings.Join(slugSegments(c), "/")
	if err := h.contentService.DeleteDocument(c.Request.Context(), project.ID, slug, actorID(c)); err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"deleted": slug})
}

func (h *DocsHandler) ListDocs(c *gin.Context) {
	project, err := h.projectService.ResolveBySlug(c.Request.Context(), c.Param("project"))
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	metas, err := h.contentService.ListDocuments(c.Request.Context(), project.ID)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"documents": metas})
}

// slugSegments splits the wildcard *slug param, dropping empty parts
// from leading or doubled slashes.
func slugSegments(c *gin.Context) []string {
	raw := strings.Trim(c.Param("slug"), "/")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
