package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagevault/pagevault-backend/internal/platform/apierr"
	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/services"
	"github.com/pagevault/pagevault-backend/internal/types"
)

type SectionsHandler struct {
	log            *logger.Logger
	projectService services.ProjectService
	sectionService services.SectionService
}

func NewSectionsHandler(log *logger.Logger, projectService services.ProjectService, sectionService services.SectionService) *SectionsHandler {
	handlerLog := log.With("handler", "SectionsHandler")
	return &SectionsHandler{log: handlerLog, projectService: projectService, sectionService: sectionService}
}

func (h *SectionsHandler) editorProject(c *gin.Context) (*types.Project, uuid.UUID, bool) {
	project, err := h.projectService.ResolveBySlug(c.Request.Context(), c.Param("project"))
	if err != nil {
		RespondAPIError(c, h.log, err)
		return nil, uuid.Nil, false
	}
	actor := actorID(c)
	if err := h.projectService.RequireEditor(c.Request.Context(), project.ID, actor); err != nil {
		RespondAPIError(c, h.log, err)
		return nil, uuid.Nil, false
	}
	return project, actor, true
}

func (h *SectionsHandler) CreateSection(c *gin.Context) {
	project, actor, ok := h.editorProject(c)
	if !ok {
		return
	}
	var req struct {
		Title        string `json:"title" binding:"required"`
		Slug         string `json:"slug"`
		WithOverview bool   `json:"with_overview"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	view, err := h.sectionService.CreateSection(c.Request.Context(), project.ID, req.Title, req.Slug, req.WithOverview, actor)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, view)
}

func (h *SectionsHandler) RenameSection(c *gin.Context) {
	project, actor, ok := h.editorProject(c)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	view, err := h.sectionService.RenameSection(c.Request.Context(), project.ID, c.Param("section"), req.Title, actor)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, view)
}

func (h *SectionsHandler) DeleteSection(c *gin.Context) {
	project, actor, ok := h.editorProject(c)
	if !ok {
		return
	}
	deleteDocuments := c.Query("delete_documents") == "true"
	view, err := h.sectionService.DeleteSection(c.Request.Context(), project.ID, c.Param("section"), deleteDocuments, actor)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, view)
}

func (h *SectionsHandler) CreateDocument(c *gin.Context) {
	project, actor, ok := h.editorProject(c)
	if !ok {
		return
	}
	var req struct {
		Title       string `json:"title" binding:"required"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}
	doc, view, err := h.sectionService.CreateDocument(c.Request.Context(), project.ID, c.Param("section"), req.Title, req.Slug, req.Description, actor)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"document": doc, "navigation": view})
}

func (h *SectionsHandler) AddOverview(c *gin.Context) {
	project, actor, ok := h.editorProject(c)
	if !ok {
		return
	}
	doc, err := h.sectionService.AddOverview(c.Request.Context(), project.ID, c.Param("section"), actor)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, doc)
}

func (h *SectionsHandler) RemoveOverview(c *gin.Context) {
	project, actor, ok := h.editorProject(c)
	if !ok {
		return
	}
	if err := h.sectionService.RemoveOverview(c.Request.Context(), project.ID, c.Param("section"), actor); err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"removed": c.Param("section")})
}
